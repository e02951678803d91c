// Package cli implements the galcurator command-line interface: a thin
// cobra tree over the command API's logical endpoints, wiring
// configuration, storage, and every core component together behind a
// single lazily-built App shared by every subcommand.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/canonicalize"
	"github.com/galcurator/galcurator/pkg/config"
	"github.com/galcurator/galcurator/pkg/decision"
	"github.com/galcurator/galcurator/pkg/journal"
	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/libraryview"
	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/organizer"
	"github.com/galcurator/galcurator/pkg/pipeline"
	"github.com/galcurator/galcurator/pkg/recovery"
	"github.com/galcurator/galcurator/pkg/scheduler"
	"github.com/galcurator/galcurator/pkg/sentinel"
	"github.com/galcurator/galcurator/pkg/store"
	"github.com/galcurator/galcurator/pkg/transaction"
	"github.com/galcurator/galcurator/pkg/trash"
)

// App holds every component the CLI's subcommands share, constructed
// once per invocation.
type App struct {
	Config      config.Resolved
	Log         *logging.Logger
	DB          *store.Store
	Journal     *journal.Journal
	Trash       *trash.Trash
	TxEngine    *transaction.Engine
	Fuse        *recovery.Fuse
	Canon       *canonicalize.Service
	Decision    *decision.API
	View        *libraryview.View
	Sentinel    *sentinel.Sentinel
	Scheduler   *scheduler.Scheduler
	ConfigDir   string
	LibraryRoot string
	Out         io.Writer
	Err         io.Writer
}

// AppProvider lazily constructs the App on first use: commands that
// don't need the full stack (e.g. --help) never pay to build it.
type AppProvider struct {
	ConfigPath string
	Out        io.Writer
	Err        io.Writer

	once sync.Once
	app  *App
	err  error
}

// Get returns the App, constructing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		p.app, p.err = p.build()
	})
	return p.app, p.err
}

func (p *AppProvider) build() (*App, error) {
	configPath := p.ConfigPath
	if configPath == "" {
		var err error
		configPath, err = config.ConfigFilePath()
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve config file path")
		}
	}

	provider, err := config.NewProvider(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load configuration")
	}
	resolved := provider.Get()
	if len(resolved.LibraryRoots) == 0 {
		return nil, errors.New("no library roots configured; set library_roots in the config file or GALGAME_LIBRARY_ROOTS")
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve config directory")
	}

	log := logging.RootLogger
	if lvl, ok := logging.NameToLevel(resolved.Environment); ok {
		log.SetLevel(lvl)
	}

	j, err := journal.Open(filepath.Join(configDir, "journal.log"), log)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open journal")
	}

	tr := trash.New(configDir, log)
	if _, err := tr.LoadConfig(); err != nil {
		cfg := trash.DefaultConfig()
		cfg.MaxSizeGB = resolved.TrashConfig.MaxSizeGB
		cfg.RetentionDays = resolved.TrashConfig.RetentionDays
		cfg.MinDiskFreeGB = resolved.TrashConfig.MinDiskFreeGB
		if err := tr.SaveConfig(cfg); err != nil {
			return nil, errors.Wrap(err, "unable to initialize trash config")
		}
	}

	// The transaction engine confines every write to a single root.
	// Multiple configured library roots are supported for scanning and
	// watching (Sentinel); the first root hosts all transactional
	// filesystem mutation.
	libraryRoot := resolved.LibraryRoots[0]
	engine := transaction.NewEngine(j, tr, libraryRoot, log)

	fuse := &recovery.Fuse{}
	if _, err := recovery.Run(j, func(entry journal.Entry) error {
		tx := engine.FromEntry(entry)
		return tx.Rollback()
	}, fuse, log); err != nil {
		log.Error(errors.Wrap(err, "boot recovery failed, read-only fuse tripped"))
	}

	dbPath := filepath.Join(configDir, "galcurator.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}

	canon := canonicalize.New(db)
	decisionAPI := decision.New(db, canon, fuse)
	view := libraryview.New(db)
	pipe := pipeline.New(db, log)

	var watchMode kinds.WatchMode
	if err := watchMode.UnmarshalText([]byte(resolved.SentinelMode)); err != nil || !watchMode.Supported() {
		watchMode = kinds.WatchModeRealtime
	}

	sent := sentinel.New(sentinel.Config{
		Roots:    resolved.LibraryRoots,
		Mode:     watchMode,
		Logger:   log,
		Callback: pipe.HandleDirs,
	})

	backupPath := filepath.Join(configDir, "backups", "galcurator-backup.db")
	backupFn := func(ctx context.Context) error {
		return db.Backup(ctx, backupPath)
	}
	sweepRetention := func(now time.Time) error {
		_, err := tr.CleanupByRetention(now)
		return err
	}

	sched := scheduler.New(scheduler.Config{
		LibraryScanInterval: time.Duration(resolved.Scheduler.LibraryScanIntervalSeconds) * time.Second,
		BackupAt:            scheduler.TimeOfDay{Hour: resolved.Scheduler.BackupHour},
		RetentionSweepDay:   time.Weekday(resolved.Scheduler.RetentionSweepDay),
	}, fuse, log, sent.TriggerScan, backupFn, sweepRetention)

	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := p.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	return &App{
		Config:      resolved,
		Log:         log,
		DB:          db,
		Journal:     j,
		Trash:       tr,
		TxEngine:    engine,
		Fuse:        fuse,
		Canon:       canon,
		Decision:    decisionAPI,
		View:        view,
		Sentinel:    sent,
		Scheduler:   sched,
		ConfigDir:   configDir,
		LibraryRoot: libraryRoot,
		Out:         out,
		Err:         errOut,
	}, nil
}

// Proposer builds an organizer.Proposer from the App's naming policy
// (falling back to DefaultPolicy when none is configured).
func (a *App) Proposer() (*organizer.Proposer, error) {
	policy := organizer.DefaultPolicy()
	if a.Config.NamingPolicy != "" {
		loaded, err := organizer.LoadPolicy(a.Config.NamingPolicy)
		if err != nil {
			return nil, err
		}
		policy = loaded
	}
	return organizer.NewProposer(policy), nil
}

// Executor opens the undo log under the config directory and returns an
// organizer.Executor bound to the CLI's single transactional root.
func (a *App) Executor() (*organizer.Executor, error) {
	undo, err := organizer.OpenUndoLog(filepath.Join(a.ConfigDir, "organizer-undo.log"))
	if err != nil {
		return nil, err
	}
	const minFreeBytes = 1 << 30 // 1GiB; trash's default headroom floor is separate (2GB)
	return organizer.NewExecutor(a.TxEngine, undo, minFreeBytes), nil
}

// Close releases resources held open for the process's lifetime.
func (a *App) Close() error {
	return a.DB.Close()
}
