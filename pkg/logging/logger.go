package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)
}

// writer splits a byte stream into lines and forwards each complete line to
// a callback. Used to adapt io.Writer consumers (e.g. exec.Cmd.Stdout) onto
// a Logger.
type writer struct {
	callback func(string)
	mu       sync.Mutex
	buffer   []byte
}

func trimCarriageReturn(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func (w *writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = append(w.buffer, p...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(p), nil
}

// Logger is a leveled, prefix-chaining logger. A nil *Logger is valid and
// silently discards all output, so components may hold a *Logger field
// without needing to nil-check at every call site beyond the methods
// themselves.
type Logger struct {
	prefix string
	level  Level
}

// RootLogger is the top-level logger that all component subloggers derive
// from. Its level is set once at process startup from resolved
// configuration.
var RootLogger = &Logger{level: LevelInfo}

// SetLevel adjusts the verbosity of this logger. Subloggers copy the level
// when they are created, so subloggers already derived from this logger
// keep their previous level.
func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.level = level
	}
}

// Sublogger creates a logger scoped under this one with a dotted prefix.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, level: l.level}
}

func (l *Logger) enabled(level Level) bool {
	return l != nil && l.level >= level
}

func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Info logs at LevelInfo.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof logs at LevelInfo with formatting.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf logs at LevelDebug with formatting.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Warn logs a non-fatal error in yellow.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelWarn) {
		l.output(3, color.YellowString("warning: %v", err))
	}
}

// Warnf logs a formatted warning in yellow.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(3, color.YellowString("warning: "+format, v...))
	}
}

// Error logs a fatal-adjacent error in red. Errors are always logged unless
// the logger level is LevelDisabled.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.output(3, color.RedString("error: %v", err))
	}
}

// Writer returns an io.Writer that forwards complete lines to Info.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: l.Info}
}
