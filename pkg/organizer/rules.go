package organizer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rule classifies one entry against a category by matching its basename
// against a glob pattern, in the style of mutagen's ignore-pattern
// configuration (pkg/synchronization/core/ignore): an ordered list of
// patterns, first match wins.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// NamingPolicy is the pluggable injectable standard the organizer
// consumes rather than hard-coding. DestTemplate
// is a destination path template relative to the organizer's destination
// root; it may reference {{.Category}} and {{.Name}}, substituted
// literally (not via text/template, to keep the policy file declarative).
type NamingPolicy struct {
	Rules           []Rule `yaml:"rules"`
	DefaultCategory string `yaml:"default_category"`
	DestTemplate    string `yaml:"dest_template"`
}

// DefaultPolicy classifies nothing specially and files everything under a
// single "Uncategorized" bucket, named by its original basename.
func DefaultPolicy() NamingPolicy {
	return NamingPolicy{
		DefaultCategory: "Uncategorized",
		DestTemplate:    "{{.Category}}/{{.Name}}",
	}
}

// LoadPolicy reads a YAML naming policy from path.
func LoadPolicy(path string) (NamingPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NamingPolicy{}, errors.Wrapf(err, "unable to read naming policy %q", path)
	}
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return NamingPolicy{}, errors.Wrapf(err, "unable to parse naming policy %q", path)
	}
	return policy, nil
}

// Classify returns the category for name, the first matching rule's
// category, or DefaultCategory if nothing matches.
func (p NamingPolicy) Classify(name string) string {
	for _, r := range p.Rules {
		ok, err := filepath.Match(r.Pattern, name)
		if err == nil && ok {
			return r.Category
		}
	}
	return p.DefaultCategory
}

// DestPath renders DestTemplate for the given category and entry name.
func (p NamingPolicy) DestPath(destRoot, category, name string) string {
	rel := p.DestTemplate
	rel = strings.ReplaceAll(rel, "{{.Category}}", category)
	rel = strings.ReplaceAll(rel, "{{.Name}}", name)
	return filepath.Join(destRoot, rel)
}
