// Package catalog holds built-in diagrams that are defined in Go rather than
// in definition files.
package catalog

import (
	"slices"
	"strings"

	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/errors"
)

// Entry is a named built-in diagram.
type Entry struct {
	Name        string
	Description string

	config func() diagram.Config
	build  func(b *diagram.Builder) error
}

// Config returns a fresh copy of the entry's default configuration.
func (e Entry) Config() diagram.Config {
	return e.config()
}

// Build begins a diagram with cfg and draws the entry into it.
// The returned builder has no open clusters.
func (e Entry) Build(cfg diagram.Config) (*diagram.Builder, error) {
	b, err := diagram.Begin(cfg)
	if err != nil {
		return nil, err
	}
	if err := e.build(b); err != nil {
		return nil, err
	}
	return b, nil
}

var entries = map[string]Entry{}

func register(e Entry) {
	entries[e.Name] = e
}

// Names returns the names of all entries in sorted order.
func Names() []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns all entries sorted by name.
func All() []Entry {
	out := make([]Entry, 0, len(entries))
	for _, name := range Names() {
		out = append(out, entries[name])
	}
	return out
}

// Lookup returns the entry with the given name (case-insensitive).
func Lookup(name string) (Entry, error) {
	e, ok := entries[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, errors.New(errors.ErrCodeNotFound,
			"no built-in diagram named %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}
