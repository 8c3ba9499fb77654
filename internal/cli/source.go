package cli

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/stackdiagram/pkg/catalog"
	"github.com/matzehuels/stackdiagram/pkg/definition"
	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/errors"
)

// source is a diagram to draw: a definition file or a catalog entry.
type source struct {
	name   string
	config diagram.Config
	build  func(cfg diagram.Config) (*diagram.Builder, error)
}

// loadSource resolves arg to a definition file if one exists at that path,
// otherwise to a catalog entry.
func loadSource(arg string) (*source, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return loadDefinition(arg)
	}
	if e, err := catalog.Lookup(arg); err == nil {
		return &source{name: e.Name, config: e.Config(), build: e.Build}, nil
	}
	if _, err := definition.DetectFormat(arg); err == nil {
		// Looks like a file that does not exist; let Load report it.
		return loadDefinition(arg)
	}
	return nil, errors.New(errors.ErrCodeNotFound,
		"%q is neither a definition file nor a built-in diagram (try: %s list)", arg, appName)
}

func loadDefinition(path string) (*source, error) {
	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}
	return &source{name: path, config: def.Config(), build: def.Build}, nil
}

// definitionFiles lists definition files in dir, sorted by name.
func definitionFiles(dir string) []string {
	var files []string
	for _, ext := range definition.Extensions {
		matches, _ := filepath.Glob(filepath.Join(dir, "*"+ext))
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files
}

// freeze builds src in memory and returns the finished diagram.
func (s *source) freeze() (*diagram.Diagram, error) {
	cfg := s.config
	cfg.NoOutput = true
	b, err := s.build(cfg)
	if err != nil {
		return nil, err
	}
	return b.Freeze()
}
