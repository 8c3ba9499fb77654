package definition

import (
	"fmt"
	"strings"

	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/errors"
	"github.com/matzehuels/stackdiagram/pkg/render"
)

// Validate checks the definition without building it: the title is set,
// render options and style names are known, node ids are unique, and every
// edge refers to declared ids.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid("title", "title is required")
	}
	if len(d.Formats) > 0 {
		if err := render.ValidateFormats(d.Formats); err != nil {
			return err
		}
	}
	if d.Engine != "" {
		if err := render.ValidateEngine(render.Engine(d.Engine)); err != nil {
			return err
		}
	}

	ids := make(map[string]string)
	if err := checkNodes("nodes", d.Nodes, ids); err != nil {
		return err
	}
	if err := checkClusters("clusters", d.Clusters, ids); err != nil {
		return err
	}

	for i, e := range d.Edges {
		path := fmt.Sprintf("edges[%d]", i)
		for _, ref := range []string{e.From, e.To} {
			if ref == "" {
				return invalid(path, "edge needs both from and to")
			}
			if _, ok := ids[ref]; !ok {
				return invalid(path, "unknown node id %q", ref)
			}
		}
		if err := checkStyle(path, e.Style); err != nil {
			return err
		}
	}
	return nil
}

func checkNodes(path string, nodes []NodeDef, ids map[string]string) error {
	for i, n := range nodes {
		p := fmt.Sprintf("%s[%d]", path, i)
		if n.ID != "" {
			if prev, dup := ids[n.ID]; dup {
				return invalid(p, "duplicate node id %q (first declared at %s)", n.ID, prev)
			}
			ids[n.ID] = p
		}
		if n.Category != "" && !n.Category.Valid() {
			return invalid(p, "unknown category %q", n.Category)
		}
		if err := checkStyle(p, n.Style); err != nil {
			return err
		}
	}
	return nil
}

func checkClusters(path string, clusters []ClusterDef, ids map[string]string) error {
	for i, c := range clusters {
		p := fmt.Sprintf("%s[%d]", path, i)
		if err := checkStyle(p, c.Style); err != nil {
			return err
		}
		if err := checkNodes(p+".nodes", c.Nodes, ids); err != nil {
			return err
		}
		if err := checkClusters(p+".clusters", c.Clusters, ids); err != nil {
			return err
		}
	}
	return nil
}

func checkStyle(path, name string) error {
	if name == "" {
		return nil
	}
	if _, err := diagram.Preset(name); err != nil {
		return invalid(path, "unknown style %q", name)
	}
	return nil
}

func invalid(path, format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidDefinition, "%s: %s", path, fmt.Sprintf(format, args...))
}
