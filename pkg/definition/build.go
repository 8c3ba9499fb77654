package definition

import (
	"github.com/matzehuels/stackdiagram/pkg/diagram"
)

// Build begins a diagram with cfg and replays d into it. The returned
// builder has no open clusters and is ready for End, Render or Freeze.
//
// cfg is usually d.Config(), possibly adjusted by the caller.
func (d *Definition) Build(cfg diagram.Config) (*diagram.Builder, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	b, err := diagram.Begin(cfg)
	if err != nil {
		return nil, err
	}

	r := replayer{b: b, ids: make(map[string]diagram.NodeID)}
	if err := r.nodes(d.Nodes); err != nil {
		return nil, err
	}
	if err := r.clusters(d.Clusters); err != nil {
		return nil, err
	}
	for _, e := range d.Edges {
		opts := diagram.EdgeOptions{
			Label:    e.Label,
			Attrs:    edgeAttrs(e),
			Directed: e.IsDirected(),
		}
		if err := b.Edge(r.ids[e.From], r.ids[e.To], opts); err != nil {
			return nil, err
		}
	}
	return b, nil
}

type replayer struct {
	b   *diagram.Builder
	ids map[string]diagram.NodeID
}

func (r *replayer) nodes(nodes []NodeDef) error {
	for _, n := range nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		id, err := r.b.Node(label, n.Category, withPreset(n.Style, n.Attrs))
		if err != nil {
			return err
		}
		if n.ID != "" {
			r.ids[n.ID] = id
		}
	}
	return nil
}

func (r *replayer) clusters(clusters []ClusterDef) error {
	for _, c := range clusters {
		err := r.b.Cluster(c.Name, withPreset(c.Style, c.Attrs), func() error {
			if err := r.nodes(c.Nodes); err != nil {
				return err
			}
			return r.clusters(c.Clusters)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// withPreset merges attrs over the named preset. Unknown names are caught
// by Validate.
func withPreset(style string, attrs diagram.Attrs) diagram.Attrs {
	if style == "" {
		return attrs
	}
	p, _ := diagram.Preset(style)
	return p.Merge(attrs)
}

func edgeAttrs(e EdgeDef) diagram.Attrs {
	a := withPreset(e.Style, nil)
	if e.Color != "" {
		a = a.Merge(diagram.Colored(e.Color, e.Penwidth))
	} else if e.Penwidth != "" {
		a = a.Merge(diagram.Attrs{"penwidth": e.Penwidth})
	}
	return a.Merge(e.Attrs)
}
