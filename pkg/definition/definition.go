// Package definition reads declarative diagram files and replays them
// through a [diagram.Builder].
//
// A definition mirrors the builder: a title, output settings, global
// attribute tables, a tree of clusters each holding nodes and nested
// clusters, and a flat list of edges that reference nodes by a
// definition-local id. TOML and YAML files decode into the same structure:
//
//	title = "Checkout"
//	formats = ["svg", "png"]
//
//	[[nodes]]
//	id = "user"
//	label = "Customer"
//	category = "actor"
//
//	[[clusters]]
//	name = "Backend"
//
//	  [[clusters.nodes]]
//	  id = "api"
//	  label = "API"
//	  category = "service"
//
//	[[edges]]
//	from = "user"
//	to = "api"
//	label = "HTTPS"
//
// Within a scope, nodes are declared before sub-clusters.
package definition

import (
	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/render"
)

// Definition is a declarative diagram.
type Definition struct {
	Title string `toml:"title" yaml:"title" json:"title"`

	// Filename is the output base path. Defaults to a name derived from Title.
	Filename string `toml:"filename,omitempty" yaml:"filename,omitempty" json:"filename,omitempty"`

	Formats []string `toml:"formats,omitempty" yaml:"formats,omitempty" json:"formats,omitempty"`
	Engine  string   `toml:"engine,omitempty" yaml:"engine,omitempty" json:"engine,omitempty"`
	Scale   float64  `toml:"scale,omitempty" yaml:"scale,omitempty" json:"scale,omitempty"`

	Graph diagram.Attrs `toml:"graph,omitempty" yaml:"graph,omitempty" json:"graph,omitempty"`
	Node  diagram.Attrs `toml:"node,omitempty" yaml:"node,omitempty" json:"node,omitempty"`
	Edge  diagram.Attrs `toml:"edge,omitempty" yaml:"edge,omitempty" json:"edge,omitempty"`

	Nodes    []NodeDef    `toml:"nodes,omitempty" yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Clusters []ClusterDef `toml:"clusters,omitempty" yaml:"clusters,omitempty" json:"clusters,omitempty"`
	Edges    []EdgeDef    `toml:"edges,omitempty" yaml:"edges,omitempty" json:"edges,omitempty"`
}

// NodeDef declares a node. ID is only needed if an edge refers to the node.
type NodeDef struct {
	ID       string           `toml:"id,omitempty" yaml:"id,omitempty" json:"id,omitempty"`
	Label    string           `toml:"label,omitempty" yaml:"label,omitempty" json:"label,omitempty"`
	Category diagram.Category `toml:"category,omitempty" yaml:"category,omitempty" json:"category,omitempty"`

	// Style names a preset merged under Attrs, e.g. "network-boundary".
	Style string        `toml:"style,omitempty" yaml:"style,omitempty" json:"style,omitempty"`
	Attrs diagram.Attrs `toml:"attrs,omitempty" yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// ClusterDef declares a cluster and its contents.
type ClusterDef struct {
	Name     string        `toml:"name" yaml:"name" json:"name"`
	Style    string        `toml:"style,omitempty" yaml:"style,omitempty" json:"style,omitempty"`
	Attrs    diagram.Attrs `toml:"attrs,omitempty" yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Nodes    []NodeDef     `toml:"nodes,omitempty" yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Clusters []ClusterDef  `toml:"clusters,omitempty" yaml:"clusters,omitempty" json:"clusters,omitempty"`
}

// EdgeDef declares an edge between two node ids.
type EdgeDef struct {
	From  string `toml:"from" yaml:"from" json:"from"`
	To    string `toml:"to" yaml:"to" json:"to"`
	Label string `toml:"label,omitempty" yaml:"label,omitempty" json:"label,omitempty"`

	// Directed defaults to true.
	Directed *bool `toml:"directed,omitempty" yaml:"directed,omitempty" json:"directed,omitempty"`

	// Color and Penwidth are shorthands for a colored line and label.
	Color    string `toml:"color,omitempty" yaml:"color,omitempty" json:"color,omitempty"`
	Penwidth string `toml:"penwidth,omitempty" yaml:"penwidth,omitempty" json:"penwidth,omitempty"`

	Style string        `toml:"style,omitempty" yaml:"style,omitempty" json:"style,omitempty"`
	Attrs diagram.Attrs `toml:"attrs,omitempty" yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// IsDirected reports whether the edge is directed.
func (e EdgeDef) IsDirected() bool {
	return e.Directed == nil || *e.Directed
}

// Config returns the diagram configuration described by d.
// Callers may adjust it (output path, formats) before passing it to Build.
func (d *Definition) Config() diagram.Config {
	return diagram.Config{
		Title:      d.Title,
		OutputPath: d.Filename,
		Options: render.Options{
			Formats: append([]string(nil), d.Formats...),
			Engine:  render.Engine(d.Engine),
			Scale:   d.Scale,
		},
		GraphAttrs: d.Graph,
		NodeAttrs:  d.Node,
		EdgeAttrs:  d.Edge,
	}
}

// Stats counts declared nodes, clusters and edges.
func (d *Definition) Stats() diagram.Stats {
	s := diagram.Stats{Nodes: len(d.Nodes), Edges: len(d.Edges)}
	var walk func(cs []ClusterDef, depth int)
	walk = func(cs []ClusterDef, depth int) {
		for _, c := range cs {
			s.Clusters++
			s.Nodes += len(c.Nodes)
			if len(c.Nodes) > 0 {
				s.MaxDepth = max(s.MaxDepth, depth)
			}
			walk(c.Clusters, depth+1)
		}
	}
	walk(d.Clusters, 1)
	return s
}
