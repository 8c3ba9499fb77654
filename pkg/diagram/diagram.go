package diagram

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID is the handle returned by [Builder.Node]. Node identity is the
// handle, never the label: two nodes with the same label are distinct.
//
// A NodeID is only valid as an edge endpoint within the diagram that created
// it, and only until that diagram is ended.
type NodeID struct {
	diagram uuid.UUID
	seq     int
}

// IsZero reports whether id is the zero handle.
func (id NodeID) IsZero() bool {
	return id.diagram == uuid.Nil
}

// String returns the DOT identifier of the node ("n0", "n1", ...).
func (id NodeID) String() string {
	return fmt.Sprintf("n%d", id.seq)
}

// ClusterID identifies a cluster within its diagram. [Root] is the diagram's
// top-level scope.
type ClusterID int

// Root is the top-level scope of a diagram.
const Root ClusterID = -1

// String returns the DOT subgraph name ("cluster_0", ...), or "root".
func (c ClusterID) String() string {
	if c == Root {
		return "root"
	}
	return fmt.Sprintf("cluster_%d", int(c))
}

// Node is a labeled entity in the graph. Nodes are immutable once created.
type Node struct {
	ID       NodeID
	Label    string
	Category Category
	Attrs    Attrs

	// Cluster is the innermost cluster open when the node was created.
	Cluster ClusterID

	// Depth is the number of clusters open when the node was created.
	Depth int
}

// Cluster is a named grouping of nodes and sub-clusters. Ownership is strictly
// tree-shaped.
type Cluster struct {
	ID     ClusterID
	Name   string
	Attrs  Attrs
	Parent ClusterID

	// Depth is the nesting level of the cluster; top-level clusters have depth 1.
	Depth int

	members []member
}

// Edge is a relationship between two node handles.
type Edge struct {
	From     NodeID
	To       NodeID
	Label    string
	Attrs    Attrs
	Directed bool
}

// member is one entry of a scope, kept in creation order so that
// serialization reproduces the declaration order.
type member struct {
	node    NodeID
	cluster ClusterID
	isNode  bool
}

// Member is a node or a cluster contained in a scope.
// Exactly one of Node and Cluster is non-nil.
type Member struct {
	Node    *Node
	Cluster *Cluster
}

// Stats summarizes the size of a diagram.
type Stats struct {
	Nodes    int `json:"nodes"`
	Clusters int `json:"clusters"`
	Edges    int `json:"edges"`
	MaxDepth int `json:"max_depth"`
}

// Diagram is a finished graph description, produced by [Builder.Freeze] or
// [Builder.End]. It is read-only.
type Diagram struct {
	id       uuid.UUID
	config   Config
	nodes    []Node
	clusters []Cluster
	edges    []Edge
	root     []member
}

// ID returns the diagram's unique identity.
func (d *Diagram) ID() uuid.UUID { return d.id }

// Title returns the diagram title.
func (d *Diagram) Title() string { return d.config.Title }

// Config returns the configuration the diagram was begun with, with defaults applied.
func (d *Diagram) Config() Config { return d.config }

// Nodes returns all nodes in creation order.
func (d *Diagram) Nodes() []Node { return d.nodes }

// Clusters returns all clusters in creation order.
func (d *Diagram) Clusters() []Cluster { return d.clusters }

// Edges returns all edges in creation order.
func (d *Diagram) Edges() []Edge { return d.edges }

// Node returns the node for id, or false if id does not belong to d.
func (d *Diagram) Node(id NodeID) (*Node, bool) {
	if id.diagram != d.id || id.seq < 0 || id.seq >= len(d.nodes) {
		return nil, false
	}
	return &d.nodes[id.seq], true
}

// Cluster returns the cluster for id, or false if it does not exist.
func (d *Diagram) Cluster(id ClusterID) (*Cluster, bool) {
	if id < 0 || int(id) >= len(d.clusters) {
		return nil, false
	}
	return &d.clusters[id], true
}

// Members returns the direct members of scope in declaration order.
// Pass [Root] for the top-level scope.
func (d *Diagram) Members(scope ClusterID) []Member {
	var src []member
	if scope == Root {
		src = d.root
	} else if c, ok := d.Cluster(scope); ok {
		src = c.members
	}
	out := make([]Member, 0, len(src))
	for _, m := range src {
		if m.isNode {
			out = append(out, Member{Node: &d.nodes[m.node.seq]})
		} else {
			out = append(out, Member{Cluster: &d.clusters[m.cluster]})
		}
	}
	return out
}

// Stats returns node, cluster and edge counts and the maximum node depth.
func (d *Diagram) Stats() Stats {
	s := Stats{Nodes: len(d.nodes), Clusters: len(d.clusters), Edges: len(d.edges)}
	for _, n := range d.nodes {
		s.MaxDepth = max(s.MaxDepth, n.Depth)
	}
	return s
}
