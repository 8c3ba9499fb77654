package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/stackdiagram/pkg/errors"
	"github.com/matzehuels/stackdiagram/pkg/render"
)

// Built-in global defaults, overridden by Config attributes.
var (
	defaultGraphAttrs = Attrs{
		"fontname":  "Sans-Serif",
		"fontsize":  "15",
		"fontcolor": "#2D3436",
		"labelloc":  "t",
		"pad":       "2.0",
		"splines":   "ortho",
		"nodesep":   "0.60",
		"ranksep":   "0.75",
		"rankdir":   "LR",
	}
	defaultNodeAttrs = Attrs{
		"fontname":  "Sans-Serif",
		"fontsize":  "13",
		"fontcolor": "#2D3436",
	}
	defaultEdgeAttrs = Attrs{
		"color": "#7B8894",
	}
	defaultClusterAttrs = Attrs{
		"style":     "rounded",
		"labeljust": "l",
		"pencolor":  "#AEB6BE",
		"fontname":  "Sans-Serif",
		"fontsize":  "12",
	}
)

// clusterBackgrounds cycles with cluster depth.
var clusterBackgrounds = []string{"#E5F5FD", "#EBF3E7", "#ECE8F6", "#FDF7E3"}

// DOT serializes the diagram to Graphviz DOT. The output is deterministic:
// members appear in declaration order and attributes in sorted order.
//
// Clusters become "subgraph cluster_N" blocks; undirected edges are drawn
// with dir="none".
func (d *Diagram) DOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")

	cfg := d.config
	graphAttrs := defaultGraphAttrs.Merge(Attrs{"label": cfg.Title}, cfg.GraphAttrs)
	writeAttrStmt(&buf, 1, "graph", graphAttrs)
	writeAttrStmt(&buf, 1, "node", defaultNodeAttrs.Merge(cfg.NodeAttrs))
	writeAttrStmt(&buf, 1, "edge", defaultEdgeAttrs.Merge(cfg.EdgeAttrs))
	buf.WriteString("\n")

	d.writeMembers(&buf, d.root, 1)

	if len(d.edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range d.edges {
		attrs := e.Attrs.Merge()
		if e.Label != "" {
			attrs["label"] = e.Label
		}
		if !e.Directed {
			if _, ok := attrs["dir"]; !ok {
				attrs["dir"] = "none"
			}
		}
		fmt.Fprintf(&buf, "  %s -> %s%s;\n", e.From, e.To, fmtAttrList(attrs))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (d *Diagram) writeMembers(buf *bytes.Buffer, members []member, level int) {
	indent := strings.Repeat("  ", level)
	for _, m := range members {
		if m.isNode {
			n := d.nodes[m.node.seq]
			fmt.Fprintf(buf, "%s%s%s;\n", indent, n.ID, fmtAttrList(nodeAttrs(n)))
			continue
		}

		c := d.clusters[m.cluster]
		fmt.Fprintf(buf, "%ssubgraph %s {\n", indent, c.ID)
		writeAttrStmt(buf, level+1, "graph", clusterAttrs(c))
		d.writeMembers(buf, c.members, level+1)
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func nodeAttrs(n Node) Attrs {
	return n.Category.Attrs().Merge(n.Attrs, Attrs{"label": n.Label})
}

func clusterAttrs(c Cluster) Attrs {
	bg := clusterBackgrounds[(c.Depth-1)%len(clusterBackgrounds)]
	return defaultClusterAttrs.Merge(Attrs{"label": c.Name, "bgcolor": bg}, c.Attrs)
}

func writeAttrStmt(buf *bytes.Buffer, level int, kind string, attrs Attrs) {
	if len(attrs) == 0 {
		return
	}
	fmt.Fprintf(buf, "%s%s%s;\n", strings.Repeat("  ", level), kind, fmtAttrList(attrs))
}

// fmtAttrList formats attrs as ` [k="v", ...]`, or "" when empty.
func fmtAttrList(attrs Attrs) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range attrs.Keys() {
		parts = append(parts, k+"="+quoteDOT(attrs[k]))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// quoteDOT returns s as a DOT quoted string. Backslashes pass through so
// Graphviz escapes such as \l and \N stay usable, except a run of them right
// before a double quote or the closing quote, which is doubled so the quote
// keeps its meaning. Newlines become \n and invalid UTF-8 becomes U+FFFD.
func quoteDOT(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	var buf strings.Builder
	buf.Grow(len(s) + 2)
	buf.WriteByte('"')
	slashes := 0
	flush := func(double bool) {
		if double {
			slashes *= 2
		}
		buf.WriteString(strings.Repeat(`\`, slashes))
		slashes = 0
	}
	for _, r := range s {
		switch r {
		case '\\':
			slashes++
		case '"':
			flush(true)
			buf.WriteString(`\"`)
		case '\n':
			flush(false)
			buf.WriteString(`\n`)
		case '\r':
		default:
			flush(false)
			buf.WriteRune(r)
		}
	}
	flush(true)
	buf.WriteByte('"')
	return buf.String()
}

// =============================================================================
// JSON description
// =============================================================================

type jsonDiagram struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Stats    Stats         `json:"stats"`
	Nodes    []jsonNode    `json:"nodes"`
	Clusters []jsonCluster `json:"clusters"`
	Edges    []jsonEdge    `json:"edges"`
}

type jsonNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Cluster  string   `json:"cluster"`
	Depth    int      `json:"depth"`
	Attrs    Attrs    `json:"attrs,omitempty"`
}

type jsonCluster struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Depth  int    `json:"depth"`
	Attrs  Attrs  `json:"attrs,omitempty"`
}

type jsonEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Label    string `json:"label,omitempty"`
	Directed bool   `json:"directed"`
	Attrs    Attrs  `json:"attrs,omitempty"`
}

// JSON returns an indented structural description of the diagram: nodes with
// their cluster and depth, clusters with their parent, and edges.
func (d *Diagram) JSON() ([]byte, error) {
	out := jsonDiagram{
		ID:       d.id.String(),
		Title:    d.config.Title,
		Stats:    d.Stats(),
		Nodes:    make([]jsonNode, len(d.nodes)),
		Clusters: make([]jsonCluster, len(d.clusters)),
		Edges:    make([]jsonEdge, len(d.edges)),
	}
	for i, n := range d.nodes {
		out.Nodes[i] = jsonNode{
			ID:       n.ID.String(),
			Label:    n.Label,
			Category: n.Category,
			Cluster:  n.Cluster.String(),
			Depth:    n.Depth,
			Attrs:    n.Attrs,
		}
	}
	for i, c := range d.clusters {
		out.Clusters[i] = jsonCluster{
			ID:     c.ID.String(),
			Name:   c.Name,
			Parent: c.Parent.String(),
			Depth:  c.Depth,
			Attrs:  c.Attrs,
		}
	}
	for i, e := range d.edges {
		out.Edges[i] = jsonEdge{
			From:     e.From.String(),
			To:       e.To.String(),
			Label:    e.Label,
			Directed: e.Directed,
			Attrs:    e.Attrs,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Job returns the rendering job for the diagram.
func (d *Diagram) Job() (render.Job, error) {
	job := render.Job{
		Title:   d.config.Title,
		DOT:     d.DOT(),
		Options: d.config.Options,
	}
	job.Formats = append([]string(nil), d.config.Formats...)
	for _, f := range job.Formats {
		if f == render.FormatJSON {
			data, err := d.JSON()
			if err != nil {
				return render.Job{}, errors.Wrap(errors.ErrCodeInternal, err, "describe %q", d.config.Title)
			}
			job.JSON = data
		}
	}
	return job, nil
}
