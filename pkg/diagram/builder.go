package diagram

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/stackdiagram/pkg/errors"
	"github.com/matzehuels/stackdiagram/pkg/observability"
	"github.com/matzehuels/stackdiagram/pkg/render"
)

// Config is the global configuration of a diagram.
type Config struct {
	// Title is drawn above the diagram and names the default output file.
	Title string

	// OutputPath is the base path of the output files, without extension.
	// Defaults to the title with whitespace and path separators replaced by "_".
	OutputPath string

	// Formats, Engine and Scale control rendering.
	render.Options

	// GraphAttrs, NodeAttrs and EdgeAttrs are global Graphviz attributes
	// applied on top of the built-in defaults.
	GraphAttrs Attrs
	NodeAttrs  Attrs
	EdgeAttrs  Attrs

	// NoOutput marks a diagram that is only inspected or rendered in memory.
	// The output path is not checked, and End is a contract violation.
	NoOutput bool

	Logger *log.Logger
}

// DefaultOutputPath derives an output base path from a title.
func DefaultOutputPath(title string) string {
	name := strings.Join(strings.Fields(title), "_")
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func (c *Config) setDefaults() {
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath(c.Title)
	}
	c.Options.SetDefaults()
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "diagram title cannot be empty")
	}
	if err := c.Options.Validate(); err != nil {
		return err
	}
	for _, a := range []Attrs{c.GraphAttrs, c.NodeAttrs, c.EdgeAttrs} {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	if c.NoOutput {
		return nil
	}
	return render.CheckWritable(c.OutputPath)
}

// Output is the result of rendering a diagram.
type Output struct {
	Diagram   *Diagram
	Artifacts render.Artifacts

	// Files lists the written paths in format order. Empty for in-memory renders.
	Files []string

	Duration time.Duration
}

// Builder assembles a diagram. Clusters are opened and closed on an explicit
// scope stack; nodes attach to the innermost open cluster.
//
// The first contract violation is sticky: it is returned by the failing call
// and again by [Builder.Err], [Builder.Freeze], [Builder.Render] and
// [Builder.End], so a malformed diagram is never rendered.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	d      *Diagram
	stack  []ClusterID
	ended  bool
	err    error
	logger *log.Logger
}

// Begin opens a new diagram. It fails with a configuration error if the
// title is empty, a format or engine is unsupported, a global attribute is
// malformed, or (unless cfg.NoOutput) the output path is not writable.
func Begin(cfg Config) (*Builder, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := &Builder{
		d: &Diagram{
			id:     uuid.New(),
			config: cfg,
		},
		logger: cfg.Logger,
	}
	b.logger.Debug("begin diagram", "title", cfg.Title, "output", cfg.OutputPath, "formats", cfg.Formats)
	return b, nil
}

// Err returns the first error recorded by the builder, if any.
func (b *Builder) Err() error {
	return b.err
}

// Depth returns the number of currently open clusters.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Current returns the innermost open cluster, or [Root].
func (b *Builder) Current() ClusterID {
	if len(b.stack) == 0 {
		return Root
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

func (b *Builder) checkOpen() error {
	if b.ended {
		return b.fail(errors.Contract("diagram %q already ended", b.d.config.Title))
	}
	return nil
}

func (b *Builder) addMember(m member) {
	if cur := b.Current(); cur != Root {
		c := &b.d.clusters[cur]
		c.members = append(c.members, m)
		return
	}
	b.d.root = append(b.d.root, m)
}

// EnterCluster opens a new cluster nested in the current scope.
// Every EnterCluster must be paired with an [Builder.ExitCluster].
func (b *Builder) EnterCluster(name string, attrs Attrs) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if err := attrs.Validate(); err != nil {
		return b.fail(errors.WithContext(err, "cluster %q", name))
	}

	id := ClusterID(len(b.d.clusters))
	b.d.clusters = append(b.d.clusters, Cluster{
		ID:     id,
		Name:   name,
		Attrs:  attrs.Merge(),
		Parent: b.Current(),
		Depth:  len(b.stack) + 1,
	})
	b.addMember(member{cluster: id})
	b.stack = append(b.stack, id)
	return nil
}

// ExitCluster closes the innermost open cluster. Calling it with no open
// cluster is a contract violation.
func (b *Builder) ExitCluster() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if len(b.stack) == 0 {
		return b.fail(errors.Contract("exit cluster with no open cluster"))
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// Cluster opens a cluster, runs fn inside it, and closes it again.
// The cluster is closed even if fn fails; fn's error takes precedence.
func (b *Builder) Cluster(name string, attrs Attrs, fn func() error) error {
	if err := b.EnterCluster(name, attrs); err != nil {
		return err
	}
	ferr := fn()
	if err := b.ExitCluster(); err != nil && ferr == nil {
		return err
	}
	return ferr
}

// Node creates a node in the current scope and returns its handle.
// Labels need not be unique. An empty category means [CategoryGeneric].
func (b *Builder) Node(label string, category Category, attrs Attrs) (NodeID, error) {
	if err := b.checkOpen(); err != nil {
		return NodeID{}, err
	}
	if category == "" {
		category = CategoryGeneric
	}
	if !category.Valid() {
		return NodeID{}, b.fail(errors.New(errors.ErrCodeInvalidStyle, "node %q: unknown category %q", label, category))
	}
	if err := attrs.Validate(); err != nil {
		return NodeID{}, b.fail(errors.WithContext(err, "node %q", label))
	}

	id := NodeID{diagram: b.d.id, seq: len(b.d.nodes)}
	b.d.nodes = append(b.d.nodes, Node{
		ID:       id,
		Label:    label,
		Category: category,
		Attrs:    attrs.Merge(),
		Cluster:  b.Current(),
		Depth:    len(b.stack),
	})
	b.addMember(member{node: id, isNode: true})
	return id, nil
}

// EdgeOptions describes an edge beyond its endpoints.
type EdgeOptions struct {
	Label    string
	Attrs    Attrs
	Directed bool
}

// Edge records a relationship between two node handles created by this
// builder. Handles from another diagram, or the zero handle, are contract
// violations.
func (b *Builder) Edge(from, to NodeID, opts EdgeOptions) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	for _, id := range []NodeID{from, to} {
		if err := b.checkHandle(id); err != nil {
			return b.fail(err)
		}
	}
	if err := opts.Attrs.Validate(); err != nil {
		return b.fail(errors.WithContext(err, "edge %s -> %s", from, to))
	}

	b.d.edges = append(b.d.edges, Edge{
		From:     from,
		To:       to,
		Label:    opts.Label,
		Attrs:    opts.Attrs.Merge(),
		Directed: opts.Directed,
	})
	return nil
}

// Connect records a directed edge from -> to.
func (b *Builder) Connect(from, to NodeID, label string, attrs Attrs) error {
	return b.Edge(from, to, EdgeOptions{Label: label, Attrs: attrs, Directed: true})
}

// Link records an undirected edge between a and c.
func (b *Builder) Link(a, c NodeID, label string, attrs Attrs) error {
	return b.Edge(a, c, EdgeOptions{Label: label, Attrs: attrs})
}

func (b *Builder) checkHandle(id NodeID) error {
	switch {
	case id.IsZero():
		return errors.Contract("zero node handle used as edge endpoint")
	case id.diagram != b.d.id:
		return errors.Contract("node handle %s belongs to another diagram", id)
	case id.seq < 0 || id.seq >= len(b.d.nodes):
		return errors.Contract("unknown node handle %s", id)
	}
	return nil
}

// Freeze closes the diagram scope without rendering and returns the finished
// diagram. It fails if a contract violation was recorded or clusters are
// still open. After Freeze every builder operation fails.
func (b *Builder) Freeze() (*Diagram, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if b.err != nil {
		b.ended = true
		return nil, b.err
	}
	if n := len(b.stack); n > 0 {
		inner := b.d.clusters[b.stack[n-1]].Name
		b.ended = true
		return nil, b.fail(errors.Contract("%d cluster(s) still open at end of diagram (innermost %q)", n, inner))
	}
	b.ended = true
	return b.d, nil
}

// Render freezes the diagram and renders it in memory with r. No files are
// written. Rendering failures are returned as a single terminal error.
func (b *Builder) Render(ctx context.Context, r render.Renderer) (*Output, error) {
	d, err := b.Freeze()
	if err != nil {
		return nil, err
	}
	s := d.Stats()
	observability.Render().OnBuildComplete(ctx, d.Title(), s.Nodes, s.Clusters, s.Edges)

	start := time.Now()
	job, err := d.Job()
	if err != nil {
		return nil, err
	}
	artifacts, err := r.Render(ctx, job)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeRender, err, "render %q", d.Title())
		}
		return nil, err
	}
	for _, f := range job.Formats {
		if _, ok := artifacts[f]; !ok {
			return nil, errors.New(errors.ErrCodeRender, "renderer produced no %s artifact", f)
		}
	}

	b.logger.Debug("rendered diagram", "title", d.Title(), "nodes", s.Nodes, "clusters", s.Clusters, "edges", s.Edges)
	return &Output{Diagram: d, Artifacts: artifacts, Duration: time.Since(start)}, nil
}

// End closes the diagram, renders it with r, and writes one file per
// configured format. It is the only step with externally visible effects:
// on any failure no output file is left behind.
func (b *Builder) End(ctx context.Context, r render.Renderer) (*Output, error) {
	if b.d.config.NoOutput && !b.ended {
		return nil, b.fail(errors.Contract("End called on an in-memory diagram; use Render or Freeze"))
	}
	out, err := b.Render(ctx, r)
	if err != nil {
		return nil, err
	}

	cfg := b.d.config
	files, err := render.WriteArtifacts(ctx, cfg.OutputPath, cfg.Formats, out.Artifacts)
	if err != nil {
		return nil, err
	}
	out.Files = files
	b.logger.Debug("end diagram", "title", cfg.Title, "files", files)
	return out, nil
}
