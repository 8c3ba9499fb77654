package diagram

import (
	"encoding/json"
	"strings"
	"testing"
)

func frozen(t *testing.T, cfg Config, build func(b *Builder)) *Diagram {
	t.Helper()
	b := mustBegin(t, cfg)
	build(b)
	d, err := b.Freeze()
	if err != nil {
		t.Fatalf("Freeze() error: %v", err)
	}
	return d
}

func TestDOTStructure(t *testing.T) {
	d := frozen(t, memConfig("Nested"), func(b *Builder) {
		u, _ := b.Node("User", CategoryActor, nil)
		_ = b.EnterCluster("Outer", nil)
		_ = b.EnterCluster("Inner", StyleInvisible)
		db, _ := b.Node("DB", CategoryDatabase, nil)
		_ = b.ExitCluster()
		_ = b.ExitCluster()
		_ = b.Connect(u, db, "reads", Colored("#27AE60", "2.0"))
		_ = b.Link(u, db, "", nil)
	})
	dot := d.DOT()

	wants := []string{
		"digraph G {\n",
		`label="Nested"`,
		"  subgraph cluster_0 {\n",
		"    subgraph cluster_1 {\n",
		`      n1 [fillcolor="#EAF2F8", label="DB", shape="cylinder", style="filled"];`,
		`label="Inner", labeljust="l", pencolor="#AEB6BE", style="invis"`,
		`n0 -> n1 [color="#27AE60", fontcolor="#27AE60", label="reads", penwidth="2.0"];`,
		`n0 -> n1 [dir="none"];`,
	}
	for _, w := range wants {
		if !strings.Contains(dot, w) {
			t.Errorf("DOT missing %q:\n%s", w, dot)
		}
	}
	if strings.Index(dot, "cluster_1") < strings.Index(dot, "cluster_0") {
		t.Error("inner cluster must be nested after its parent")
	}
}

func TestDOTClusterBackgroundByDepth(t *testing.T) {
	d := frozen(t, memConfig("bg"), func(b *Builder) {
		_ = b.EnterCluster("a", nil)
		_ = b.EnterCluster("b", nil)
		_ = b.ExitCluster()
		_ = b.ExitCluster()
	})
	dot := d.DOT()
	for _, bg := range clusterBackgrounds[:2] {
		if !strings.Contains(dot, `bgcolor="`+bg+`"`) {
			t.Errorf("DOT missing background %s:\n%s", bg, dot)
		}
	}
}

func TestDOTLabelAlwaysWins(t *testing.T) {
	d := frozen(t, memConfig("label"), func(b *Builder) {
		_, _ = b.Node("real", CategoryGeneric, Attrs{"label": "fake"})
	})
	if dot := d.DOT(); !strings.Contains(dot, `label="real"`) || strings.Contains(dot, "fake") {
		t.Errorf("node label attribute must not override the label:\n%s", dot)
	}
}

func TestDOTQuotesLabels(t *testing.T) {
	d := frozen(t, memConfig("quote"), func(b *Builder) {
		_, _ = b.Node(`say "hi"`, CategoryGeneric, nil)
	})
	if dot := d.DOT(); !strings.Contains(dot, `label="say \"hi\""`) {
		t.Errorf("label not escaped:\n%s", dot)
	}
}

func TestQuoteDOT(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{"café", `"café"`},
		{"caf\xe9 é", "\"caf\uFFFD é\""},
		{`left\l`, `"left\l"`},
		{"two\nlines", `"two\nlines"`},
		{"crlf\r\n", `"crlf\n"`},
		{`ends\`, `"ends\\"`},
		{`a\\\"b`, `"a\\\\\\\"b"`},
		{`mid\"quote`, `"mid\\\"quote"`},
		{`c:\dir\file`, `"c:\dir\file"`},
		{"", `""`},
	}
	for _, tt := range tests {
		if got := quoteDOT(tt.in); got != tt.want {
			t.Errorf("quoteDOT(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDOTKeepsGraphvizEscapes(t *testing.T) {
	d := frozen(t, memConfig("escapes"), func(b *Builder) {
		_, _ = b.Node(`first\lsecond\l`, CategoryGeneric, nil)
	})
	if dot := d.DOT(); !strings.Contains(dot, `label="first\lsecond\l"`) {
		t.Errorf("backslash escapes altered:\n%s", dot)
	}
}

func TestDOTGlobalAttrsOverrideDefaults(t *testing.T) {
	cfg := memConfig("globals")
	cfg.GraphAttrs = Attrs{"rankdir": "TB"}
	cfg.EdgeAttrs = Attrs{"color": "#000000"}
	d := frozen(t, cfg, func(b *Builder) {})
	dot := d.DOT()
	if !strings.Contains(dot, `rankdir="TB"`) || strings.Contains(dot, `rankdir="LR"`) {
		t.Errorf("graph attrs not applied:\n%s", dot)
	}
	if !strings.Contains(dot, `edge [color="#000000"]`) {
		t.Errorf("edge attrs not applied:\n%s", dot)
	}
}

func TestDOTDeterministic(t *testing.T) {
	build := func(b *Builder) {
		var prev NodeID
		for i := range 5 {
			_ = b.EnterCluster("c", Attrs{"style": "dashed", "color": "#111111"})
			n, _ := b.Node("n", CategoryService, Attrs{"tooltip": "x", "penwidth": "1"})
			if i > 0 {
				_ = b.Connect(prev, n, "", nil)
			}
			prev = n
		}
		for range 5 {
			_ = b.ExitCluster()
		}
	}
	first := frozen(t, memConfig("det"), build).DOT()
	for range 10 {
		if got := frozen(t, memConfig("det"), build).DOT(); got != first {
			t.Fatalf("DOT output not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestJSON(t *testing.T) {
	d := frozen(t, memConfig("json"), func(b *Builder) {
		a, _ := b.Node("A", "", nil)
		_ = b.EnterCluster("C", nil)
		c, _ := b.Node("B", CategoryStorage, nil)
		_ = b.ExitCluster()
		_ = b.Link(a, c, "sync", nil)
	})
	data, err := d.JSON()
	if err != nil {
		t.Fatal(err)
	}

	var got jsonDiagram
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	if got.ID != d.ID().String() || got.Title != "json" {
		t.Errorf("id/title = %q/%q", got.ID, got.Title)
	}
	if len(got.Nodes) != 2 || got.Nodes[1].Cluster != "cluster_0" || got.Nodes[1].Depth != 1 {
		t.Errorf("nodes = %+v", got.Nodes)
	}
	if got.Nodes[0].Category != CategoryGeneric || got.Nodes[0].Cluster != "root" {
		t.Errorf("root node = %+v", got.Nodes[0])
	}
	if len(got.Clusters) != 1 || got.Clusters[0].Parent != "root" {
		t.Errorf("clusters = %+v", got.Clusters)
	}
	if len(got.Edges) != 1 || got.Edges[0].Directed || got.Edges[0].Label != "sync" {
		t.Errorf("edges = %+v", got.Edges)
	}
}

func TestJobCarriesJSONOnlyWhenRequested(t *testing.T) {
	d := frozen(t, memConfig("job"), func(b *Builder) {})
	job, err := d.Job()
	if err != nil {
		t.Fatal(err)
	}
	if job.JSON != nil {
		t.Error("JSON should be omitted unless requested")
	}
	if job.Title != "job" || job.DOT == "" || job.Engine == "" {
		t.Errorf("job = %+v", job)
	}
}
