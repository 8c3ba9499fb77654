package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackdiagram/pkg/cache"
	"github.com/matzehuels/stackdiagram/pkg/errors"
)

const simpleDOT = `digraph G { a -> b; }`

// memCache is an in-memory cache.Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

// countingConvert returns "<format>@<scale>" and counts calls.
func countingConvert(calls *int) Converter {
	return func(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error) {
		*calls++
		if !bytes.Contains(svg, []byte("<svg")) {
			return nil, fmt.Errorf("not an svg document")
		}
		return []byte(fmt.Sprintf("%s@%.1f", format, scale)), nil
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), simpleDOT, EngineDot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("RenderSVG() output is not SVG: %.200s", svg)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("RenderSVG() viewBox not normalized: %.300s", svg)
	}
}

func TestRenderSVGInvalidEngine(t *testing.T) {
	_, err := RenderSVG(context.Background(), simpleDOT, Engine("spring"))
	if !errors.Is(err, errors.ErrCodeInvalidEngine) {
		t.Errorf("RenderSVG() error = %v, want INVALID_ENGINE", err)
	}
}

func TestGraphvizRenderCachesArtifacts(t *testing.T) {
	c := newMemCache()
	calls := 0
	g := NewGraphviz(c, nil)
	g.Convert = countingConvert(&calls)

	job := Job{Title: "t", DOT: simpleDOT, Options: Options{Formats: []string{"svg", "png"}, Scale: 2}}
	first, err := g.Render(context.Background(), job)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if string(first["png"]) != "png@2.0" {
		t.Errorf("png artifact = %q", first["png"])
	}
	if calls != 1 || c.sets != 2 {
		t.Fatalf("after first render: converts=%d sets=%d, want 1 and 2", calls, c.sets)
	}

	second, err := g.Render(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("second render converted again (%d calls)", calls)
	}
	if !bytes.Equal(first["svg"], second["svg"]) {
		t.Error("cached svg differs from the rendered one")
	}

	job.Scale = 1
	if _, err := g.Render(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("a new scale must miss the png cache, converts = %d", calls)
	}
}

func TestGraphvizRenderTextFormats(t *testing.T) {
	g := NewGraphviz(nil, nil)
	g.Convert = func(context.Context, []byte, string, float64) ([]byte, error) {
		t.Fatal("text formats must not convert")
		return nil, nil
	}

	job := Job{Title: "t", DOT: simpleDOT, JSON: []byte(`{"title":"t"}`), Options: Options{Formats: []string{"dot", "json"}}}
	a, err := g.Render(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if string(a["dot"]) != simpleDOT || string(a["json"]) != `{"title":"t"}` {
		t.Errorf("artifacts = %q", a)
	}
}

func TestGraphvizRenderErrors(t *testing.T) {
	failing := func(context.Context, []byte, string, float64) ([]byte, error) {
		return nil, fmt.Errorf("rsvg-convert exploded")
	}

	tests := []struct {
		name    string
		job     Job
		convert Converter
		code    errors.Code
	}{
		{"unsupported format", Job{DOT: simpleDOT, Options: Options{Formats: []string{"gif"}}}, nil, errors.ErrCodeInvalidFormat},
		{"json without description", Job{DOT: simpleDOT, Options: Options{Formats: []string{"json"}}}, nil, errors.ErrCodeRender},
		{"convert failure", Job{DOT: simpleDOT, Options: Options{Formats: []string{"svg", "png"}}}, failing, errors.ErrCodeRender},
		{"invalid DOT", Job{DOT: "digraph {", Options: Options{Formats: []string{"svg"}}}, nil, errors.ErrCodeRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraphviz(nil, nil)
			if tt.convert != nil {
				g.Convert = tt.convert
			}
			a, err := g.Render(context.Background(), tt.job)
			if !errors.Is(err, tt.code) {
				t.Errorf("Render() error = %v, want %s", err, tt.code)
			}
			if a != nil {
				t.Errorf("failed render returned partial artifacts: %v", a)
			}
		})
	}
}

func TestGraphvizRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGraphviz(nil, nil).Render(ctx, Job{DOT: simpleDOT, Options: Options{Formats: []string{"dot"}}})
	if err == nil {
		t.Error("Render() with canceled context should fail")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "offset viewBox",
			input: `<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`,
			want:  []string{`viewBox="0 0 100.00 50.00"`, `width="100"`, `height="50"`, `xmlns:xlink=`, `<g/></svg>`},
		},
		{
			name:  "no viewBox",
			input: `<svg width="100" height="50"></svg>`,
			want:  []string{`<svg width="100" height="50"></svg>`},
		},
		{
			name:  "zero size",
			input: `<svg viewBox="0 0 0 0"></svg>`,
			want:  []string{`viewBox="0 0 0 0"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(normalizeViewBox([]byte(tt.input)))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("normalizeViewBox() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestNormalizeViewBoxKeepsNestedSVG(t *testing.T) {
	in := `<?xml version="1.0"?><svg viewBox="0 0 10 20"><svg id="inner"></svg></svg>`
	got := string(normalizeViewBox([]byte(in)))
	if !strings.HasPrefix(got, `<?xml version="1.0"?><svg xmlns=`) {
		t.Errorf("prolog lost: %q", got)
	}
	if !strings.Contains(got, `<svg id="inner">`) {
		t.Errorf("only the root tag may be rewritten: %q", got)
	}
}
