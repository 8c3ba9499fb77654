package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackdiagram/pkg/cache"
	"github.com/matzehuels/stackdiagram/pkg/errors"
	"github.com/matzehuels/stackdiagram/pkg/observability"
)

// Job is a single rendering request.
type Job struct {
	Title string

	// DOT is the Graphviz source of the diagram.
	DOT string

	// JSON is the structural description emitted for the "json" format.
	JSON []byte

	Options
}

// Artifacts holds rendered output keyed by format.
type Artifacts map[string][]byte

// Renderer produces artifacts for a job. Implementations either return one
// artifact per requested format or an error; never a partial set.
type Renderer interface {
	Render(ctx context.Context, job Job) (Artifacts, error)
}

// Graphviz renders jobs with the embedded Graphviz engine.
// It is safe for concurrent use if its Cache is.
type Graphviz struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Convert Converter
	Logger  *log.Logger
}

// NewGraphviz creates a Graphviz renderer.
// If c is nil, caching is disabled. If logger is nil, logs are discarded.
func NewGraphviz(c cache.Cache, logger *log.Logger) *Graphviz {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Graphviz{
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Convert: RSVGConvert,
		Logger:  logger,
	}
}

// Render implements Renderer.
func (g *Graphviz) Render(ctx context.Context, job Job) (Artifacts, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, job.Title, job.Formats)
	artifacts, err := g.render(ctx, job)
	observability.Render().OnRenderComplete(ctx, job.Title, job.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	g.Logger.Debug("rendered artifacts", "title", job.Title, "formats", job.Formats, "duration", time.Since(start))
	return artifacts, nil
}

func (g *Graphviz) render(ctx context.Context, job Job) (Artifacts, error) {
	dotHash := cache.Hash([]byte(job.DOT))
	artifacts := make(Artifacts, len(job.Formats))

	var svg []byte
	svgFor := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = g.cached(ctx, dotHash, cache.ArtifactKeyOpts{Format: FormatSVG, Engine: string(job.Engine)}, func() ([]byte, error) {
			return RenderSVG(ctx, job.DOT, job.Engine)
		})
		return svg, err
	}

	for _, format := range job.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = svgFor()
		case FormatPNG, FormatPDF:
			opts := cache.ArtifactKeyOpts{Format: format, Engine: string(job.Engine)}
			if format == FormatPNG {
				opts.Scale = job.Scale
			}
			data, err = g.cached(ctx, dotHash, opts, func() ([]byte, error) {
				s, err := svgFor()
				if err != nil {
					return nil, err
				}
				return g.Convert(ctx, s, format, job.Scale)
			})
		case FormatDOT:
			data = []byte(job.DOT)
		case FormatJSON:
			if job.JSON == nil {
				err = fmt.Errorf("no structural description attached to job")
			}
			data = job.JSON
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", format)
		}

		if err != nil {
			if errors.GetCode(err) != "" {
				return nil, err
			}
			return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// cached returns the artifact for opts from the cache, or produces and stores it.
func (g *Graphviz) cached(ctx context.Context, dotHash string, opts cache.ArtifactKeyOpts, produce func() ([]byte, error)) ([]byte, error) {
	key := g.Keyer.ArtifactKey(dotHash, opts)
	if data, hit, err := g.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, opts.Format)
		g.Logger.Debug("artifact cache hit", "format", opts.Format)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, opts.Format)

	data, err := produce()
	if err != nil {
		return nil, err
	}
	if err := g.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		g.Logger.Warn("cache write failed", "format", opts.Format, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, opts.Format, len(data))
	}
	return data, nil
}

// RenderSVG lays out a DOT graph with the given engine and renders it to SVG.
func RenderSVG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	if engine == "" {
		engine = DefaultEngine
	}
	if err := ValidateEngine(engine); err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	gv.SetLayout(graphviz.Layout(engine))

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root <svg> tag so the viewBox starts at the
// origin and width/height match it, which rsvg-convert relies on.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	loc := svgTagRe.FindIndex(svg)
	if loc == nil {
		return svg
	}
	out := make([]byte, 0, len(svg)+len(newSvg))
	out = append(out, svg[:loc[0]]...)
	out = append(out, newSvg...)
	return append(out, svg[loc[1]:]...)
}
