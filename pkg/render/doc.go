// Package render turns a serialized diagram into output artifacts.
//
// # Overview
//
// The rendering engine is Graphviz, embedded through
// [github.com/goccy/go-graphviz]. A [Job] carries the DOT source produced by
// the diagram builder together with the requested formats and layout
// engine; a [Renderer] produces one artifact per format:
//
//   - svg: laid out and rendered in-process by Graphviz
//   - png, pdf: the SVG converted with rsvg-convert (librsvg)
//   - dot: the DOT source itself
//   - json: the structural description of the diagram
//
// # Writing Output
//
// [WriteArtifacts] writes one file per format at "<base>.<ext>". Writes are
// all-or-nothing: every artifact is staged in a temporary file first, and if
// any write fails no "<base>.<ext>" file is left behind.
//
//	artifacts, err := render.NewGraphviz(nil, logger).Render(ctx, job)
//	files, err := render.WriteArtifacts(ctx, "out/arch", job.Formats, artifacts)
//
// # Dependencies
//
// PNG and PDF conversion requires librsvg: brew install librsvg (macOS),
// apt install librsvg2-bin (Linux).
package render
