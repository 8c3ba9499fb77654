package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Converter converts an SVG document to another format ("png" or "pdf").
// scale only applies to raster formats.
type Converter func(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error)

// RSVGConvert is the default Converter. It shells out to rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RSVGConvert(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatPNG:
		return rsvgConvert(ctx, svg, format, "-z", fmt.Sprintf("%.2f", scale))
	case FormatPDF:
		return rsvgConvert(ctx, svg, format)
	}
	return nil, fmt.Errorf("rsvg-convert cannot produce %q", format)
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}
