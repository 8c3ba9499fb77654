package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/stackdiagram/pkg/errors"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Engine is a Graphviz layout engine.
type Engine string

// Layout engines.
const (
	EngineDot       Engine = "dot"   // hierarchical (default)
	EngineNeato     Engine = "neato" // spring model
	EngineFdp       Engine = "fdp"   // force-directed, honors clusters
	EngineSfdp      Engine = "sfdp"
	EngineCirco     Engine = "circo"
	EngineTwopi     Engine = "twopi"
	EngineOsage     Engine = "osage"
	EnginePatchwork Engine = "patchwork"
)

// ValidEngines is the set of supported layout engines.
var ValidEngines = map[Engine]bool{
	EngineDot:       true,
	EngineNeato:     true,
	EngineFdp:       true,
	EngineSfdp:      true,
	EngineCirco:     true,
	EngineTwopi:     true,
	EngineOsage:     true,
	EnginePatchwork: true,
}

const (
	// DefaultFormat is used when no format is requested.
	DefaultFormat = FormatPNG

	// DefaultEngine is the default layout engine.
	DefaultEngine = EngineDot

	// DefaultScale is the default raster scale for PNG output.
	DefaultScale = 1.0
)

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"unsupported output format %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that every format is supported and none repeats.
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "at least one output format is required")
	}
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
		if seen[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "output format %q requested twice", f)
		}
		seen[f] = true
	}
	return nil
}

// ValidateEngine checks that a layout engine is supported.
func ValidateEngine(e Engine) error {
	if !ValidEngines[e] {
		return errors.New(errors.ErrCodeInvalidEngine, "unsupported layout engine %q", e)
	}
	return nil
}

// FormatNames returns the supported formats in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// ParseFormats parses a comma-separated format list, trimming blanks.
// An empty string yields nil.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Options configures rendering.
type Options struct {
	Formats []string `json:"formats,omitempty" toml:"formats" yaml:"formats"`
	Engine  Engine   `json:"engine,omitempty" toml:"engine" yaml:"engine"`
	Scale   float64  `json:"scale,omitempty" toml:"scale" yaml:"scale"`
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// Validate applies defaults and checks formats, engine and scale.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.Scale < 0.1 || o.Scale > 10 {
		return errors.New(errors.ErrCodeInvalidInput, "scale %s out of range [0.1, 10]", fmt.Sprint(o.Scale))
	}
	return nil
}
