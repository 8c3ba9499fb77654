package diagram

import (
	"maps"
	"slices"

	"github.com/matzehuels/stackdiagram/pkg/errors"
)

// Attrs holds Graphviz attributes (e.g. "color", "style", "penwidth").
// Values are passed through to the layout engine verbatim.
type Attrs map[string]string

// Merge returns a new Attrs containing a overlaid with each of others in turn.
// Later values win. Neither a nor others are modified.
func (a Attrs) Merge(others ...Attrs) Attrs {
	out := make(Attrs, len(a))
	maps.Copy(out, a)
	for _, o := range others {
		maps.Copy(out, o)
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Validate checks that every attribute name is a valid Graphviz identifier
// and that color attributes hold a valid color.
func (a Attrs) Validate() error {
	for _, k := range a.Keys() {
		if err := errors.ValidateAttrKey(k); err != nil {
			return err
		}
		if colorAttrs[k] && a[k] != "" {
			if err := errors.ValidateColor(a[k]); err != nil {
				return errors.WithContext(err, "attribute %q", k)
			}
		}
	}
	return nil
}

var colorAttrs = map[string]bool{
	"color":     true,
	"fontcolor": true,
	"fillcolor": true,
	"bgcolor":   true,
	"pencolor":  true,
}

// Style presets. A preset is a plain attribute set merged underneath the
// caller's attributes; it carries no behavior of its own.
var (
	// StyleNetworkBoundary draws a dashed blue box, used for network nodes.
	StyleNetworkBoundary = Attrs{"shape": "box", "style": "dashed", "color": "#2980B9"}

	// StyleInvisible hides a cluster border while keeping its grouping.
	StyleInvisible = Attrs{"style": "invis"}

	// StyleDashedFlow is the muted dashed edge used for control relationships.
	StyleDashedFlow = Attrs{"style": "dashed", "color": "#666666", "fontcolor": "#666666", "penwidth": "1.0"}
)

// Presets maps preset names (as used in definition files) to attribute sets.
var Presets = map[string]Attrs{
	"network-boundary": StyleNetworkBoundary,
	"invisible":        StyleInvisible,
	"dashed-flow":      StyleDashedFlow,
}

// Preset returns a copy of the named preset.
func Preset(name string) (Attrs, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown style preset: %q", name)
	}
	return p.Merge(), nil
}

// Colored returns edge attributes drawing the line and its label in color c.
func Colored(c, penwidth string) Attrs {
	a := Attrs{"color": c, "fontcolor": c}
	if penwidth != "" {
		a["penwidth"] = penwidth
	}
	return a
}

// Category is the visual category of a node. It selects a shape and fill and
// has no other meaning.
type Category string

// Node categories.
const (
	CategoryGeneric   Category = "generic"
	CategoryActor     Category = "actor"
	CategoryService   Category = "service"
	CategoryDatabase  Category = "database"
	CategoryStorage   Category = "storage"
	CategorySecret    Category = "secret"
	CategoryCI        Category = "ci"
	CategoryContainer Category = "container"
	CategoryProxy     Category = "proxy"
	CategoryVM        Category = "vm"
	CategoryNetwork   Category = "network"
)

var categoryAttrs = map[Category]Attrs{
	CategoryGeneric:   {"shape": "box", "style": "rounded,filled", "fillcolor": "#FFFFFF"},
	CategoryActor:     {"shape": "oval", "style": "filled", "fillcolor": "#FDEDEC"},
	CategoryService:   {"shape": "box", "style": "rounded,filled", "fillcolor": "#E8F6EF"},
	CategoryDatabase:  {"shape": "cylinder", "style": "filled", "fillcolor": "#EAF2F8"},
	CategoryStorage:   {"shape": "folder", "style": "filled", "fillcolor": "#FEF9E7"},
	CategorySecret:    {"shape": "octagon", "style": "filled", "fillcolor": "#F4ECF7"},
	CategoryCI:        {"shape": "component", "style": "filled", "fillcolor": "#E8F8F5"},
	CategoryContainer: {"shape": "box3d", "style": "filled", "fillcolor": "#EBF5FB"},
	CategoryProxy:     {"shape": "hexagon", "style": "filled", "fillcolor": "#E9F7EF"},
	CategoryVM:        {"shape": "box3d", "style": "filled", "fillcolor": "#FDF2E9"},
	CategoryNetwork:   StyleNetworkBoundary,
}

// Categories returns all known categories in sorted order.
func Categories() []Category {
	return slices.Sorted(maps.Keys(categoryAttrs))
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryAttrs[c]
	return ok
}

// Attrs returns a copy of the default attributes for c.
// Unknown categories fall back to CategoryGeneric.
func (c Category) Attrs() Attrs {
	if a, ok := categoryAttrs[c]; ok {
		return a.Merge()
	}
	return categoryAttrs[CategoryGeneric].Merge()
}
