package errors

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidateOutputPath validates an output base path (without extension).
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 1024 characters
//   - Must not end with a path separator (it names a file, not a directory)
//
// Writability is checked separately, at the point the diagram is begun.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "output path %q names a directory, not a file", path)
	}

	return nil
}

// attrKeyRegex matches Graphviz attribute names.
var attrKeyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateAttrKey validates a Graphviz attribute name.
func ValidateAttrKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidStyle, "style attribute name cannot be empty")
	}
	if !attrKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidStyle, "invalid style attribute name: %q", key)
	}
	return nil
}

var (
	// hexColorRegex matches #RGB, #RRGGBB and #RRGGBBAA colors.
	hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

	// colorNameRegex matches X11/SVG color names such as "white" or "grey40".
	colorNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

	// schemeColorRegex matches scheme-qualified names: "/x11/red", "/blues9/3", "//red".
	schemeColorRegex = regexp.MustCompile(`^/[A-Za-z0-9]*/[A-Za-z0-9]+$`)
)

// ValidateColor validates a Graphviz color value. It accepts a single color
// or a color list ("red:blue", "red;0.3:blue"), where each color is a hex
// value, a name, a scheme-qualified name, or an HSV triple ("0.65 0.7 0.7").
func ValidateColor(c string) error {
	if c == "" {
		return New(ErrCodeInvalidStyle, "color cannot be empty")
	}
	for _, item := range strings.Split(c, ":") {
		color, frac, weighted := strings.Cut(item, ";")
		if weighted {
			f, err := strconv.ParseFloat(frac, 64)
			if err != nil || f < 0 || f > 1 {
				return New(ErrCodeInvalidStyle, "invalid color fraction %q in %q", frac, c)
			}
		}
		if !validColor(strings.TrimSpace(color)) {
			return New(ErrCodeInvalidStyle, "invalid color %q", c)
		}
	}
	return nil
}

func validColor(c string) bool {
	switch {
	case c == "":
		return false
	case strings.HasPrefix(c, "#"):
		return hexColorRegex.MatchString(c)
	case strings.HasPrefix(c, "/"):
		return schemeColorRegex.MatchString(c)
	case colorNameRegex.MatchString(c):
		return true
	}
	return validHSV(c)
}

// validHSV reports whether c is three numbers in [0,1] separated by commas
// and/or whitespace.
func validHSV(c string) bool {
	parts := strings.FieldsFunc(c, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 || f > 1 {
			return false
		}
	}
	return true
}
