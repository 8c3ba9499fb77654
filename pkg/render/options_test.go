package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackdiagram/pkg/errors"
)

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{[]string{"png"}, false},
		{[]string{"svg", "png", "pdf", "dot", "json"}, false},
		{[]string{"gif"}, true},
		{[]string{"png", "PNG"}, true},
		{[]string{"svg", "svg"}, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := ValidateFormats(tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormats(%v) code = %s", tt.formats, errors.GetCode(err))
		}
	}
}

func TestValidateEngine(t *testing.T) {
	for e := range ValidEngines {
		if err := ValidateEngine(e); err != nil {
			t.Errorf("ValidateEngine(%q) = %v", e, err)
		}
	}
	if err := ValidateEngine("spring"); !errors.Is(err, errors.ErrCodeInvalidEngine) {
		t.Errorf("ValidateEngine(spring) = %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := map[string][]string{
		"":              nil,
		"png":           {"png"},
		" SVG , png,,":  {"svg", "png"},
		"dot,json,pdf ": {"dot", "json", "pdf"},
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, ParseFormats(in)); diff != "" {
			t.Errorf("ParseFormats(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestFormatNames(t *testing.T) {
	want := []string{"dot", "json", "pdf", "png", "svg"}
	if diff := cmp.Diff(want, FormatNames()); diff != "" {
		t.Errorf("FormatNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	want := Options{Formats: []string{DefaultFormat}, Engine: DefaultEngine, Scale: DefaultScale}
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsScaleRange(t *testing.T) {
	for _, s := range []float64{0.05, -1, 11} {
		o := Options{Scale: s}
		if err := o.Validate(); err == nil {
			t.Errorf("scale %v should be rejected", s)
		}
	}
}
