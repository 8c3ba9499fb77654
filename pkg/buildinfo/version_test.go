package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v9.9.9"

	if s := String(); !strings.Contains(s, "version: v9.9.9") {
		t.Errorf("String() = %q", s)
	}
	if got := Get().Version; got != "v9.9.9" {
		t.Errorf("Get().Version = %q", got)
	}
	if tmpl := Template(); !strings.HasPrefix(tmpl, "{{.Name}} version v9.9.9") {
		t.Errorf("Template() = %q", tmpl)
	}
}
