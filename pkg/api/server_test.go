package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackdiagram/pkg/render"
	"github.com/matzehuels/stackdiagram/pkg/store"
)

// stubRenderer returns "<format>:<title>" for every requested format.
type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Render(ctx context.Context, job render.Job) (render.Artifacts, error) {
	s.calls++
	a := render.Artifacts{}
	for _, f := range job.Formats {
		a[f] = []byte(f + ":" + job.Title)
	}
	return a, nil
}

const tomlDef = `
title = "Checkout"
formats = ["svg"]

[[nodes]]
id = "a"

[[nodes]]
id = "b"

[[edges]]
from = "a"
to = "b"
`

func newTestServer(t *testing.T) (*Server, *stubRenderer) {
	t.Helper()
	r := &stubRenderer{}
	return New(Config{Store: store.NewMemoryStore(), Renderer: r}), r
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return v
}

type renderedJSON struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	Formats []string          `json:"formats"`
	Links   map[string]string `json:"links"`
	Stats   struct {
		Nodes int `json:"nodes"`
		Edges int `json:"edges"`
	} `json:"stats"`
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[healthResponse](t, rec)
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("health = %+v", body)
	}
}

func TestCatalog(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/catalog", "", "")
	entries := decode[[]catalogEntry](t, rec)
	if len(entries) == 0 || entries[0].Name != "biteswipe" {
		t.Errorf("catalog = %+v", entries)
	}
}

func TestRenderLifecycle(t *testing.T) {
	s, r := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/render?formats=svg,dot", "application/toml", tomlDef)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[renderedJSON](t, rec)
	if created.Title != "Checkout" || created.Stats.Nodes != 2 || created.Stats.Edges != 1 {
		t.Errorf("created = %+v", created)
	}
	if diff := cmp.Diff([]string{"svg", "dot"}, created.Formats); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
	if loc := rec.Header().Get("Location"); loc != created.Links["self"] {
		t.Errorf("Location = %q, links.self = %q", loc, created.Links["self"])
	}
	if r.calls != 1 {
		t.Errorf("renderer called %d times", r.calls)
	}

	rec = do(t, s, http.MethodGet, created.Links["svg"], "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "svg:Checkout" {
		t.Errorf("artifact = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = do(t, s, http.MethodGet, created.Links["self"], "", "")
	if got := decode[renderedJSON](t, rec); got.ID != created.ID {
		t.Errorf("GET render id = %q, want %q", got.ID, created.ID)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/renders", "", "")
	list := decode[struct {
		Renders []renderedJSON `json:"renders"`
	}](t, rec)
	if len(list.Renders) != 1 || list.Renders[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, s, http.MethodGet, created.Links["self"]+"/pdf", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing artifact status = %d", rec.Code)
	}
}

func TestRenderYAMLAndCatalog(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/render", "application/yaml; charset=utf-8", "title: Y\nnodes: [{id: a}]\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("YAML render status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[renderedJSON](t, rec); len(got.Formats) != 1 || got.Formats[0] != "png" {
		t.Errorf("default formats = %v, want [png]", got.Formats)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/catalog/biteswipe/render?formats=svg", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("catalog render status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[renderedJSON](t, rec); got.Stats.Nodes != 13 {
		t.Errorf("catalog render nodes = %d", got.Stats.Nodes)
	}
}

func TestErrors(t *testing.T) {
	s, r := newTestServer(t)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"unknown content type", http.MethodPost, "/api/v1/render", "application/json", "{}", http.StatusUnsupportedMediaType, "UNSUPPORTED"},
		{"invalid definition", http.MethodPost, "/api/v1/render", "application/toml", "title = ", http.StatusBadRequest, "INVALID_DEFINITION"},
		{"unknown edge target", http.MethodPost, "/api/v1/render", "application/yaml", "title: t\nedges: [{from: a, to: b}]", http.StatusBadRequest, "INVALID_DEFINITION"},
		{"bad format override", http.MethodPost, "/api/v1/render?formats=gif", "application/toml", tomlDef, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown catalog entry", http.MethodPost, "/api/v1/catalog/nope/render", "", "", http.StatusNotFound, "NOT_FOUND"},
		{"malformed id", http.MethodGet, "/api/v1/renders/xyz", "", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown id", http.MethodGet, "/api/v1/renders/00000000-0000-0000-0000-000000000001", "", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad limit", http.MethodGet, "/api/v1/renders?limit=-1", "", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"no route", http.MethodGet, "/nope", "", "", http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodDelete, "/api/v1/render", "", "", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.contentType, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if body := decode[errorBody](t, rec); body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
	if r.calls != 0 {
		t.Errorf("renderer called %d times for failing requests", r.calls)
	}
}

func TestBodyLimit(t *testing.T) {
	s := New(Config{Renderer: &stubRenderer{}, MaxBodyBytes: 16})
	rec := do(t, s, http.MethodPost, "/api/v1/render", "application/toml", tomlDef)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}
