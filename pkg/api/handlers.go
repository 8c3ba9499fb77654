package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/stackdiagram/pkg/buildinfo"
	"github.com/matzehuels/stackdiagram/pkg/cache"
	"github.com/matzehuels/stackdiagram/pkg/catalog"
	"github.com/matzehuels/stackdiagram/pkg/definition"
	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/errors"
	"github.com/matzehuels/stackdiagram/pkg/render"
	"github.com/matzehuels/stackdiagram/pkg/store"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type catalogEntry struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Formats     []string `json:"formats"`
}

type renderResponse struct {
	*store.Record
	Links map[string]string `json:"links"`
}

type listResponse struct {
	Renders []*store.Record `json:"renders"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	entries := catalog.All()
	out := make([]catalogEntry, 0, len(entries))
	for _, e := range entries {
		cfg := e.Config()
		out = append(out, catalogEntry{
			Name:        e.Name,
			Title:       cfg.Title,
			Description: e.Description,
			Formats:     cfg.Formats,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRenderCatalog(w http.ResponseWriter, r *http.Request) {
	e, err := catalog.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	cfg := e.Config()
	if err := applyQuery(&cfg, r); err != nil {
		writeError(w, err)
		return
	}
	s.renderAndStore(w, r, func() (*diagram.Builder, error) { return e.Build(cfg) })
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := definition.ParseFormat(r.Header.Get("Content-Type"))
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{
			Code:    string(errors.ErrCodeUnsupported),
			Message: "Content-Type must be application/toml or application/yaml",
		})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Code:    string(errors.ErrCodeInvalidInput),
			Message: "definition too large (max " + strconv.FormatInt(s.maxBody, 10) + " bytes)",
		})
		return
	}

	def, err := definition.Parse(data, format)
	if err != nil {
		writeError(w, err)
		return
	}
	cfg := def.Config()
	if err := applyQuery(&cfg, r); err != nil {
		writeError(w, err)
		return
	}
	s.renderAndStore(w, r, func() (*diagram.Builder, error) { return def.Build(cfg) })
}

// applyQuery applies the "formats" query parameter and marks the diagram as
// in-memory: the service never writes output files.
func applyQuery(cfg *diagram.Config, r *http.Request) error {
	cfg.NoOutput = true
	if f := r.URL.Query().Get("formats"); f != "" {
		cfg.Formats = render.ParseFormats(f)
		return render.ValidateFormats(cfg.Formats)
	}
	return nil
}

func (s *Server) renderAndStore(w http.ResponseWriter, r *http.Request, build func() (*diagram.Builder, error)) {
	b, err := build()
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := b.Render(r.Context(), s.renderer)
	if err != nil {
		writeError(w, err)
		return
	}

	d := out.Diagram
	rec := store.NewRecord(d.Title(), cache.Hash([]byte(d.DOT())), d.Config().Formats, out.Artifacts, d.Stats())
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.logger.Error("save render", "id", rec.ID, "err", err)
		writeError(w, err)
		return
	}
	s.logger.Debug("rendered", "id", rec.ID, "title", rec.Title, "formats", rec.Formats, "duration", out.Duration)

	w.Header().Set("Location", "/api/v1/renders/"+rec.ID.String())
	writeJSON(w, http.StatusCreated, renderResponse{Record: rec.Summary(), Links: links(rec)})
}

func (s *Server) handleListRenders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Renders: recs})
}

func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Record: rec.Summary(), Links: links(rec)})
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	data, ok := rec.Artifacts[format]
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "render %s has no %q artifact", rec.ID, format))
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid render id %q", chi.URLParam(r, "id")))
		return nil, false
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return rec, true
}

func links(rec *store.Record) map[string]string {
	base := "/api/v1/renders/" + rec.ID.String()
	out := map[string]string{"self": base}
	for _, f := range rec.Formats {
		out[f] = base + "/" + f
	}
	return out
}

func contentType(format string) string {
	switch format {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatPNG:
		return "image/png"
	case render.FormatPDF:
		return "application/pdf"
	case render.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case render.FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// =============================================================================
// JSON responses
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidStyle, errors.ErrCodeInvalidEngine, errors.ErrCodeInvalidDefinition:
		return http.StatusBadRequest
	case errors.ErrCodeContract:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Code: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
