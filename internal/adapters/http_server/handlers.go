// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"places_leads/internal/adapters/observability"
	"places_leads/internal/app"
	"places_leads/internal/domain"
)

type Handlers struct {
	Relay    domain.Relay
	Sessions *app.SessionStore
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/health", h.health)
	s.mux.Get("/api/health", h.health)
	s.mux.Post("/search", h.search)
	s.mux.Post("/api/search-places", h.search)

	s.mux.Post("/v1/sessions", h.createSession)
	s.mux.Post("/v1/sessions/{id}/search", h.sessionSearch)
	s.mux.Delete("/v1/sessions/{id}", h.deleteSession)
}

// pageSize accepts a JSON number or a numeric string within int32 range.
// Anything else decodes to 0, which the relay replaces with its default.
type pageSize int

func (p *pageSize) UnmarshalJSON(b []byte) error {
	*p = 0
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		// out of int32 range (and NaN) falls back to the default
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			*p = pageSize(t)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 32); err == nil {
			*p = pageSize(n)
		}
	}
	return nil
}

type searchBody struct {
	TextQuery string   `json:"textQuery"`
	PageSize  pageSize `json:"pageSize"`
	PageToken string   `json:"pageToken"`
}

type sessionSearchBody struct {
	TextQuery string   `json:"textQuery"`
	PageSize  pageSize `json:"pageSize"`
	LoadMore  bool     `json:"loadMore"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeRelayError maps the relay error taxonomy onto status codes.
func writeRelayError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidRequest) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "textQuery is required"})
		return
	}

	status := http.StatusInternalServerError
	var details any = err.Error()
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		if ue.Status != 0 {
			status = http.StatusBadGateway
		}
		if b := bytes.TrimSpace(ue.Body); len(b) > 0 {
			if json.Valid(b) {
				details = json.RawMessage(b)
			} else {
				details = string(b)
			}
		}
	}
	log.Error().Err(err).Int("status", status).Msg("places search failed")
	writeJSON(w, status, map[string]any{"error": "Failed to fetch places", "details": details})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// search relays one page and returns the upstream payload untouched.
func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "textQuery is required"})
		return
	}

	resp, err := h.Relay.Relay(r.Context(), domain.SearchRequest{
		TextQuery: body.TextQuery,
		PageSize:  int(body.PageSize),
		PageToken: body.PageToken,
	})
	if err != nil {
		writeRelayError(w, err)
		return
	}
	if len(resp.Raw) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.Raw); err != nil {
		log.Error().Err(err).Msg("failed to write search body")
	}
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	id, _ := h.Sessions.Create()
	w.Header().Set("Location", "/v1/sessions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handlers) sessionSearch(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
		return
	}
	var body sessionSearchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected JSON {textQuery, pageSize, loadMore}")
		return
	}

	m := agg.Submit(r.Context(), body.TextQuery, int(body.PageSize), body.LoadMore)
	observeRows(m)
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Delete(chi.URLParam(r, "id")) {
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func observeRows(m app.RenderModel) {
	for _, row := range m.Rows {
		observability.ObserveScore(row.Score)
	}
}
