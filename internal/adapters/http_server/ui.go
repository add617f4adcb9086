package httpserver

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"places_leads/internal/app"
	"places_leads/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const sessionCookie = "places_session"

const placeholder = "–"

type UI struct {
	Sessions        *app.SessionStore
	DefaultPageSize int
}

func (s *Server) MountUI(u *UI) {
	s.mux.Get("/", u.index)
	s.mux.Post("/ui/search", u.search)
}

type row struct {
	Score   int
	Name    string
	Rating  string
	Reviews string
	Website string
	Address string
	Status  string
}

type page struct {
	Query    string
	PageSize int
	Status   string
	Rows     []row
	HasMore  bool
	Raw      string
}

// index shows the current session if the cookie names a live one. Sessions
// are only created by a search.
func (u *UI) index(w http.ResponseWriter, r *http.Request) {
	var m app.RenderModel
	if c, err := r.Cookie(sessionCookie); err == nil {
		if agg, ok := u.Sessions.Get(c.Value); ok {
			m = agg.Render()
		}
	}
	u.render(w, m, m.Query, u.DefaultPageSize)
}

func (u *UI) search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid form", err.Error())
		return
	}
	agg := u.session(w, r)

	query := strings.TrimSpace(r.PostForm.Get("textQuery"))
	size, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("pageSize")))
	if err != nil || size <= 0 {
		size = u.DefaultPageSize
	}
	loadMore := r.PostForm.Get("action") == "more"

	var m app.RenderModel
	switch {
	case query == "":
		m = agg.Render()
		m.Status = "Please enter a search query."
	case loadMore && !agg.HasMore():
		m = agg.Render()
		m.Status = "No more pages to load. (API did not return nextPageToken)"
	default:
		m = agg.Submit(r.Context(), query, size, loadMore)
		observeRows(m)
	}
	u.render(w, m, query, size)
}

// session resolves the cookie-bound aggregator, issuing a new cookie when
// the session is unknown or expired.
func (u *UI) session(w http.ResponseWriter, r *http.Request) *app.Aggregator {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	newID, agg := u.Sessions.GetOrCreate(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return agg
}

func (u *UI) render(w http.ResponseWriter, m app.RenderModel, query string, size int) {
	p := page{
		Query:    query,
		PageSize: size,
		Status:   m.Status,
		HasMore:  m.HasMore,
		Raw:      prettyJSON(m.Raw),
	}
	for _, sp := range m.Rows {
		p.Rows = append(p.Rows, toRow(sp))
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		log.Error().Err(err).Msg("render page failed")
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write page")
	}
}

func toRow(sp domain.ScoredPlace) row {
	p := sp.Place
	r := row{
		Score:   sp.Score,
		Name:    p.Name(),
		Rating:  placeholder,
		Reviews: placeholder,
		Website: p.WebsiteURI,
		Address: orDash(p.FormattedAddress),
		Status:  orDash(p.BusinessStatus),
	}
	if p.Rating != nil {
		r.Rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	if p.UserRatingCount != nil {
		r.Reviews = strconv.Itoa(*p.UserRatingCount)
	}
	return r
}

func orDash(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
