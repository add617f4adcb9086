package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"places_leads/internal/domain"
)

const DefaultMaxRows = 50

// RenderModel is what one aggregator action produces for display.
type RenderModel struct {
	Rows    []domain.ScoredPlace `json:"rows"`
	Total   int                  `json:"total"`
	Showing int                  `json:"showing"`
	HasMore bool                 `json:"hasMore"`
	Empty   bool                 `json:"empty,omitempty"`
	Status  string               `json:"status"`
	Error   string               `json:"error,omitempty"`
	Query   string               `json:"query,omitempty"`
	// Raw is the most recent upstream page, verbatim.
	Raw json.RawMessage `json:"raw,omitempty"`

	Err error `json:"-"`
}

// Aggregator accumulates result pages for one session and ranks them.
// Calls are serialized; each session owns its own Aggregator.
type Aggregator struct {
	relay   domain.Relay
	maxRows int
	now     func() time.Time

	mu        sync.Mutex
	places    []domain.Place
	lastQuery string
	nextToken string
}

func NewAggregator(r domain.Relay, maxRows int) *Aggregator {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Aggregator{relay: r, maxRows: maxRows, now: time.Now}
}

// WithClock replaces the wall clock used for review recency.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Submit runs a new search (loadMore == false) or fetches the next page of
// the current one. A different query text always starts over. State is only
// changed once the relay call succeeds.
func (a *Aggregator) Submit(ctx context.Context, query string, pageSize int, loadMore bool) RenderModel {
	a.mu.Lock()
	defer a.mu.Unlock()

	query = strings.TrimSpace(query)
	reset := !loadMore || query != a.lastQuery

	req := domain.SearchRequest{TextQuery: query, PageSize: pageSize}
	if !reset {
		req.PageToken = a.nextToken
	}

	op := "search"
	if loadMore {
		op = "load more"
	}

	resp, err := a.relay.Relay(ctx, req)
	if err != nil {
		rerr := &domain.RenderError{Op: op, Err: err}
		return RenderModel{
			Total:   len(a.places),
			HasMore: a.nextToken != "",
			Status:  "Error: " + err.Error(),
			Error:   err.Error(),
			Query:   a.lastQuery,
			Err:     rerr,
		}
	}

	if reset {
		a.places = nil
	}
	a.lastQuery = query
	a.nextToken = resp.NextPageToken

	if len(resp.Places) == 0 && len(a.places) == 0 {
		return RenderModel{
			HasMore: resp.HasMore(),
			Empty:   true,
			Status:  "No places found.",
			Query:   query,
			Raw:     resp.Raw,
		}
	}

	a.places = append(a.places, resp.Places...)

	m := a.render()
	m.Raw = resp.Raw
	return m
}

// Render re-ranks the accumulated places without touching the network.
func (a *Aggregator) Render() RenderModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.render()
}

// HasMore reports whether the last page carried a continuation token.
func (a *Aggregator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextToken != ""
}

func (a *Aggregator) LastQuery() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastQuery
}

func (a *Aggregator) render() RenderModel {
	m := RenderModel{
		Total:   len(a.places),
		HasMore: a.nextToken != "",
		Query:   a.lastQuery,
	}
	if len(a.places) == 0 {
		m.Status = "No places fetched yet."
		return m
	}

	ranked := Rank(a.places, a.now())
	if len(ranked) > a.maxRows {
		ranked = ranked[:a.maxRows]
	}
	m.Rows = ranked
	m.Showing = len(ranked)

	more := "No more pages (no nextPageToken from API)."
	if m.HasMore {
		more = `More available via "Load more".`
	}
	m.Status = fmt.Sprintf("Fetched %d place(s) total. Showing %d. %s", m.Total, m.Showing, more)
	return m
}

// Rank scores every place and orders them by score, highest first. Equal
// scores keep their accumulation order.
func Rank(places []domain.Place, now time.Time) []domain.ScoredPlace {
	out := make([]domain.ScoredPlace, len(places))
	for i, p := range places {
		out[i] = domain.ScoredPlace{Place: p, Score: domain.Score(p, now)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
