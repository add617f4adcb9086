// internal/adapters/places/client.go
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"places_leads/internal/adapters/observability"
	"places_leads/internal/domain"
)

const DefaultBaseURL = "https://places.googleapis.com/v1"

// MinRating is sent upstream as a server-side filter, independently of the
// lead score gate.
const MinRating = 4.0

// FieldMask restricts the upstream payload to what the relay exposes.
var FieldMask = strings.Join([]string{
	"places.id",
	"places.displayName",
	"places.rating",
	"places.userRatingCount",
	"places.formattedAddress",
	"places.websiteUri",
	"places.businessStatus",
	"places.reviews.publishTime",
	"nextPageToken",
}, ",")

type Client struct {
	base string
	hc   *http.Client
	key  string
}

// New builds a client. An empty key is allowed; upstream rejects the call
// instead. timeout == 0 means no client-side deadline.
func New(base, key string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		key:  key,
	}
}

type searchTextBody struct {
	TextQuery                        string  `json:"textQuery"`
	PageSize                         int     `json:"pageSize"`
	PageToken                        string  `json:"pageToken,omitempty"`
	MinRating                        float64 `json:"minRating"`
	IncludePureServiceAreaBusinesses bool    `json:"includePureServiceAreaBusinesses"`
}

// SearchText issues exactly one POST to places:searchText. It never retries.
func (c *Client) SearchText(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	payload, err := json.Marshal(searchTextBody{
		TextQuery:                        req.TextQuery,
		PageSize:                         req.PageSize,
		PageToken:                        req.PageToken,
		MinRating:                        MinRating,
		IncludePureServiceAreaBusinesses: true,
	})
	if err != nil {
		return domain.SearchResponse{}, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return domain.SearchResponse{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("X-Goog-Api-Key", c.key)
	hreq.Header.Set("X-Goog-FieldMask", FieldMask)
	hreq.Header.Set("User-Agent", "places-leads/1.0")

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		observability.ObserveExternal("places", "searchText", 0, time.Since(start))
		return domain.SearchResponse{}, &domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("places", "searchText", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// keep a bounded error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		log.Error().Int("status", resp.StatusCode).Str("body", truncate(b, 512)).Msg("places searchText failed")
		return domain.SearchResponse{}, &domain.UpstreamError{
			Status: resp.StatusCode,
			Body:   b,
			Err:    fmt.Errorf("bad status %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SearchResponse{}, &domain.UpstreamError{Status: resp.StatusCode, Err: err}
	}
	var out domain.SearchResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return domain.SearchResponse{}, &domain.UpstreamError{
				Status: resp.StatusCode,
				Body:   raw,
				Err:    fmt.Errorf("decode searchText response: %w", err),
			}
		}
	} else {
		raw = []byte("{}")
	}
	out.Raw = raw
	return out, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
