package domain

import "encoding/json"

// Place is one record of the places text-search payload, restricted to the
// fields requested by the relay's field mask.
type Place struct {
	ID               string       `json:"id"`
	DisplayName      *DisplayName `json:"displayName,omitempty"`
	Rating           *float64     `json:"rating,omitempty"`
	UserRatingCount  *int         `json:"userRatingCount,omitempty"`
	FormattedAddress string       `json:"formattedAddress,omitempty"`
	WebsiteURI       string       `json:"websiteUri,omitempty"`
	BusinessStatus   string       `json:"businessStatus,omitempty"`
	Reviews          []Review     `json:"reviews,omitempty"`
}

type DisplayName struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

const StatusOperational = "OPERATIONAL"

// Name returns the display text or "(no name)".
func (p Place) Name() string {
	if p.DisplayName != nil && p.DisplayName.Text != "" {
		return p.DisplayName.Text
	}
	return "(no name)"
}

type SearchRequest struct {
	TextQuery string `json:"textQuery" validate:"required"`
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

// SearchResponse is a decoded upstream page. Raw keeps the upstream body
// exactly as received so it can be relayed verbatim.
type SearchResponse struct {
	Places        []Place         `json:"places"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// HasMore reports whether upstream issued a continuation token.
func (r SearchResponse) HasMore() bool { return r.NextPageToken != "" }

type ScoredPlace struct {
	Place Place `json:"place"`
	Score int   `json:"score"`
}
