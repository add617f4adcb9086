package domain

import "context"

// PlacesClient is the outbound text-search call.
type PlacesClient interface {
	SearchText(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

// Relay validates a request and forwards it upstream.
type Relay interface {
	Relay(ctx context.Context, req SearchRequest) (SearchResponse, error)
}
