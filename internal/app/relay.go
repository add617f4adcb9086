package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"places_leads/internal/domain"
)

const DefaultPageSize = 20

// RelayService validates search requests and forwards them upstream. It
// holds no per-request state and is safe for concurrent use.
type RelayService struct {
	client          domain.PlacesClient
	validate        *validator.Validate
	defaultPageSize int
}

func NewRelayService(c domain.PlacesClient, defaultPageSize int) *RelayService {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	return &RelayService{client: c, validate: validator.New(), defaultPageSize: defaultPageSize}
}

// Relay issues one upstream call per invocation. An empty (or blank) query
// fails with domain.ErrInvalidRequest before anything is sent; otherwise the
// query text is forwarded as given.
func (s *RelayService) Relay(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	check := req
	check.TextQuery = strings.TrimSpace(req.TextQuery)
	if err := s.validate.Struct(check); err != nil {
		return domain.SearchResponse{}, fmt.Errorf("%w: textQuery is required", domain.ErrInvalidRequest)
	}
	if req.PageSize <= 0 {
		req.PageSize = s.defaultPageSize
	}
	return s.client.SearchText(ctx, req)
}
