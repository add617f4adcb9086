package app_test

import (
	"context"
	"errors"
	"testing"

	"places_leads/internal/app"
	"places_leads/internal/domain"
)

// ---- fakes ----

type fakeClient struct {
	calls []domain.SearchRequest
	pages []domain.SearchResponse
	err   error
}

func (f *fakeClient) SearchText(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return domain.SearchResponse{}, f.err
	}
	if len(f.pages) == 0 {
		return domain.SearchResponse{Raw: []byte(`{}`)}, nil
	}
	p := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return p, nil
}

// ---- tests ----

func TestRelay_EmptyQueryNoOutboundCall(t *testing.T) {
	fc := &fakeClient{}
	r := app.NewRelayService(fc, 0)

	for _, q := range []string{"", "   "} {
		_, err := r.Relay(context.Background(), domain.SearchRequest{TextQuery: q})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("query %q: expected ErrInvalidRequest, got %v", q, err)
		}
	}
	if len(fc.calls) != 0 {
		t.Fatalf("expected no outbound calls, got %d", len(fc.calls))
	}
}

func TestRelay_DefaultsPageSize(t *testing.T) {
	fc := &fakeClient{}
	r := app.NewRelayService(fc, 0)

	if _, err := r.Relay(context.Background(), domain.SearchRequest{TextQuery: "plumber", PageToken: "t"}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := r.Relay(context.Background(), domain.SearchRequest{TextQuery: "plumber", PageSize: 500}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if fc.calls[0].PageSize != 20 || fc.calls[0].PageToken != "t" {
		t.Fatalf("unexpected first call: %+v", fc.calls[0])
	}
	// no local upper bound
	if fc.calls[1].PageSize != 500 {
		t.Fatalf("unexpected second call: %+v", fc.calls[1])
	}
}

func TestRelay_PropagatesUpstreamError(t *testing.T) {
	fc := &fakeClient{err: &domain.UpstreamError{Status: 500, Body: []byte("boom")}}
	r := app.NewRelayService(fc, 20)

	_, err := r.Relay(context.Background(), domain.SearchRequest{TextQuery: "q"})
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Status != 500 {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if len(fc.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(fc.calls))
	}
}

func TestRelay_ForwardsQueryAsGiven(t *testing.T) {
	fc := &fakeClient{}
	r := app.NewRelayService(fc, 20)

	if _, err := r.Relay(context.Background(), domain.SearchRequest{TextQuery: "  plumber in austin "}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := fc.calls[0].TextQuery; got != "  plumber in austin " {
		t.Fatalf("query altered before forwarding: %q", got)
	}
}
