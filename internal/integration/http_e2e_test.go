//go:build integration || !unit

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	server "places_leads/internal/adapters/http_server"
	"places_leads/internal/adapters/observability"
	"places_leads/internal/adapters/places"
	"places_leads/internal/app"
)

// ---------- fake upstream: two pages, then terminal ----------

func fakePlacesAPI(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	recent := time.Now().AddDate(0, 0, -3).UTC().Format(time.RFC3339)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("X-Goog-Api-Key") != "e2e-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key missing"}}`))
			return
		}
		var body struct {
			TextQuery string `json:"textQuery"`
			PageToken string `json:"pageToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		switch body.PageToken {
		case "":
			fmt.Fprintf(w, `{"places":[
				{"id":"1","displayName":{"text":"Closed Co"},"rating":4.9,"userRatingCount":1000,"businessStatus":"CLOSED_PERMANENTLY"},
				{"id":"2","displayName":{"text":"Good Co"},"rating":4.5,"userRatingCount":50,"businessStatus":"OPERATIONAL","websiteUri":"https://good.example","reviews":[{"publishTime":%q}]}
			],"nextPageToken":"page-2"}`, recent)
		case "page-2":
			_, _ = w.Write([]byte(`{"places":[{"id":"3","displayName":{"text":"Ok Co"},"rating":4.1,"userRatingCount":20,"businessStatus":"OPERATIONAL"}]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
		}
	}))
}

func stack(upstreamURL, key string) *httptest.Server {
	relay := app.NewRelayService(places.New(upstreamURL, key, 5*time.Second), 20)
	sessions := app.NewSessionStore(relay, 50)

	srv := server.New(10 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(observability.InitRegistry()))
	srv.MountHandlers(&server.Handlers{Relay: relay, Sessions: sessions})
	srv.MountUI(&server.UI{Sessions: sessions, DefaultPageSize: 20})
	return httptest.NewServer(srv.Mux())
}

func post(t *testing.T, url, body string, out any) int {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", url, err, b)
		}
	}
	return res.StatusCode
}

// ---------- the tests ----------

func TestHTTP_EndToEnd_SessionPaging(t *testing.T) {
	var hits int32
	up := fakePlacesAPI(t, &hits)
	defer up.Close()
	ts := stack(up.URL, "e2e-key")
	defer ts.Close()

	var created struct{ ID string }
	if code := post(t, ts.URL+"/v1/sessions", ``, &created); code != http.StatusCreated {
		t.Fatalf("create session: %d", code)
	}
	base := ts.URL + "/v1/sessions/" + created.ID + "/search"

	var m app.RenderModel
	post(t, base, `{"textQuery":"dentists in austin"}`, &m)
	if m.Total != 2 || !m.HasMore || m.Rows[0].Place.ID != "2" || m.Rows[0].Score != 8 {
		t.Fatalf("unexpected first page: %+v", m)
	}
	if m.Rows[1].Score != 0 {
		t.Fatalf("closed business must score 0, got %d", m.Rows[1].Score)
	}

	post(t, base, `{"textQuery":"dentists in austin","loadMore":true}`, &m)
	if m.Total != 3 || m.HasMore {
		t.Fatalf("unexpected second page: %+v", m)
	}
	var ids []string
	for _, r := range m.Rows {
		ids = append(ids, r.Place.ID)
	}
	// "3" scores 0 like "1" and keeps its later accumulation position
	if strings.Join(ids, ",") != "2,1,3" {
		t.Fatalf("ranking = %v", ids)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", hits)
	}
}

func TestHTTP_EndToEnd_RelayErrors(t *testing.T) {
	var hits int32
	up := fakePlacesAPI(t, &hits)
	defer up.Close()
	ts := stack(up.URL, "") // missing key: upstream refuses at call time
	defer ts.Close()

	var body map[string]any
	if code := post(t, ts.URL+"/search", `{"textQuery":""}`, &body); code != http.StatusBadRequest {
		t.Fatalf("empty query: %d", code)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("invalid request reached upstream")
	}

	if code := post(t, ts.URL+"/search", `{"textQuery":"x"}`, &body); code != http.StatusBadGateway {
		t.Fatalf("upstream 403: %d", code)
	}
	details, _ := body["details"].(map[string]any)
	if body["error"] != "Failed to fetch places" || details["error"] == nil {
		t.Fatalf("unexpected error body: %+v", body)
	}

	res, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `places_external_requests_total{endpoint="searchText",service="places",status="403"}`) {
		t.Fatalf("external request not recorded:\n%s", b)
	}
}
