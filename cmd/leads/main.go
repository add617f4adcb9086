package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"places_leads/internal/adapters/observability"
	"places_leads/internal/adapters/places"
	"places_leads/internal/app"
	"places_leads/internal/shared"
)

type args struct {
	Queries  []string `arg:"positional,required" help:"text queries, e.g. \"dentists in Austin\""`
	PageSize int      `arg:"--page-size,-n" default:"20" help:"results per upstream page"`
	MaxPages int      `arg:"--max-pages,-p" default:"3" help:"pages to load per query (0 = until exhausted)"`
	Top      int      `arg:"--top,-t" default:"50" help:"rows to print per query"`
	Workers  int      `arg:"--workers,-w" default:"2" help:"queries run concurrently"`
}

func (args) Description() string {
	return "leads runs place searches to completion and prints them ranked by lead score"
}

func main() {
	var a args
	arg.MustParse(&a)

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	relay := app.NewRelayService(places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.UpstreamTimeout), a.PageSize)

	ctx := context.Background()
	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	out := make([]app.RenderModel, len(a.Queries)) // one slot per query

	for i, q := range a.Queries {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			defer sem.Release(1)

			m := collect(ctx, app.NewAggregator(relay, a.Top), q, a.PageSize, a.MaxPages)
			if m.Err != nil {
				log.Warn().Str("query", q).Err(m.Err).Msg("query failed")
			} else {
				log.Info().Str("query", q).Int("total", m.Total).Msg("query done")
			}
			out[i] = m
		}(i, q)
	}
	wg.Wait()

	failed := 0
	for i, m := range out {
		printTable(os.Stdout, a.Queries[i], m)
		if m.Err != nil {
			failed++
		}
	}
	if failed == len(out) {
		os.Exit(1)
	}
}

// collect runs the first search, then loads more while upstream keeps
// issuing tokens. maxPages <= 0 means no page cap.
func collect(ctx context.Context, agg *app.Aggregator, query string, pageSize, maxPages int) app.RenderModel {
	m := agg.Submit(ctx, query, pageSize, false)
	for pages := 1; m.Err == nil && m.HasMore && (maxPages <= 0 || pages < maxPages); pages++ {
		next := agg.Submit(ctx, query, pageSize, true)
		if next.Err != nil {
			// keep what we already have; report the failure
			prev := agg.Render()
			prev.Err, prev.Error, prev.Status = next.Err, next.Error, next.Status
			return prev
		}
		m = next
	}
	return m
}

func printTable(w io.Writer, query string, m app.RenderModel) {
	fmt.Fprintf(w, "== %s\n%s\n", query, m.Status)
	if len(m.Rows) == 0 {
		fmt.Fprintln(w)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tNAME\tRATING\tREVIEWS\tWEBSITE\tADDRESS\tSTATUS")
	for _, r := range m.Rows {
		p := r.Place
		rating, reviews := "-", "-"
		if p.Rating != nil {
			rating = fmt.Sprintf("%.1f", *p.Rating)
		}
		if p.UserRatingCount != nil {
			reviews = fmt.Sprint(*p.UserRatingCount)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Score, p.Name(), rating, reviews, dash(p.WebsiteURI), dash(p.FormattedAddress), dash(p.BusinessStatus))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func dash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}
