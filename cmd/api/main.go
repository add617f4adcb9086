package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	server "places_leads/internal/adapters/http_server"
	"places_leads/internal/adapters/observability"
	"places_leads/internal/adapters/places"
	"places_leads/internal/app"
	"places_leads/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// deps
	client := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.UpstreamTimeout)
	relay := app.NewRelayService(client, cfg.DefaultPageSize)
	sessions := app.NewSessionStore(relay, cfg.MaxRows)
	sessions.OnSizeChange = func(n int) { observability.SessionsActive.Set(float64(n)) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.SessionIdle > 0 {
		go sessions.Sweep(ctx, cfg.SessionIdle/4, cfg.SessionIdle)
	}

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Relay: relay, Sessions: sessions})
	srv.MountUI(&server.UI{Sessions: sessions, DefaultPageSize: cfg.DefaultPageSize})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
