package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/carepulse/carepulse/internal/pipeline"
	"github.com/carepulse/carepulse/server/internal/alerts"
	"github.com/carepulse/carepulse/server/internal/api"
	"github.com/carepulse/carepulse/server/internal/auth"
	"github.com/carepulse/carepulse/server/internal/config"
	"github.com/carepulse/carepulse/server/internal/metrics"
	"github.com/carepulse/carepulse/server/internal/store"
	"github.com/carepulse/carepulse/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(g *globals) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, metrics endpoint and WebSocket hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				g.cfg.Server.HTTPPort = port
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.cfg.Server.HTTPPort))
			if err != nil {
				return fmt.Errorf("server: listen on port %d: %w", g.cfg.Server.HTTPPort, err)
			}
			return serve(ctx, g.cfg, lis)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides server.http_port)")
	return cmd
}

// serve wires every component onto lis and blocks until ctx is cancelled,
// then shuts the HTTP server down gracefully.
func serve(ctx context.Context, cfg *config.Config, lis net.Listener) error {
	s := cfg.Server
	log.Info().
		Str("addr", lis.Addr().String()).
		Str("auth_mode", s.Auth.Mode).
		Dur("run_ttl", s.Runs.TTL).
		Int("max_runs", s.Runs.Max).
		Int("alert_rules", len(s.Alerts.Rules)).
		Msg("carepulse-server starting")

	pl, err := pipeline.New(cfg.Fields)
	if err != nil {
		return err
	}
	engine, err := alerts.New(s.Alerts)
	if err != nil {
		return err
	}

	st := store.New(s.Runs.TTL, s.Runs.Max)
	go st.Run(ctx)

	hub := ws.New(st, s.StreamInterval)
	go hub.Run(ctx)

	key := s.Auth.Key()
	if s.Auth.Mode == "apikey" && key == "" {
		log.Warn().Str("key_env", s.Auth.KeyEnv).Msg("server: api key env is empty, authentication disabled")
	}

	handler, err := api.New(api.Options{
		Store:          st,
		Metrics:        metrics.New(),
		Alerts:         engine,
		Pipeline:       pl,
		RateLimit:      s.RateLimit,
		MaxUploadBytes: s.MaxUploadBytes,
		Auth:           auth.APIKey(s.Auth.Mode, s.Auth.EffectiveHeader(), key),
		Stream:         hub,
		OnRun:          hub.Publish,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("server: HTTP listening")
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("carepulse-server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
