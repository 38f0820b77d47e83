package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keypad-calc/internal/calculator"
	"keypad-calc/internal/config"
	"keypad-calc/internal/observability"
	"keypad-calc/internal/server"
	"keypad-calc/internal/session"
	"keypad-calc/internal/store"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the calculator HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {

	// Logger, tracing, metrics, log export
	shutdownTelemetry, err := observability.Init(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	if err := calculator.InitMetrics(); err != nil {
		return err
	}

	// Journal
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions := session.NewManager(st,
		session.WithLogger(observability.Logger),
		session.WithMaxDigits(cfg.Engine.MaxDigits),
	)

	handler := calculator.NewHandler(sessions, cfg.Engine.MaxDigits)
	stored, err := handler.SeedSessionGauge(ctx)
	if err != nil {
		return err
	}

	// Router
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Path),
			zap.Int("max_digits", cfg.Engine.MaxDigits),
			zap.Int("stored_sessions", stored),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return waitForShutdown(srv, cfg.Server)
}

func waitForShutdown(srv *http.Server, cfg config.ServerConfig) error {

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	observability.Logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

	return srv.Shutdown(ctx)
}
