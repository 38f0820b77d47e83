package observability

import (
	"context"
	"errors"

	"keypad-calc/internal/config"
)

// Init sets up logging and, when OTLP export is enabled, tracing, metrics
// and log export. The returned shutdown flushes every provider that started.
func Init(ctx context.Context, cfg config.ObservabilityConfig) (func(context.Context) error, error) {
	if err := InitLogger(cfg.LogLevel); err != nil {
		return nil, err
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		SyncLogger()
		return errors.Join(errs...)
	}

	if !cfg.OTLP {
		return shutdown, nil
	}

	inits := []func(context.Context, string) (func(context.Context) error, error){
		InitTracing,
		InitMetrics,
		InitLogging,
	}
	for _, start := range inits {
		stop, err := start(ctx, cfg.ServiceName)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		shutdowns = append(shutdowns, stop)
	}

	return shutdown, nil
}
