package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"structkit/internal/archive"
	"structkit/internal/blob"
	"structkit/internal/config"
	"structkit/internal/ledger"
	"structkit/internal/logging"
	"structkit/internal/observability"
	"structkit/internal/publish"
	"structkit/pkg/flyweight"
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	store     blob.Store
	archive   *archive.Archive
	ledger    *ledger.Lazy
	publisher *publish.Publisher
	cleanup   func()
}

func newApp(ctx context.Context, cfg config.Config, logSink io.Writer) (*app, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, cleanup, err := logging.Setup(logSink, cfg.Log.File, level)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, metrics: observability.New(), cleanup: cleanup}

	raw, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a.store = blob.Instrument(raw, a.metrics, logger)

	a.archive, err = archive.New(layoutFor(cfg.Archive), a.store)
	if err != nil {
		a.close()
		return nil, err
	}
	a.ledger, err = ledger.Open(cfg.Ledger,
		ledger.WithLogger(logger),
		ledger.WithObserver(observability.NewProxyObserver(a.metrics, "ledger")))
	if err != nil {
		a.close()
		return nil, err
	}
	formats, err := publish.NewFormats(flyweight.WithObserver[publish.FormatKey](
		observability.NewFlyweightObserver[publish.FormatKey](a.metrics, "formats")))
	if err != nil {
		a.close()
		return nil, err
	}
	a.publisher, err = publish.New(a.archive, a.ledger, formats,
		publish.WithLogger(logger),
		publish.WithRecorder(a.metrics))
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func layoutFor(cfg config.Archive) archive.Layout {
	if cfg.Layout == config.LayoutDated {
		return archive.DatedLayout{Prefix: cfg.Prefix}
	}
	return archive.PlainLayout{Prefix: cfg.Prefix}
}

// observe records a command outcome on the app's metrics.
func (a *app) observe(ctx context.Context, op string, start time.Time, err error) {
	a.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

// dumpMetrics writes the registry in Prometheus text format.
func (a *app) dumpMetrics(w io.Writer) error {
	return observability.WriteText(w, a.metrics.Gatherer())
}

func (a *app) close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("close ledger", "error", err)
		}
	}
	if a.cleanup != nil {
		a.cleanup()
	}
}
