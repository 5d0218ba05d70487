package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"structkit/internal/config"
	"structkit/internal/infra/persistence/postgres"
	"structkit/internal/infra/persistence/sqlite"
	"structkit/pkg/proxy"
)

// Lazy is a virtual proxy for an SQLLedger: the database is opened, pinged
// and migrated on the first Record or List, not at construction. A failed
// open leaves it unopened and the next call tries again.
type Lazy struct {
	*proxy.Lazy[*SQLLedger]

	closeMu sync.Mutex
	closed  bool
}

var _ Ledger = (*Lazy)(nil)

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger   *slog.Logger
	observer proxy.Observer
}

// WithLogger logs database opens.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) { o.logger = logger }
}

// WithObserver reports construction attempts, e.g. to metrics.
func WithObserver(obs proxy.Observer) Option {
	return func(o *openOptions) { o.observer = obs }
}

type opener func(ctx context.Context) (*sql.DB, Dialect, error)

// Open returns a lazy ledger for cfg. Nothing is opened yet.
func Open(cfg config.Ledger, opts ...Option) (*Lazy, error) {
	var open opener
	switch cfg.Driver {
	case config.LedgerDriverSQLite, "":
		open = func(ctx context.Context) (*sql.DB, Dialect, error) {
			db, err := sqlite.Open(ctx, cfg.SQLitePath)
			return db, SQLite, err
		}
	case config.LedgerDriverPostgres:
		open = func(ctx context.Context) (*sql.DB, Dialect, error) {
			db, err := postgres.Open(ctx, cfg.PostgresDSN)
			return db, Postgres, err
		}
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
	return newLazy(open, opts...)
}

func newLazy(open opener, opts ...Option) (*Lazy, error) {
	o := openOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "ledger")
	var proxyOpts []proxy.Option
	if o.observer != nil {
		proxyOpts = append(proxyOpts, proxy.WithObserver(o.observer))
	}
	l := &Lazy{}
	inner, err := proxy.NewLazy(func(ctx context.Context) (*SQLLedger, error) {
		if l.isClosed() {
			return nil, ErrClosed
		}
		db, dialect, err := open(ctx)
		if err != nil {
			logger.WarnContext(ctx, "ledger open failed", "error", err)
			return nil, err
		}
		sl := NewSQL(db, dialect)
		if err := sl.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "ledger opened", "dialect", dialect.Name)
		return sl, nil
	}, proxyOpts...)
	if err != nil {
		return nil, err
	}
	l.Lazy = inner
	return l, nil
}

func (l *Lazy) isClosed() bool {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	return l.closed
}

func (l *Lazy) Record(ctx context.Context, e Entry) (int64, error) {
	if l.isClosed() {
		return 0, ErrClosed
	}
	sl, err := l.Get(ctx)
	if err != nil {
		return 0, err
	}
	return sl.Record(ctx, e)
}

func (l *Lazy) List(ctx context.Context, limit int) ([]Entry, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	sl, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return sl.List(ctx, limit)
}

// Close closes the database if it was ever opened. Later calls fail with ErrClosed.
func (l *Lazy) Close() error {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return nil
	}
	l.closed = true
	l.closeMu.Unlock()
	if sl, ok := l.Peek(); ok {
		return sl.Close()
	}
	return nil
}
