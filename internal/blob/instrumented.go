package blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Recorder receives one observation per blob store call.
type Recorder interface {
	ObserveBlob(driver, op string, success bool, duration time.Duration)
}

// Instrumented decorates a Store with call metrics and debug logging. It
// forwards every call unchanged and never alters results or errors.
type Instrumented struct {
	inner    Store
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

var _ Store = (*Instrumented)(nil)

// Instrument wraps inner. A nil recorder or logger disables that side.
func Instrument(inner Store, recorder Recorder, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Instrumented{
		inner:    inner,
		recorder: recorder,
		logger:   logger.With("component", "blob", "driver", string(inner.Driver())),
		now:      time.Now,
	}
}

// Unwrap returns the decorated store.
func (s *Instrumented) Unwrap() Store { return s.inner }

func (s *Instrumented) Driver() Driver { return s.inner.Driver() }

func (s *Instrumented) observe(ctx context.Context, op, key string, start time.Time, err error) {
	took := s.now().Sub(start)
	// a missing key is an answer, not a failure
	success := err == nil || errors.Is(err, ErrNotFound)
	if s.recorder != nil {
		s.recorder.ObserveBlob(string(s.inner.Driver()), op, success, took)
	}
	if err != nil && !success {
		s.logger.WarnContext(ctx, "blob call failed", "op", op, "key", key, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "blob call", "op", op, "key", key, "took", took)
}

func (s *Instrumented) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	start := s.now()
	info, err := s.inner.Put(ctx, key, r, opts)
	s.observe(ctx, "put", key, start, err)
	return info, err
}

func (s *Instrumented) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	start := s.now()
	info, rc, err := s.inner.Get(ctx, key)
	s.observe(ctx, "get", key, start, err)
	return info, rc, err
}

func (s *Instrumented) Head(ctx context.Context, key string) (Info, error) {
	start := s.now()
	info, err := s.inner.Head(ctx, key)
	s.observe(ctx, "head", key, start, err)
	return info, err
}

func (s *Instrumented) Delete(ctx context.Context, key string) (bool, error) {
	start := s.now()
	ok, err := s.inner.Delete(ctx, key)
	s.observe(ctx, "delete", key, start, err)
	return ok, err
}

func (s *Instrumented) List(ctx context.Context, prefix string) ([]Info, error) {
	start := s.now()
	infos, err := s.inner.List(ctx, prefix)
	s.observe(ctx, "list", prefix, start, err)
	return infos, err
}
