// Package proxy stands in for an expensive real subject and defers its
// construction until first use.
//
// Lazy holds the construction routine and, once built, the subject. The
// subject is built at most once per Lazy, on the first Get, never when the
// Lazy itself is created. A failed construction leaves nothing behind: the
// next Get tries again.
//
// Concrete proxies embed a *Lazy and implement the subject's interface by
// delegating through Get.
package proxy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNilConstructor is returned by NewLazy when no construction routine is supplied.
var ErrNilConstructor = errors.New("proxy: nil constructor")

// Observer is told about construction attempts.
type Observer interface {
	Constructed(took time.Duration)
	ConstructionFailed(err error)
}

// Option configures a Lazy.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports construction outcomes to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Lazy builds its subject on first access and reuses it afterwards. It is
// safe for concurrent use.
type Lazy[S any] struct {
	build    func(ctx context.Context) (S, error)
	observer Observer

	ready    atomic.Bool
	attempts atomic.Int64
	mu       sync.Mutex
	subject  S
}

// NewLazy returns a proxy that will construct its subject with build.
func NewLazy[S any](build func(ctx context.Context) (S, error), opts ...Option) (*Lazy[S], error) {
	if build == nil {
		return nil, ErrNilConstructor
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Lazy[S]{build: build, observer: o.observer}, nil
}

// Get returns the subject, constructing it if this is the first successful
// access. Construction errors are returned unchanged.
func (l *Lazy[S]) Get(ctx context.Context) (S, error) {
	if l.ready.Load() {
		return l.subject, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready.Load() {
		return l.subject, nil
	}
	l.attempts.Add(1)
	start := time.Now()
	s, err := l.build(ctx)
	if err != nil {
		if l.observer != nil {
			l.observer.ConstructionFailed(err)
		}
		var zero S
		return zero, err
	}
	l.subject = s
	l.ready.Store(true)
	if l.observer != nil {
		l.observer.Constructed(time.Since(start))
	}
	return s, nil
}

// Loaded reports whether the subject has been constructed.
func (l *Lazy[S]) Loaded() bool { return l.ready.Load() }

// Peek returns the subject without constructing it.
func (l *Lazy[S]) Peek() (S, bool) {
	if l.ready.Load() {
		return l.subject, true
	}
	var zero S
	return zero, false
}

// Attempts returns how many times construction has been tried.
func (l *Lazy[S]) Attempts() int64 { return l.attempts.Load() }
