// Package facade provides one simplified entry point over a fixed sequence of
// collaborating subsystems.
//
// Execute runs every subsystem in order and stops at the first failure,
// reporting which stage failed. It never reports success for a partial run.
// Earlier stages are not compensated.
package facade

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Subsystem is one collaborator coordinated by a Facade.
type Subsystem[T any] interface {
	Name() string
	Handle(ctx context.Context, req T) error
}

type stepFunc[T any] struct {
	name string
	fn   func(ctx context.Context, req T) error
}

func (s stepFunc[T]) Name() string { return s.name }

func (s stepFunc[T]) Handle(ctx context.Context, req T) error { return s.fn(ctx, req) }

// Step builds a Subsystem from a function.
func Step[T any](name string, fn func(ctx context.Context, req T) error) Subsystem[T] {
	return stepFunc[T]{name: name, fn: fn}
}

// StageError reports the stage that aborted an Execute call.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index+1, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Option configures a Facade.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger makes the facade log stage progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Facade owns its subsystems for its whole lifetime and never hands them out.
type Facade[T any] struct {
	subsystems []Subsystem[T]
	logger     *slog.Logger
}

// New returns a facade over subsystems, run in the given order.
func New[T any](subsystems []Subsystem[T], opts ...Option) (*Facade[T], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	owned := make([]Subsystem[T], 0, len(subsystems))
	for i, s := range subsystems {
		if s == nil {
			return nil, fmt.Errorf("facade: subsystem %d is nil", i+1)
		}
		if st, ok := s.(stepFunc[T]); ok && st.fn == nil {
			return nil, fmt.Errorf("facade: step %d (%s) has no function", i+1, st.name)
		}
		owned = append(owned, s)
	}
	return &Facade[T]{subsystems: owned, logger: o.logger}, nil
}

// Stages returns the stage names in execution order.
func (f *Facade[T]) Stages() []string {
	names := make([]string, len(f.subsystems))
	for i, s := range f.subsystems {
		names[i] = s.Name()
	}
	return names
}

// Execute runs every stage with req. The first failing stage aborts the run
// and is returned as a *StageError; the remaining stages are not invoked.
func (f *Facade[T]) Execute(ctx context.Context, req T) error {
	for i, s := range f.subsystems {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: s.Name(), Index: i, Err: err}
		}
		start := time.Now()
		if err := s.Handle(ctx, req); err != nil {
			f.logger.Warn("stage failed", "stage", s.Name(), "index", i+1, "error", err)
			return &StageError{Stage: s.Name(), Index: i, Err: err}
		}
		f.logger.Debug("stage completed", "stage", s.Name(), "index", i+1, "duration", time.Since(start))
	}
	return nil
}
