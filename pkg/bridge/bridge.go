// Package bridge decouples an abstraction (what is done) from its
// implementation (how it is done) so both can vary independently.
//
// An Abstraction is constructed with exactly one injected Implementor and
// delegates the low-level part of every Operation to it. Refined adds
// pre- and post-processing around that delegation without touching the
// implementor. Any refinement works with any implementor.
package bridge

import (
	"context"
	"errors"
)

// ErrNilImplementor is returned when an abstraction is built without an implementor.
var ErrNilImplementor = errors.New("bridge: nil implementor")

// Implementor performs the low-level half of an operation. Implementors hold
// no reference back to any abstraction.
type Implementor[In, Out any] interface {
	Implement(ctx context.Context, in In) (Out, error)
}

// ImplementorFunc adapts a function to the Implementor interface.
type ImplementorFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Implement calls f.
func (f ImplementorFunc[In, Out]) Implement(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Operator is the role clients depend on; both Abstraction and Refined satisfy it.
type Operator[In, Out any] interface {
	Operation(ctx context.Context, in In) (Out, error)
}

// Abstraction owns one Implementor for its whole lifetime.
type Abstraction[In, Out any] struct {
	impl Implementor[In, Out]
}

var (
	_ Operator[int, int] = (*Abstraction[int, int])(nil)
	_ Operator[int, int] = (*Refined[int, int])(nil)
)

// New returns an abstraction bound to impl.
func New[In, Out any](impl Implementor[In, Out]) (*Abstraction[In, Out], error) {
	if impl == nil {
		return nil, ErrNilImplementor
	}
	return &Abstraction[In, Out]{impl: impl}, nil
}

// Implementor returns the injected implementor.
func (a *Abstraction[In, Out]) Implementor() Implementor[In, Out] { return a.impl }

// Operation delegates to the implementor.
func (a *Abstraction[In, Out]) Operation(ctx context.Context, in In) (Out, error) {
	return a.impl.Implement(ctx, in)
}

// Refined extends an Abstraction with input shaping before delegation and
// output shaping after it. Either hook may be nil.
type Refined[In, Out any] struct {
	*Abstraction[In, Out]
	Before func(ctx context.Context, in In) (In, error)
	After  func(ctx context.Context, out Out) (Out, error)
}

// Refine wraps a new abstraction over impl with the given hooks.
func Refine[In, Out any](impl Implementor[In, Out], before func(context.Context, In) (In, error), after func(context.Context, Out) (Out, error)) (*Refined[In, Out], error) {
	base, err := New(impl)
	if err != nil {
		return nil, err
	}
	return &Refined[In, Out]{Abstraction: base, Before: before, After: after}, nil
}

// Operation runs Before, the implementor, then After. A failing step stops
// the sequence and its error is returned as is.
func (r *Refined[In, Out]) Operation(ctx context.Context, in In) (Out, error) {
	var zero Out
	if r.Before != nil {
		shaped, err := r.Before(ctx, in)
		if err != nil {
			return zero, err
		}
		in = shaped
	}
	out, err := r.Abstraction.Operation(ctx, in)
	if err != nil {
		return zero, err
	}
	if r.After != nil {
		return r.After(ctx, out)
	}
	return out, nil
}
