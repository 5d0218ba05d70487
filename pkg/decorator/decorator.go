// Package decorator attaches responsibilities to a component by wrapping it
// in layers that share the component's interface.
//
// Each layer computes its own contribution and combines it with the result
// of the layer it wraps. Whether the contribution goes before or after the
// inner result is fixed when the layer is built. Layers never modify the
// component they wrap; they only build new values from its output.
package decorator

import (
	"context"
	"errors"
)

var (
	// ErrNilComponent is returned when a layer is built around nothing.
	ErrNilComponent = errors.New("decorator: nil component")
	// ErrIncomplete is returned when a layer lacks a contribution or a combine function.
	ErrIncomplete = errors.New("decorator: contribution and combine are required")
)

// Component is the interface shared by base components and every layer.
type Component[R any] interface {
	Operation(ctx context.Context) (R, error)
}

// ComponentFunc adapts a function to Component.
type ComponentFunc[R any] func(ctx context.Context) (R, error)

// Operation calls f.
func (f ComponentFunc[R]) Operation(ctx context.Context) (R, error) { return f(ctx) }

// Combine joins two partial results; first is the leftmost in the outcome.
type Combine[R any] func(first, second R) R

// Placement says where a layer's contribution goes relative to the inner result.
type Placement int

const (
	// After appends the contribution: combine(inner, own).
	After Placement = iota
	// Before prepends the contribution: combine(own, inner).
	Before
)

func (p Placement) String() string {
	if p == Before {
		return "before"
	}
	return "after"
}

// Option configures a Decorator.
type Option func(*options)

type options struct {
	placement Placement
}

// WithPlacement sets where the layer's contribution is placed.
func WithPlacement(p Placement) Option {
	return func(o *options) { o.placement = p }
}

// Decorator is one layer around a Component. It is immutable once built.
type Decorator[R any] struct {
	inner      Component[R]
	contribute func(ctx context.Context) (R, error)
	combine    Combine[R]
	placement  Placement
}

var _ Component[int] = (*Decorator[int])(nil)

// Wrap returns a layer contributing the fixed value own.
func Wrap[R any](inner Component[R], own R, combine Combine[R], opts ...Option) (*Decorator[R], error) {
	return WrapFunc(inner, func(context.Context) (R, error) { return own, nil }, combine, opts...)
}

// WrapFunc returns a layer whose contribution is computed per call.
func WrapFunc[R any](inner Component[R], contribute func(ctx context.Context) (R, error), combine Combine[R], opts ...Option) (*Decorator[R], error) {
	if inner == nil {
		return nil, ErrNilComponent
	}
	if contribute == nil || combine == nil {
		return nil, ErrIncomplete
	}
	o := options{placement: After}
	for _, opt := range opts {
		opt(&o)
	}
	return &Decorator[R]{inner: inner, contribute: contribute, combine: combine, placement: o.placement}, nil
}

// Operation delegates to the wrapped component and combines the result with
// this layer's contribution. Inner errors are returned unchanged.
func (d *Decorator[R]) Operation(ctx context.Context) (R, error) {
	var zero R
	inner, err := d.inner.Operation(ctx)
	if err != nil {
		return zero, err
	}
	own, err := d.contribute(ctx)
	if err != nil {
		return zero, err
	}
	if d.placement == Before {
		return d.combine(own, inner), nil
	}
	return d.combine(inner, own), nil
}

// Unwrap returns the wrapped component.
func (d *Decorator[R]) Unwrap() Component[R] { return d.inner }

// Placement reports where this layer places its contribution.
func (d *Decorator[R]) Placement() Placement { return d.placement }

// Layer describes one decorator for Chain.
type Layer[R any] struct {
	Own       R
	Combine   Combine[R]
	Placement Placement
}

// Chain wraps base with each layer in order, so the last layer is outermost.
func Chain[R any](base Component[R], layers ...Layer[R]) (Component[R], error) {
	if base == nil {
		return nil, ErrNilComponent
	}
	c := base
	for _, l := range layers {
		d, err := Wrap(c, l.Own, l.Combine, WithPlacement(l.Placement))
		if err != nil {
			return nil, err
		}
		c = d
	}
	return c, nil
}

// Depth returns the length of the call chain starting at c: one for a bare
// component plus one per layer.
func Depth[R any](c Component[R]) int {
	depth := 0
	for c != nil {
		depth++
		u, ok := c.(interface{ Unwrap() Component[R] })
		if !ok {
			break
		}
		c = u.Unwrap()
	}
	return depth
}
