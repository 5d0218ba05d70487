// Package adapter converts the interface of an existing collaborator into the
// interface a client expects without modifying either side.
//
// An Adapter wraps exactly one Adaptee and two pure translation functions.
// Request translates the client's input, delegates once to the adaptee, and
// translates the result back. Adaptee failures are returned unchanged.
package adapter

import (
	"context"
	"errors"
)

var (
	// ErrNilAdaptee is returned by New when no adaptee is supplied.
	ErrNilAdaptee = errors.New("adapter: nil adaptee")
	// ErrNilTranslation is returned by New when a translation function is missing.
	ErrNilTranslation = errors.New("adapter: nil translation")
)

// Target is the contract a client depends on.
type Target[In, Out any] interface {
	Request(ctx context.Context, in In) (Out, error)
}

// Adaptee is an existing collaborator with an incompatible shape.
type Adaptee[In, Out any] interface {
	SpecificRequest(ctx context.Context, in In) (Out, error)
}

// AdapteeFunc lets a plain function or method value act as an Adaptee.
type AdapteeFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// SpecificRequest calls f.
func (f AdapteeFunc[In, Out]) SpecificRequest(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Adapter implements Target[In, Out] on top of an Adaptee[AIn, AOut].
type Adapter[In, Out, AIn, AOut any] struct {
	adaptee Adaptee[AIn, AOut]
	toIn    func(In) AIn
	fromOut func(AOut) Out
}

var _ Target[int, int] = (*Adapter[int, int, int, int])(nil)

// New returns an adapter around adaptee. toIn maps the client's argument to
// the adaptee's and fromOut maps the adaptee's result back.
func New[In, Out, AIn, AOut any](adaptee Adaptee[AIn, AOut], toIn func(In) AIn, fromOut func(AOut) Out) (*Adapter[In, Out, AIn, AOut], error) {
	if adaptee == nil {
		return nil, ErrNilAdaptee
	}
	if toIn == nil || fromOut == nil {
		return nil, ErrNilTranslation
	}
	return &Adapter[In, Out, AIn, AOut]{adaptee: adaptee, toIn: toIn, fromOut: fromOut}, nil
}

// Request translates in, calls the adaptee and translates its result.
func (a *Adapter[In, Out, AIn, AOut]) Request(ctx context.Context, in In) (Out, error) {
	res, err := a.adaptee.SpecificRequest(ctx, a.toIn(in))
	if err != nil {
		var zero Out
		return zero, err
	}
	return a.fromOut(res), nil
}

// Identity is a translation that passes a value through untouched.
func Identity[T any](v T) T { return v }
