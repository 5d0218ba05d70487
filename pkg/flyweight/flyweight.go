// Package flyweight shares immutable intrinsic state across many logical
// instances.
//
// A Factory maps an intrinsic-state key to one shared value, built lazily on
// first request and kept for the factory's lifetime. Equal keys always yield
// the same pointer. Anything that varies per use (extrinsic state) must be
// passed to the flyweight's methods, never stored in it.
package flyweight

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNilBuilder is returned by NewFactory when no build function is supplied.
	ErrNilBuilder = errors.New("flyweight: nil build function")
	// ErrBuildPanicked wraps a panic raised by the build function.
	ErrBuildPanicked = errors.New("flyweight: build panicked")
)

// Observer receives cache events. Implementations must be safe for concurrent use.
type Observer[K comparable] interface {
	Hit(key K)
	Miss(key K)
	Failed(key K, err error)
}

// Option configures a Factory.
type Option[K comparable] func(*options[K])

type options[K comparable] struct {
	observer Observer[K]
}

// WithObserver reports hits, misses and build failures to obs.
func WithObserver[K comparable](obs Observer[K]) Option[K] {
	return func(o *options[K]) { o.observer = obs }
}

type entry[V any] struct {
	done chan struct{}
	val  *V
	err  error
}

// Factory hands out shared flyweights keyed by value. It is safe for
// concurrent use: concurrent first requests for one key build it once, and
// builds for different keys do not block each other.
type Factory[K comparable, V any] struct {
	build    func(key K) (V, error)
	observer Observer[K]

	mu    sync.Mutex
	items map[K]*entry[V]
	ready int
}

// NewFactory returns a factory that builds missing flyweights with build.
func NewFactory[K comparable, V any](build func(key K) (V, error), opts ...Option[K]) (*Factory[K, V], error) {
	if build == nil {
		return nil, ErrNilBuilder
	}
	var o options[K]
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory[K, V]{build: build, observer: o.observer, items: make(map[K]*entry[V])}, nil
}

// Get returns the flyweight for key, building it on first request. A failed
// build is not cached; the next Get for the key tries again. Callers waiting
// on the failed build receive the same error. A panicking build counts as a
// failure and is reported as ErrBuildPanicked.
func (f *Factory[K, V]) Get(key K) (*V, error) {
	f.mu.Lock()
	if e, ok := f.items[key]; ok {
		f.mu.Unlock()
		<-e.done
		if e.err != nil {
			return nil, e.err
		}
		f.notifyHit(key)
		return e.val, nil
	}
	e := &entry[V]{done: make(chan struct{})}
	f.items[key] = e
	f.mu.Unlock()

	f.notifyMiss(key)
	v, err := f.safeBuild(key)

	f.mu.Lock()
	if err != nil {
		delete(f.items, key)
		e.err = err
	} else {
		e.val = &v
		f.ready++
	}
	f.mu.Unlock()
	close(e.done)

	if err != nil {
		f.notifyFailed(key, err)
		return nil, err
	}
	return e.val, nil
}

func (f *Factory[K, V]) safeBuild(key K) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBuildPanicked, r)
		}
	}()
	return f.build(key)
}

// Len returns the number of flyweights built so far.
func (f *Factory[K, V]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Keys returns the keys of all built flyweights in no particular order.
func (f *Factory[K, V]) Keys() []K {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]K, 0, f.ready)
	for k, e := range f.items {
		if e.val != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

func (f *Factory[K, V]) notifyHit(key K) {
	if f.observer != nil {
		f.observer.Hit(key)
	}
}

func (f *Factory[K, V]) notifyMiss(key K) {
	if f.observer != nil {
		f.observer.Miss(key)
	}
}

func (f *Factory[K, V]) notifyFailed(key K, err error) {
	if f.observer != nil {
		f.observer.Failed(key, err)
	}
}
