// Package composite lets clients treat a single object and a tree of objects
// uniformly through one interface.
//
// A Leaf yields its own result. A Node yields its own contribution folded
// with the results of its children, visited in insertion order. Add is the
// only way to grow a node and it refuses any child that would make the node
// its own ancestor, so a cycle can never be built.
package composite

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

var (
	// ErrNilChild is returned when Add is called with a nil component.
	ErrNilChild = errors.New("composite: nil child")
	// ErrCycle is returned when Add would make a node its own ancestor.
	ErrCycle = errors.New("composite: child is the node itself or one of its ancestors")
	// ErrDepthExceeded is returned when an operation descends past the configured limit.
	ErrDepthExceeded = errors.New("composite: maximum depth exceeded")
)

// Component is implemented by leaves and nodes alike.
type Component[R any] interface {
	Name() string
	Operation(ctx context.Context) (R, error)
}

// Parent is implemented by components that own children. Cycle detection and
// Walk descend through any Parent, not only *Node.
type Parent[R any] interface {
	Children() []Component[R]
}

// structureMu serialises Add across all nodes.
var structureMu sync.Mutex

// Merge folds one child result into the accumulated result.
type Merge[R any] func(acc, next R) R

// ChildError reports which child of which node failed.
type ChildError struct {
	Node  string
	Child string
	Err   error
}

func (e *ChildError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Node, e.Child, e.Err)
}

func (e *ChildError) Unwrap() error { return e.Err }

// Leaf is a component without children.
type Leaf[R any] struct {
	name string
	op   func(ctx context.Context) (R, error)
}

// NewLeaf returns a leaf that always yields value.
func NewLeaf[R any](name string, value R) *Leaf[R] {
	return &Leaf[R]{name: name, op: func(context.Context) (R, error) { return value, nil }}
}

// LeafFunc returns a leaf whose result is computed by fn on every call.
func LeafFunc[R any](name string, fn func(ctx context.Context) (R, error)) *Leaf[R] {
	return &Leaf[R]{name: name, op: fn}
}

func (l *Leaf[R]) Name() string { return l.name }

func (l *Leaf[R]) Operation(ctx context.Context) (R, error) { return l.op(ctx) }

// Node owns an ordered list of children.
type Node[R any] struct {
	name     string
	own      R
	merge    Merge[R]
	maxDepth int

	mu       sync.RWMutex
	children []Component[R]
}

var (
	_ Component[int] = (*Leaf[int])(nil)
	_ Component[int] = (*Node[int])(nil)
	_ Parent[int]    = (*Node[int])(nil)
)

// NodeOption configures a Node.
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	maxDepth int
}

// WithMaxDepth bounds how many levels Operation descends below this node.
// Levels under other Parent implementations count too, as long as they pass
// the context they receive on to their children. Zero or a negative value
// means unbounded.
func WithMaxDepth(depth int) NodeOption {
	return func(o *nodeOptions) { o.maxDepth = depth }
}

// NewNode returns an empty node contributing own and combining child results
// with merge.
func NewNode[R any](name string, own R, merge Merge[R], opts ...NodeOption) *Node[R] {
	var o nodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Node[R]{name: name, own: own, merge: merge, maxDepth: o.maxDepth}
}

func (n *Node[R]) Name() string { return n.name }

// Children returns a copy of the child list.
func (n *Node[R]) Children() []Component[R] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

// Len returns the number of direct children.
func (n *Node[R]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// Add appends child. It fails with ErrCycle when child is n or when n is
// reachable from child.
func (n *Node[R]) Add(child Component[R]) error {
	if child == nil {
		return ErrNilChild
	}
	// Check and append under one lock so concurrent Adds cannot close a loop.
	structureMu.Lock()
	defer structureMu.Unlock()
	if reaches(child, Component[R](n)) {
		return fmt.Errorf("add %q to %q: %w", child.Name(), n.name, ErrCycle)
	}
	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return nil
}

// Remove deletes the first occurrence of child and reports whether it was present.
func (n *Node[R]) Remove(child Component[R]) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if same(c, child) {
			n.children = slices.Delete(n.children, i, i+1)
			return true
		}
	}
	return false
}

// depthKey carries the depth budget across components that are not *Node.
type depthKey struct{}

type depthState struct {
	depth, limit int
}

// Operation folds the node's own contribution with every child result.
func (n *Node[R]) Operation(ctx context.Context) (R, error) {
	if st, ok := ctx.Value(depthKey{}).(depthState); ok {
		return n.operate(ctx, st.depth+1, st.limit)
	}
	return n.operate(ctx, 0, n.maxDepth)
}

func (n *Node[R]) operate(ctx context.Context, depth, limit int) (R, error) {
	var zero R
	if limit > 0 && depth > limit {
		return zero, fmt.Errorf("%q at depth %d: %w", n.name, depth, ErrDepthExceeded)
	}
	acc := n.own
	for _, child := range n.Children() {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		var (
			res R
			err error
		)
		if sub, ok := child.(*Node[R]); ok {
			res, err = sub.operate(ctx, depth+1, limit)
		} else {
			childCtx := ctx
			if limit > 0 {
				childCtx = context.WithValue(ctx, depthKey{}, depthState{depth: depth + 1, limit: limit})
			}
			res, err = child.Operation(childCtx)
		}
		if err != nil {
			return zero, &ChildError{Node: n.name, Child: child.Name(), Err: err}
		}
		if n.merge != nil {
			acc = n.merge(acc, res)
		}
	}
	return acc, nil
}

// reaches reports whether target is from or one of its descendants.
func reaches[R any](from, target Component[R]) bool {
	if same(from, target) {
		return true
	}
	p, ok := from.(Parent[R])
	if !ok {
		return false
	}
	for _, c := range p.Children() {
		if reaches(c, target) {
			return true
		}
	}
	return false
}

// same compares component identity without panicking on non-comparable
// dynamic types.
func same[R any](a, b Component[R]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
