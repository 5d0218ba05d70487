package composite

import "context"

// Walk visits root and every component below it in pre-order. Depth is 0 for
// root. Returning an error from fn stops the walk and returns that error.
func Walk[R any](ctx context.Context, root Component[R], fn func(depth int, c Component[R]) error) error {
	return walk(ctx, root, 0, fn)
}

func walk[R any](ctx context.Context, c Component[R], depth int, fn func(int, Component[R]) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(depth, c); err != nil {
		return err
	}
	p, ok := c.(Parent[R])
	if !ok {
		return nil
	}
	for _, child := range p.Children() {
		if err := walk(ctx, child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of components reachable from root, root included.
// A component shared by several parents is counted once per occurrence.
func Count[R any](root Component[R]) int {
	n := 0
	_ = Walk(context.Background(), root, func(int, Component[R]) error {
		n++
		return nil
	})
	return n
}
