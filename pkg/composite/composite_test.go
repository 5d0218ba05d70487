package composite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(acc, next int) int { return acc + next }

func joinLines(acc, next string) string {
	if acc == "" {
		return next
	}
	return acc + "\n" + next
}

// buildTree returns a full tree with the given number of node levels below
// root and breadth children per node. Each leaf counts its own invocations.
func buildTree(t *testing.T, depth, breadth int, calls *int) *Node[int] {
	t.Helper()
	var grow func(name string, level int) *Node[int]
	grow = func(name string, level int) *Node[int] {
		n := NewNode(name, 1, sum)
		for i := 0; i < breadth; i++ {
			childName := fmt.Sprintf("%s.%d", name, i)
			if level == depth {
				require.NoError(t, n.Add(LeafFunc(childName, func(context.Context) (int, error) {
					*calls++
					return 1, nil
				})))
				continue
			}
			require.NoError(t, n.Add(grow(childName, level+1)))
		}
		return n
	}
	return grow("root", 0)
}

func TestOperation_VisitsEveryComponent(t *testing.T) {
	cases := []struct{ depth, breadth int }{{0, 3}, {1, 2}, {2, 3}, {3, 2}}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("d%d_b%d", tc.depth, tc.breadth), func(t *testing.T) {
			calls := 0
			root := buildTree(t, tc.depth, tc.breadth, &calls)

			// nodes = sum_{i=0..depth} b^i, leaves = b^(depth+1)
			nodes, pow := 0, 1
			for i := 0; i <= tc.depth; i++ {
				nodes += pow
				pow *= tc.breadth
			}
			leaves := pow

			got, err := root.Operation(context.Background())
			require.NoError(t, err)
			assert.Equal(t, nodes+leaves, got)
			assert.Equal(t, leaves, calls)
			assert.Equal(t, nodes+leaves, Count[int](root))
		})
	}
}

func TestOperation_InsertionOrder(t *testing.T) {
	root := NewNode("root", "root", joinLines)
	sub := NewNode("sub", "sub", joinLines)
	require.NoError(t, sub.Add(NewLeaf("c", "c")))
	require.NoError(t, root.Add(NewLeaf("a", "a")))
	require.NoError(t, root.Add(sub))
	require.NoError(t, root.Add(NewLeaf("b", "b")))

	got, err := root.Operation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root\na\nsub\nc\nb", got)
}

func TestLeaf_ReturnsOwnResult(t *testing.T) {
	l := NewLeaf("single", 7)
	got, err := l.Operation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, "single", l.Name())
	assert.Equal(t, 1, Count[int](l))
}

func TestAddRemove_RoundTrip(t *testing.T) {
	root := NewNode("root", 0, sum)
	a, b := NewLeaf("a", 1), NewLeaf("b", 2)
	require.NoError(t, root.Add(a))
	require.NoError(t, root.Add(b))
	before := root.Children()

	c := NewLeaf("c", 3)
	require.NoError(t, root.Add(c))
	assert.Equal(t, 3, root.Len())
	assert.True(t, root.Remove(c))
	assert.Equal(t, before, root.Children())

	assert.False(t, root.Remove(c), "removing an absent child reports false")
	assert.False(t, root.Remove(nil))
}

func TestRemove_FirstOccurrenceOnly(t *testing.T) {
	root := NewNode("root", 0, sum)
	shared := NewLeaf("x", 5)
	require.NoError(t, root.Add(shared))
	require.NoError(t, root.Add(NewLeaf("y", 1)))
	require.NoError(t, root.Add(shared))

	require.True(t, root.Remove(shared))
	children := root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "y", children[0].Name())
	assert.Equal(t, "x", children[1].Name())
}

func TestAdd_RejectsCycles(t *testing.T) {
	root := NewNode("root", 0, sum)
	mid := NewNode("mid", 0, sum)
	low := NewNode("low", 0, sum)
	require.NoError(t, root.Add(mid))
	require.NoError(t, mid.Add(low))

	assert.ErrorIs(t, root.Add(root), ErrCycle)
	assert.ErrorIs(t, low.Add(root), ErrCycle)
	assert.ErrorIs(t, low.Add(mid), ErrCycle)
	assert.ErrorIs(t, mid.Add(root), ErrCycle)
	assert.ErrorIs(t, root.Add(nil), ErrNilChild)

	assert.Equal(t, 0, low.Len(), "rejected adds must not mutate the child list")
	assert.Equal(t, 1, root.Len())
}

func TestAdd_SharedSubtreeIsNotACycle(t *testing.T) {
	root := NewNode("root", 0, sum)
	left := NewNode("left", 0, sum)
	right := NewNode("right", 0, sum)
	shared := NewLeaf("shared", 10)
	require.NoError(t, root.Add(left))
	require.NoError(t, root.Add(right))
	require.NoError(t, left.Add(shared))
	require.NoError(t, right.Add(shared))

	got, err := root.Operation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, got)
	assert.Equal(t, 5, Count[int](root))
}

func TestOperation_ChildFailurePropagates(t *testing.T) {
	boom := errors.New("disk on fire")
	root := NewNode("root", 0, sum)
	sub := NewNode("sub", 0, sum)
	after := false
	require.NoError(t, sub.Add(LeafFunc("bad", func(context.Context) (int, error) { return 0, boom })))
	require.NoError(t, root.Add(sub))
	require.NoError(t, root.Add(LeafFunc("after", func(context.Context) (int, error) {
		after = true
		return 1, nil
	})))

	_, err := root.Operation(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, after, "siblings after a failure are not visited")

	var ce *ChildError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "root", ce.Node)
	assert.Equal(t, "sub", ce.Child)
	assert.Equal(t, "root/sub: sub/bad: disk on fire", err.Error())
}

func TestOperation_MaxDepth(t *testing.T) {
	calls := 0
	deep := buildTree(t, 3, 1, &calls)
	limited := NewNode("limited", 0, sum, WithMaxDepth(2))
	require.NoError(t, limited.Add(deep))

	_, err := limited.Operation(context.Background())
	assert.ErrorIs(t, err, ErrDepthExceeded)

	shallow := NewNode("shallow", 0, sum, WithMaxDepth(5))
	require.NoError(t, shallow.Add(deep))
	_, err = shallow.Operation(context.Background())
	assert.NoError(t, err)
}

// bundle is a Parent that is not a *Node.
type bundle struct {
	name     string
	children []Component[int]
}

func (b *bundle) Name() string { return b.name }
func (b *bundle) Children() []Component[int] { return b.children }

func (b *bundle) Operation(ctx context.Context) (int, error) {
	total := 0
	for _, c := range b.children {
		v, err := c.Operation(ctx)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func TestOperation_MaxDepthCountsCustomParents(t *testing.T) {
	inner := NewNode("inner", 0, sum)
	require.NoError(t, inner.Add(NewLeaf("x", 1)))
	middle := NewNode("middle", 0, sum)
	require.NoError(t, middle.Add(inner))
	wrapper := &bundle{name: "bundle", children: []Component[int]{middle}}

	// limited(0) -> bundle(1) -> middle(2) -> inner(3)
	limited := NewNode("limited", 0, sum, WithMaxDepth(2))
	require.NoError(t, limited.Add(wrapper))
	_, err := limited.Operation(context.Background())
	assert.ErrorIs(t, err, ErrDepthExceeded)

	enough := NewNode("enough", 0, sum, WithMaxDepth(3))
	require.NoError(t, enough.Add(wrapper))
	got, err := enough.Operation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// without a limit the bundle's nodes start counting afresh
	free := NewNode("free", 0, sum)
	require.NoError(t, free.Add(wrapper))
	_, err = free.Operation(context.Background())
	assert.NoError(t, err)
}

func TestOperation_Cancelled(t *testing.T) {
	root := NewNode("root", 0, sum)
	require.NoError(t, root.Add(NewLeaf("a", 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := root.Operation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_DepthsAndStop(t *testing.T) {
	root := NewNode("root", "", joinLines)
	sub := NewNode("sub", "", joinLines)
	require.NoError(t, root.Add(sub))
	require.NoError(t, sub.Add(NewLeaf("leaf", "")))
	require.NoError(t, root.Add(NewLeaf("tail", "")))

	var b strings.Builder
	err := Walk[string](context.Background(), root, func(depth int, c Component[string]) error {
		b.WriteString(strings.Repeat("  ", depth) + c.Name() + "\n")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "root\n  sub\n    leaf\n  tail\n", b.String())

	stop := errors.New("stop")
	visited := 0
	err = Walk[string](context.Background(), root, func(int, Component[string]) error {
		visited++
		if visited == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visited)
}

func TestNode_ConcurrentMutationAndTraversal(t *testing.T) {
	root := NewNode("root", 0, sum)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			leaf := NewLeaf(fmt.Sprint(i), 1)
			for j := 0; j < 50; j++ {
				_ = root.Add(leaf)
				root.Remove(leaf)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := root.Operation(context.Background())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, root.Len())
}

// valueLeaf is a non-comparable component used to check identity handling.
type valueLeaf struct {
	name  string
	parts []int
}

func (v valueLeaf) Name() string { return v.name }

func (v valueLeaf) Operation(context.Context) (int, error) { return len(v.parts), nil }

func TestNonComparableComponents(t *testing.T) {
	root := NewNode("root", 0, sum)
	v := valueLeaf{name: "v", parts: []int{1, 2}}
	require.NoError(t, root.Add(v))
	assert.False(t, root.Remove(v), "non-comparable values cannot be matched by identity")

	got, err := root.Operation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
