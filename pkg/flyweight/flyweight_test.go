package flyweight

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type glyphKey struct {
	Symbol rune
	Font   string
}

// glyph holds only intrinsic state; position is supplied per call.
type glyph struct {
	symbol rune
	font   string
}

func (g *glyph) Draw(x, y int) string {
	return fmt.Sprintf("%c(%s)@%d,%d", g.symbol, g.font, x, y)
}

func newGlyphs(t *testing.T, builds *atomic.Int32, opts ...Option[glyphKey]) *Factory[glyphKey, glyph] {
	t.Helper()
	f, err := NewFactory(func(k glyphKey) (glyph, error) {
		builds.Add(1)
		return glyph{symbol: k.Symbol, font: k.Font}, nil
	}, opts...)
	require.NoError(t, err)
	return f
}

func TestGet_SameKeySameInstance(t *testing.T) {
	var builds atomic.Int32
	f := newGlyphs(t, &builds)

	a, err := f.Get(glyphKey{'H', "Arial"})
	require.NoError(t, err)
	b, err := f.Get(glyphKey{'H', "Arial"})
	require.NoError(t, err)
	c, err := f.Get(glyphKey{'e', "Arial"})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.EqualValues(t, 2, builds.Load())
	assert.Equal(t, 2, f.Len())
	assert.ElementsMatch(t, []glyphKey{{'H', "Arial"}, {'e', "Arial"}}, f.Keys())
}

func TestGet_DistinctInstancesEqualDistinctKeys(t *testing.T) {
	var builds atomic.Int32
	f := newGlyphs(t, &builds)

	text := "Hello, hello"
	for i, r := range text {
		g, err := f.Get(glyphKey{r, "Arial"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%c(Arial)@%d,0", r, i), g.Draw(i, 0))
	}
	distinct := map[rune]struct{}{}
	for _, r := range text {
		distinct[r] = struct{}{}
	}
	assert.EqualValues(t, len(distinct), builds.Load())
	assert.Equal(t, len(distinct), f.Len())
}

func TestGet_ExtrinsicStateNotRetained(t *testing.T) {
	var builds atomic.Int32
	f := newGlyphs(t, &builds)
	g, err := f.Get(glyphKey{'x', "Mono"})
	require.NoError(t, err)

	assert.Equal(t, "x(Mono)@1,2", g.Draw(1, 2))
	assert.Equal(t, "x(Mono)@9,9", g.Draw(9, 9))
	again, err := f.Get(glyphKey{'x', "Mono"})
	require.NoError(t, err)
	assert.Equal(t, glyph{symbol: 'x', font: "Mono"}, *again)
}

func TestGet_FailedBuildIsRetried(t *testing.T) {
	boom := errors.New("font missing")
	attempts := 0
	f, err := NewFactory(func(k string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", boom
		}
		return "glyph:" + k, nil
	})
	require.NoError(t, err)

	_, err = f.Get("a")
	assert.Same(t, boom, err)
	assert.Equal(t, 0, f.Len())

	v, err := f.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "glyph:a", *v)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, f.Len())
}

func TestGet_PanickingBuildIsRetried(t *testing.T) {
	var attempts atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	f, err := NewFactory(func(k string) (string, error) {
		if attempts.Add(1) == 1 {
			close(started)
			<-release
			panic("corrupt font table")
		}
		return "glyph:" + k, nil
	})
	require.NoError(t, err)

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.Get("k")
		firstErr <- err
	}()
	<-started

	waiterDone := make(chan error, 1)
	go func() {
		_, err := f.Get("k")
		waiterDone <- err
	}()
	close(release)

	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, ErrBuildPanicked)
		assert.Contains(t, err.Error(), "corrupt font table")
	case <-time.After(5 * time.Second):
		t.Fatal("building Get never returned")
	}
	select {
	case err := <-waiterDone:
		// the waiter either shared the failure or rebuilt after it
		if err != nil {
			assert.ErrorIs(t, err, ErrBuildPanicked)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiting Get blocked after a panicking build")
	}

	v, err := f.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "glyph:k", *v)
	assert.Equal(t, 1, f.Len())
}

func TestGet_ConcurrentFirstRequestsBuildOnce(t *testing.T) {
	var builds atomic.Int32
	release := make(chan struct{})
	f, err := NewFactory(func(k glyphKey) (glyph, error) {
		builds.Add(1)
		<-release
		return glyph{symbol: k.Symbol, font: k.Font}, nil
	})
	require.NoError(t, err)

	const workers = 16
	results := make([]*glyph, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := f.Get(glyphKey{'Q', "Serif"})
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, builds.Load())
	for _, g := range results {
		assert.Same(t, results[0], g)
	}
}

type countingObserver struct {
	mu                   sync.Mutex
	hits, misses, failed int
}

func (o *countingObserver) Hit(string)           { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *countingObserver) Miss(string)          { o.mu.Lock(); o.misses++; o.mu.Unlock() }
func (o *countingObserver) Failed(string, error) { o.mu.Lock(); o.failed++; o.mu.Unlock() }

func TestObserver(t *testing.T) {
	obs := &countingObserver{}
	f, err := NewFactory(func(k string) (int, error) {
		if k == "bad" {
			return 0, errors.New("nope")
		}
		return len(k), nil
	}, WithObserver[string](obs))
	require.NoError(t, err)

	for _, k := range []string{"a", "a", "bb", "a", "bad"} {
		_, _ = f.Get(k)
	}
	assert.Equal(t, 2, obs.hits)
	assert.Equal(t, 3, obs.misses)
	assert.Equal(t, 1, obs.failed)
}

func TestNewFactory_NilBuilder(t *testing.T) {
	_, err := NewFactory[string, int](nil)
	assert.ErrorIs(t, err, ErrNilBuilder)
}
