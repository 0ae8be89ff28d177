package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueContextGetHas(t *testing.T) {
	ctx := NewValueContext(map[string]any{"x": "1"})
	v, ok := ctx.Get("x")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.True(t, ctx.Has("x"))
	assert.False(t, ctx.Has("y"))
}

func TestValueContextSetOnceRejectsOverwrite(t *testing.T) {
	ctx := NewValueContext(nil)
	require.NoError(t, ctx.SetOnce("a", "first"))
	err := ctx.SetOnce("a", "second")
	require.Error(t, err)

	v, _ := ctx.Get("a")
	assert.Equal(t, "first", v, "no-overwrite invariant from spec section 3/5")
}

func TestValueContextHasAll(t *testing.T) {
	ctx := NewValueContext(map[string]any{"a": 1, "b": 2})
	assert.True(t, ctx.HasAll([]string{"a", "b"}))
	assert.False(t, ctx.HasAll([]string{"a", "c"}))
	assert.True(t, ctx.HasAll(nil))
}

func TestValueContextSnapshotIsACopy(t *testing.T) {
	ctx := NewValueContext(map[string]any{"a": 1})
	snap := ctx.Snapshot()
	snap["a"] = 99
	v, _ := ctx.Get("a")
	assert.Equal(t, 1, v)
}

func TestValueContextConcurrentWritesOnlyOneWins(t *testing.T) {
	ctx := NewValueContext(nil)
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ctx.SetOnce("shared", i)
		}()
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}
