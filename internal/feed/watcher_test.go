package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gantzhq/gantz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_LoadsWithinMargin(t *testing.T) {
	fetch, calls := rows(100)
	c := New(fetch, 10)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)

	w := NewWatcher(c)
	w.Margin = 3

	// sentinel at 10, viewport bottom at 5: too far
	require.NoError(t, w.Check(ctx, 5))
	assert.Equal(t, 10, c.Len())

	require.NoError(t, w.Check(ctx, 7))
	assert.Equal(t, 20, c.Len())
	assert.Equal(t, 2, *calls)

	// stale position from the same burst: sentinel moved on
	require.NoError(t, w.Check(ctx, 7))
	assert.Equal(t, 2, *calls)
}

func TestWatcher_KeepsLoadingWhileClose(t *testing.T) {
	fetch, _ := rows(25)
	c := New(fetch, 5)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)

	w := NewWatcher(c)
	w.Margin = 0
	require.NoError(t, w.Check(ctx, 100))
	assert.Equal(t, 25, c.Len())
	assert.False(t, c.HasMore())
}

func TestWatcher_ExtentScalesPositions(t *testing.T) {
	fetch, _ := rows(100)
	c := New(fetch, 10)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)

	w := NewWatcher(c) // margin 300
	w.Extent = 40      // sentinel at 400
	require.NoError(t, w.Check(ctx, 50))
	assert.Equal(t, 10, c.Len())
	require.NoError(t, w.Check(ctx, 100))
	assert.Equal(t, 20, c.Len())
}

func TestWatcher_RunReportsErrorsAndStopsOnChannelClose(t *testing.T) {
	fail := true
	fetch := func(_ context.Context, r store.Range) ([]int, error) {
		if fail {
			return nil, errors.New("offline")
		}
		if r.From >= 6 {
			return []int{}, nil
		}
		return make([]int, r.Len()), nil
	}
	c := New(Fetcher[int](fetch), 2)
	w := NewWatcher(c)
	errs := make(chan error, 1)
	w.OnError = func(err error) { errs <- err }

	positions := make(chan int)
	done := make(chan error)
	go func() { done <- w.Run(context.Background(), positions) }()

	positions <- 0
	require.EqualError(t, <-errs, "offline")
	fail = false
	positions <- 0
	close(positions)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, 6, c.Len())
	assert.False(t, c.HasMore())
}

func TestWatcher_RunStopsWhenFeedClosed(t *testing.T) {
	fetch, _ := rows(10)
	c := New(fetch, 2)
	c.Close()
	positions := make(chan int, 1)
	positions <- 0
	assert.NoError(t, NewWatcher(c).Run(context.Background(), positions))
}

func TestWatcher_RunStopsOnContext(t *testing.T) {
	fetch, _ := rows(0)
	w := NewWatcher(New(fetch, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx, make(chan int)), context.Canceled)
}

func TestWatcher_RunSettlesEachPosition(t *testing.T) {
	fetch, calls := rows(25)
	c := New(fetch, 10)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)

	w := NewWatcher(c)
	w.Margin = 2
	settled := make(chan int, 1)
	w.Settled = func(pos int) { settled <- pos }

	positions := make(chan int)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, positions) }()

	positions <- 3
	assert.Equal(t, 3, <-settled)
	assert.Equal(t, 10, c.Len(), "far from the sentinel")

	positions <- 9
	assert.Equal(t, 9, <-settled)
	assert.Equal(t, 20, c.Len(), "pages are in place before the position settles")

	positions <- 30
	assert.Equal(t, 30, <-settled)
	assert.Equal(t, 25, c.Len())
	assert.False(t, c.HasMore())
	assert.Equal(t, 3, *calls)

	close(positions)
	require.NoError(t, <-done)
}
