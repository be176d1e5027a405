package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gantzhq/gantz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rows returns a fetcher over m items numbered m-1..0 (newest first).
func rows(m int) (Fetcher[int], *int) {
	calls := 0
	return func(_ context.Context, r store.Range) ([]int, error) {
		calls++
		out := []int{}
		for i := r.From; i <= r.To && i < m; i++ {
			out = append(out, m-1-i)
		}
		return out, nil
	}, &calls
}

func TestLoadPage_AccumulatesMinOfMAndKN(t *testing.T) {
	for _, tc := range []struct{ n, m int }{{24, 0}, {24, 10}, {24, 24}, {24, 50}, {5, 23}, {1, 3}} {
		fetch, _ := rows(tc.m)
		c := New(fetch, tc.n)
		ctx := context.Background()

		_, err := c.LoadPage(ctx, true)
		require.NoError(t, err)
		for k := 1; k <= tc.m/tc.n+2; k++ {
			want := tc.n * k
			if tc.m < want {
				want = tc.m
			}
			require.Equal(t, want, c.Len(), "n=%d m=%d k=%d", tc.n, tc.m, k)
			_, err := c.LoadPage(ctx, false)
			require.NoError(t, err)
		}
		assert.False(t, c.HasMore(), "n=%d m=%d", tc.n, tc.m)
	}
}

func TestLoadPage_HasMoreClearsOnShortBatch(t *testing.T) {
	fetch, calls := rows(30)
	c := New(fetch, 24)
	ctx := context.Background()

	_, _ = c.LoadPage(ctx, true)
	assert.True(t, c.HasMore())
	_, _ = c.LoadPage(ctx, false)
	assert.False(t, c.HasMore())
	assert.Equal(t, 30, c.Len())

	loaded, err := c.LoadPage(ctx, false)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, 2, *calls)
}

func TestLoadPage_NewestFirstOrder(t *testing.T) {
	fetch, _ := rows(5)
	c := New(fetch, 2)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)
	_, _ = c.LoadPage(ctx, false)
	_, _ = c.LoadPage(ctx, false)
	assert.Equal(t, []int{4, 3, 2, 1, 0}, c.Snapshot().Items)
}

func TestLoadPage_ResetReplaces(t *testing.T) {
	m := 50
	fetch := func(_ context.Context, r store.Range) ([]int, error) {
		out := []int{}
		for i := r.From; i <= r.To && i < m; i++ {
			out = append(out, m-1-i)
		}
		return out, nil
	}
	c := New(Fetcher[int](fetch), 24)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)
	_, _ = c.LoadPage(ctx, false)
	require.Equal(t, 48, c.Len())

	m = 51 // one created elsewhere
	require.NoError(t, c.Inserted(ctx))
	st := c.Snapshot()
	assert.Len(t, st.Items, 24)
	assert.Equal(t, 50, st.Items[0])
	assert.Equal(t, 1, st.Page)
	assert.True(t, st.HasMore)
}

func TestLoadPage_BurstIsOneCall(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	fetch := func(_ context.Context, r store.Range) ([]int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return []int{1, 2, 3}, nil
	}
	c := New(Fetcher[int](fetch), 3)
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		ok, _ := c.LoadPage(ctx, true)
		done <- ok
	}()
	require.Eventually(t, func() bool { return c.Snapshot().InFlight }, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(reset bool) {
			defer wg.Done()
			ok, err := c.LoadPage(ctx, reset)
			assert.NoError(t, err)
			assert.False(t, ok)
		}(i%2 == 0)
	}
	wg.Wait()
	close(release)
	require.True(t, <-done)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{1, 2, 3}, c.Snapshot().Items)
	assert.Equal(t, 1, c.Snapshot().Page)
}

func TestLoadPage_FailureLeavesStateButClearsGuard(t *testing.T) {
	fail := false
	fetch := func(_ context.Context, r store.Range) ([]int, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []int{1, 2}, nil
	}
	c := New(Fetcher[int](fetch), 2)
	ctx := context.Background()
	_, err := c.LoadPage(ctx, true)
	require.NoError(t, err)

	fail = true
	before := c.Snapshot()
	_, err = c.LoadPage(ctx, false)
	require.EqualError(t, err, "boom")
	after := c.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.Page, after.Page)
	assert.Equal(t, before.HasMore, after.HasMore)
	assert.False(t, after.InFlight)
	assert.EqualError(t, c.Err(), "boom")

	fail = false
	ok, err := c.LoadPage(ctx, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, c.Err())
}

func TestClose_DiscardsLateResult(t *testing.T) {
	started := make(chan struct{})
	fetch := func(ctx context.Context, r store.Range) ([]int, error) {
		close(started)
		<-ctx.Done()
		return []int{9}, nil
	}
	c := New(Fetcher[int](fetch), 1)

	res := make(chan error)
	go func() {
		_, err := c.LoadPage(context.Background(), true)
		res <- err
	}()
	<-started
	c.Close()
	assert.ErrorIs(t, <-res, ErrClosed)
	assert.Equal(t, 0, c.Len())

	_, err := c.LoadPage(context.Background(), true)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRemoveAndSelect(t *testing.T) {
	fetch, _ := rows(4)
	c := New(fetch, 4)
	ctx := context.Background()
	_, _ = c.LoadPage(ctx, true)

	v, ok := c.Select(1)
	require.True(t, ok)
	require.Equal(t, 2, v)

	assert.Equal(t, 0, c.Remove(func(i int) bool { return i == 99 }))
	_, ok = c.Selected()
	assert.True(t, ok)

	assert.Equal(t, 1, c.Remove(func(i int) bool { return i == 2 }))
	_, ok = c.Selected()
	assert.False(t, ok, "selection of a removed item is cleared")
	assert.Equal(t, []int{3, 1, 0}, c.Snapshot().Items)

	c.Select(0)
	c.Replace(func(i int) bool { return i == 3 }, 30)
	sel, _ := c.Selected()
	assert.Equal(t, 30, sel)

	_, ok = c.Select(10)
	assert.False(t, ok)
}
