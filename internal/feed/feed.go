// Package feed accumulates a newest-first listing page by page.
//
// A Controller owns the cursor, the "more available" flag and an in-flight guard so
// that overlapping load requests collapse into one fetch. Watcher turns viewport
// positions into load requests.
package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/gantzhq/gantz/internal/store"
)

const DefaultPageSize = 24

var ErrClosed = errors.New("feed closed")

// Fetcher returns the rows of r, newest first.
type Fetcher[T any] func(ctx context.Context, r store.Range) ([]T, error)

type Controller[T any] struct {
	fetch Fetcher[T]
	size  int

	mu       sync.Mutex
	page     int
	hasMore  bool
	inFlight bool
	items    []T
	selected *T
	err      error
	gen      int
	closed   bool
	cancel   context.CancelFunc
}

// New returns a controller that has not loaded anything yet; the first call should be
// LoadPage(ctx, true).
func New[T any](fetch Fetcher[T], pageSize int) *Controller[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller[T]{fetch: fetch, size: pageSize, hasMore: true}
}

func (c *Controller[T]) PageSize() int { return c.size }

// LoadPage fetches the next page, or the first page again when reset is set. It
// reports whether a fetch took place and was applied. A call made while another is
// in flight, or with nothing more to load and no reset, does nothing.
//
// On failure the accumulated state is left as it was; the error is returned and kept
// in Err until the next successful load.
func (c *Controller[T]) LoadPage(ctx context.Context, reset bool) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	if c.inFlight || (!reset && !c.hasMore) {
		c.mu.Unlock()
		return false, nil
	}
	page := c.page
	if reset {
		page = 0
	}
	c.inFlight = true
	gen := c.gen
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	batch, err := c.fetch(fctx, store.PageRange(page, c.size))
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		// torn down while fetching; drop the result
		return false, ErrClosed
	}
	c.inFlight = false
	c.cancel = nil
	if err != nil {
		c.err = err
		return false, err
	}
	c.err = nil
	if reset {
		c.items = append(make([]T, 0, len(batch)), batch...)
		c.page = 1
		c.hasMore = len(batch) == c.size
	} else {
		c.items = append(c.items, batch...)
		c.page++
		if len(batch) < c.size {
			c.hasMore = false
		}
	}
	return true, nil
}

// Inserted reloads from the first page after a record was created elsewhere, so the
// feed shows the store's order rather than a local guess.
func (c *Controller[T]) Inserted(ctx context.Context) error {
	_, err := c.LoadPage(ctx, true)
	return err
}

// Remove drops every item match accepts, after a delete. A removed selection is
// cleared. It returns the number of items dropped.
func (c *Controller[T]) Remove(match func(T) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	n := 0
	for _, it := range c.items {
		if match(it) {
			n++
			continue
		}
		kept = append(kept, it)
	}
	var zero T
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = zero
	}
	c.items = kept
	if c.selected != nil && match(*c.selected) {
		c.selected = nil
	}
	return n
}

// Replace swaps items match accepts for the updated value, e.g. after a caption edit.
func (c *Controller[T]) Replace(match func(T) bool, updated T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if match(c.items[i]) {
			c.items[i] = updated
		}
	}
	if c.selected != nil && match(*c.selected) {
		v := updated
		c.selected = &v
	}
}

// Select marks the item at index i as the one being viewed. Out of range clears it.
func (c *Controller[T]) Select(i int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if i < 0 || i >= len(c.items) {
		c.selected = nil
		return zero, false
	}
	v := c.items[i]
	c.selected = &v
	return v, true
}

func (c *Controller[T]) Selected() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		var zero T
		return zero, false
	}
	return *c.selected, true
}

// State is a copy of the controller's observable state.
type State[T any] struct {
	Items    []T
	Page     int
	HasMore  bool
	InFlight bool
	Err      error
}

func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Items:    append([]T(nil), c.items...),
		Page:     c.page,
		HasMore:  c.hasMore,
		InFlight: c.inFlight,
		Err:      c.err,
	}
}

func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Err is the error of the last failed load, cleared by the next successful one.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close cancels a fetch in flight and makes every later call a no-op. A result that
// arrives after Close is discarded.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inFlight = false
}
