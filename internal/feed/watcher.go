package feed

import (
	"context"
	"errors"
)

const DefaultMargin = 300

// Loader is what a Watcher drives; *Controller satisfies it.
type Loader interface {
	LoadPage(ctx context.Context, reset bool) (bool, error)
	HasMore() bool
	Len() int
}

// Watcher loads further pages as the viewport approaches the sentinel that sits after
// the last loaded item.
type Watcher struct {
	feed Loader

	// Margin is how close, in position units, the viewport may come to the sentinel
	// before the next page is requested.
	Margin int
	// Extent is the size of one item in position units.
	Extent int
	// OnError receives load failures; the watcher keeps running.
	OnError func(error)
	// Settled, when set, is called by Run after each position has been handled,
	// that is once the pages it called for have loaded or failed.
	Settled func(pos int)
}

func NewWatcher(l Loader) *Watcher {
	return &Watcher{feed: l, Margin: DefaultMargin, Extent: 1, OnError: func(error) {}}
}

// near reports whether a viewport whose bottom edge is at pos is within the margin of
// the sentinel.
func (w *Watcher) near(pos int) bool {
	extent := w.Extent
	if extent <= 0 {
		extent = 1
	}
	return w.feed.Len()*extent-pos <= w.Margin
}

// Check handles one viewport position. After each applied page it looks again, so a
// viewport that is still close keeps loading until it is not or the feed is exhausted.
func (w *Watcher) Check(ctx context.Context, pos int) error {
	for w.feed.HasMore() && w.near(pos) {
		loaded, err := w.feed.LoadPage(ctx, false)
		if err != nil {
			return err
		}
		if !loaded {
			return nil
		}
	}
	return nil
}

// Run consumes viewport positions until ctx is done, positions is closed or the feed
// is closed. Positions that queued up while a page was loading are judged against
// the grown feed, so a burst of scroll events yields one request.
func (w *Watcher) Run(ctx context.Context, positions <-chan int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pos, ok := <-positions:
			if !ok {
				return nil
			}
			err := w.Check(ctx, pos)
			if errors.Is(err, ErrClosed) {
				return nil
			}
			if err != nil {
				w.OnError(err)
			}
			if w.Settled != nil {
				w.Settled(pos)
			}
		}
	}
}
