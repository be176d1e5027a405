package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gantzhq/gantz/internal/feed"
	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/models"
)

// photoAdmin is what the browser needs to act on a photo.
type photoAdmin interface {
	SetCaption(ctx context.Context, id, caption string) (*models.Photo, error)
	DeletePhoto(ctx context.Context, id string) error
}

// browser pages through the gallery in the terminal. The viewport is a window of
// screen rows; Enter scrolls it down by one screen.
type browser struct {
	feed    *feed.Controller[models.Photo]
	watcher *feed.Watcher
	admin   photoAdmin
	viewer  func() gate.Viewer
	out     io.Writer
	screen  int

	pos       int
	printed   int
	announced bool

	// positions feeds the watcher goroutine; settled acknowledges each one.
	positions chan int
	settled   chan struct{}
	done      chan struct{}
}

func newBrowser(f *feed.Controller[models.Photo], admin photoAdmin, viewer func() gate.Viewer, out io.Writer, screen, margin int) *browser {
	if screen <= 0 {
		screen = 10
	}
	b := &browser{feed: f, admin: admin, viewer: viewer, out: out, screen: screen}
	b.watcher = feed.NewWatcher(f)
	b.watcher.Margin = margin
	b.watcher.OnError = func(err error) { fmt.Fprintf(out, "load failed: %v\n", err) }
	return b
}

func photoLine(i int, p models.Photo) string {
	caption := "(no caption)"
	if p.Caption != nil {
		caption = *p.Caption
	}
	return fmt.Sprintf("%4d  %s  %-40s %s", i, p.CreatedAt.Local().Format("2006-01-02 15:04"), caption, p.ImageURL)
}

// watch runs the watcher on its own goroutine until the returned stop is called.
func (b *browser) watch(ctx context.Context) (stop func()) {
	wctx, cancel := context.WithCancel(ctx)
	b.positions = make(chan int)
	b.settled = make(chan struct{}, 1)
	b.done = make(chan struct{})
	b.watcher.Settled = func(int) { b.settled <- struct{}{} }
	go func() {
		defer close(b.done)
		_ = b.watcher.Run(wctx, b.positions)
	}()
	return func() {
		close(b.positions)
		cancel()
		<-b.done
	}
}

// scroll moves the viewport bottom to pos, waits for the watcher to load what it
// asks for and prints the rows that came into view.
func (b *browser) scroll(pos int) {
	b.pos = pos
	select {
	case b.positions <- pos:
		select {
		case <-b.settled:
		case <-b.done:
		}
	case <-b.done:
	}
	s := b.feed.Snapshot()
	end := pos
	if end > len(s.Items) {
		end = len(s.Items)
	}
	for i := b.printed; i < end; i++ {
		fmt.Fprintln(b.out, photoLine(i, s.Items[i]))
	}
	if end > b.printed {
		b.printed = end
	}
	if !s.HasMore && b.printed >= len(s.Items) && !b.announced {
		b.announced = true
		if len(s.Items) == 0 {
			fmt.Fprintln(b.out, "no photos yet")
		} else {
			fmt.Fprintln(b.out, "end of feed")
		}
	}
}

// reprint shows the rows currently in view again after an edit.
func (b *browser) reprint() {
	s := b.feed.Snapshot()
	b.printed = 0
	b.announced = false
	end := b.pos
	if end > len(s.Items) {
		end = len(s.Items)
	}
	for i := 0; i < end; i++ {
		fmt.Fprintln(b.out, photoLine(i, s.Items[i]))
	}
	b.printed = end
}

func (b *browser) help() {
	fmt.Fprintln(b.out, "enter: more  q: quit")
	if b.viewer().Admin {
		fmt.Fprintln(b.out, "d N: delete photo N  c N TEXT: set caption of photo N")
	}
}

func (b *browser) pick(arg string) (models.Photo, bool) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintln(b.out, "expected a photo number")
		return models.Photo{}, false
	}
	p, ok := b.feed.Select(i)
	if !ok {
		fmt.Fprintf(b.out, "no photo %d\n", i)
	}
	return p, ok
}

func (b *browser) command(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if !b.viewer().Admin {
		fmt.Fprintln(b.out, "admin only")
		return
	}
	switch fields[0] {
	case "d":
		if len(fields) != 2 {
			b.help()
			return
		}
		p, ok := b.pick(fields[1])
		if !ok {
			return
		}
		if err := b.admin.DeletePhoto(ctx, p.ID); err != nil {
			fmt.Fprintf(b.out, "delete failed: %v\n", err)
			return
		}
		b.feed.Remove(func(x models.Photo) bool { return x.ID == p.ID })
		b.reprint()
	case "c":
		if len(fields) < 2 {
			b.help()
			return
		}
		p, ok := b.pick(fields[1])
		if !ok {
			return
		}
		caption := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[1:]), fields[1]))
		updated, err := b.admin.SetCaption(ctx, p.ID, caption)
		if err != nil {
			fmt.Fprintf(b.out, "caption failed: %v\n", err)
			return
		}
		b.feed.Replace(func(x models.Photo) bool { return x.ID == p.ID }, *updated)
		b.reprint()
	default:
		b.help()
	}
}

// run loads the first page, shows one screen and then follows the input lines.
func (b *browser) run(ctx context.Context, in io.Reader) error {
	if _, err := b.feed.LoadPage(ctx, true); err != nil {
		return err
	}
	b.help()
	stop := b.watch(ctx)
	defer stop()
	b.scroll(b.screen)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "q":
			return nil
		case "":
			b.scroll(b.pos + b.screen)
		default:
			b.command(ctx, line)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return sc.Err()
}
