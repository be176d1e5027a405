package gate

import (
	"context"
	"sync"
)

// Session is the process-wide viewer context of a client: it holds the current token
// and re-resolves the viewer on start, on every gate event and on Refresh.
type Session struct {
	gate *Gate
	ctx  context.Context

	mu     sync.Mutex
	token  string
	viewer Viewer
	subs   []func(Viewer)
	closed bool

	detach func()
}

// NewSession resolves the viewer for token and starts following the gate.
func NewSession(ctx context.Context, g *Gate, token string) *Session {
	s := &Session{gate: g, ctx: ctx, token: token}
	s.viewer = g.Resolve(ctx, token)
	s.detach = g.Subscribe(func(Event) { s.Refresh(s.ctx) })
	return s
}

func (s *Session) Viewer() Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken swaps the token (sign-in, sign-out, refresh) and re-resolves.
func (s *Session) SetToken(ctx context.Context, token string) Viewer {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh re-resolves the viewer and publishes it to subscribers.
func (s *Session) Refresh(ctx context.Context) Viewer {
	s.mu.Lock()
	if s.closed {
		v := s.viewer
		s.mu.Unlock()
		return v
	}
	token := s.token
	s.mu.Unlock()

	v := s.gate.Resolve(ctx, token)

	s.mu.Lock()
	if s.closed || s.token != token {
		// superseded while resolving
		v = s.viewer
		s.mu.Unlock()
		return v
	}
	s.viewer = v
	subs := append([]func(Viewer){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
	return v
}

// Subscribe is called with every newly resolved viewer.
func (s *Session) Subscribe(fn func(Viewer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Close detaches the session from the gate; further events are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.subs = nil
	s.mu.Unlock()
	s.detach()
}
