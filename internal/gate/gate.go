// Package gate resolves who is looking at the site and whether they may change it.
//
// The admin flag is a single exact comparison against one configured address. The
// HTTP layer enforces it on every mutating route; clients use it to decide which
// actions to offer.
package gate

import (
	"context"
	"sync"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/pkg/logger"
)

// EventKind is an auth-state change reported by the identity provider.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
	Refreshed
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	case Refreshed:
		return "refreshed"
	}
	return "unknown"
}

type Event struct {
	Kind  EventKind
	Email string
}

// Viewer is the resolved identity of a caller. The zero value is the anonymous viewer.
type Viewer struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin"`
}

// Anonymous reports whether no user is signed in.
func (v Viewer) Anonymous() bool { return v.Email == "" }

// Identity looks up the user behind an access token. A nil user means none.
type Identity interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

type subscriber struct {
	id int
	fn func(Event)
}

type Gate struct {
	adminEmail string
	identity   Identity

	mu     sync.Mutex
	subs   []subscriber
	nextID int
}

func New(adminEmail string, identity Identity) *Gate {
	return &Gate{adminEmail: adminEmail, identity: identity}
}

// IsAdmin is an exact, case-sensitive match. An empty email is never admin.
func (g *Gate) IsAdmin(email string) bool {
	return email != "" && g.adminEmail != "" && email == g.adminEmail
}

// Resolve never fails: a missing token, a lookup error or an unknown user all yield
// the anonymous viewer.
func (g *Gate) Resolve(ctx context.Context, token string) Viewer {
	if token == "" || g.identity == nil {
		return Viewer{}
	}
	u, err := g.identity.CurrentUser(ctx, token)
	if err != nil {
		logger.Debugf("viewer resolution failed, treating as anonymous: %v", err)
		return Viewer{}
	}
	if u == nil || u.Email == "" {
		return Viewer{}
	}
	return Viewer{Email: u.Email, Admin: g.IsAdmin(u.Email)}
}

// Subscribe registers fn for auth-state changes. Subscribers run synchronously, in
// subscription order. The returned func unsubscribes and may be called more than once.
func (g *Gate) Subscribe(fn func(Event)) func() {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.subs = append(g.subs, subscriber{id: id, fn: fn})
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			for i, s := range g.subs {
				if s.id == id {
					g.subs = append(g.subs[:i:i], g.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify delivers e to the current subscribers. Subscribers may (un)subscribe from
// inside the callback.
func (g *Gate) Notify(e Event) {
	g.mu.Lock()
	subs := make([]subscriber, len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()
	for _, s := range subs {
		s.fn(e)
	}
}
