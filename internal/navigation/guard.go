// Package navigation keeps the displayed app region in line with the
// session: signed-out users see auth, unverified users the verification
// screen, incomplete profiles the setup wizard, everyone else the main app.
package navigation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/templui/lanchat/internal/model"
)

type Region string

const (
	RegionNone         Region = ""
	RegionAuth         Region = "auth"
	RegionVerifyEmail  Region = "verify-email"
	RegionProfileSetup Region = "profile-setup"
	RegionMain         Region = "main"
)

// DefaultCooldown suppresses a repeated redirect to the same region.
const DefaultCooldown = 100 * time.Millisecond

// Target returns the region s belongs in. ok is false while the session is
// loading, when no redirect may happen.
func Target(s model.Session) (Region, bool) {
	switch s.State() {
	case model.StateLoading, model.StateUninitialized:
		return RegionNone, false
	case model.StateNeedsVerification:
		return RegionVerifyEmail, true
	case model.StateUnauthenticated:
		return RegionAuth, true
	case model.StateNeedsProfileSetup:
		return RegionProfileSetup, true
	default:
		return RegionMain, true
	}
}

// Navigator is the screen stack being guarded.
type Navigator interface {
	Current() Region
	Replace(Region)
}

// Source publishes sessions, normally a *session.Coordinator.
type Source interface {
	Session() model.Session
	Subscribe(fn func(model.Session)) func()
}

type Guard struct {
	nav      Navigator
	cooldown time.Duration
	clock    func() time.Time

	mu     sync.Mutex
	last   Region
	lastAt time.Time
}

func NewGuard(nav Navigator, cooldown time.Duration) *Guard {
	return &Guard{nav: nav, cooldown: cooldown, clock: time.Now}
}

// Evaluate redirects when s belongs in another region than the current one
// and reports whether it did.
func (g *Guard) Evaluate(s model.Session) bool {
	target, ok := Target(s)
	if !ok {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.nav.Current()
	if current == target {
		return false
	}

	now := g.clock()
	if target == g.last && now.Sub(g.lastAt) < g.cooldown {
		return false
	}
	g.last = target
	g.lastAt = now

	slog.Debug("redirecting", "from", current, "to", target, "state", s.State())
	g.nav.Replace(target)
	return true
}

// Attach evaluates the current session of src and every session it
// publishes afterwards, until the returned func is called.
func (g *Guard) Attach(src Source) func() {
	detach := src.Subscribe(func(s model.Session) {
		g.Evaluate(s)
	})
	g.Evaluate(src.Session())
	return detach
}
