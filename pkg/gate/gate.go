// Package gate decides whether a view may be shown for the current session.
package gate

import (
	"log/slog"
	"slices"

	"github.com/NicolasHaas/gowallet/pkg/model"
	"github.com/NicolasHaas/gowallet/pkg/session"
)

// Outcome is the result of evaluating a protected view.
type Outcome int

const (
	Suspend       Outcome = iota // session not known yet: show nothing
	RedirectLogin                // no session
	RedirectHome                 // signed in, but the role may not see this view
	Render
)

func (o Outcome) String() string {
	switch o {
	case Suspend:
		return "suspend"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision pairs an outcome with the route to navigate to, if any.
type Decision struct {
	Outcome Outcome
	Target  Route
}

// Evaluate applies the gate to a session snapshot. The checks run in a fixed
// order: an unhydrated session suspends before anything else, otherwise a
// reload would look like a signed-out user and bounce to the login page.
// A principal with an unrecognised role has no home view and goes to login.
func Evaluate(s session.Session, allowed ...model.Role) Decision {
	if !s.Hydrated {
		return Decision{Outcome: Suspend}
	}
	if !s.Authenticated() || !s.Role.Valid() {
		return Decision{Outcome: RedirectLogin, Target: RouteLogin}
	}
	if !slices.Contains(allowed, s.Role) {
		return Decision{Outcome: RedirectHome, Target: HomeFor(s.Role)}
	}
	return Decision{Outcome: Render}
}

// Sessions is the part of the session manager the gate reads.
type Sessions interface {
	Snapshot() session.Session
	Rehydrate()
}

// Gate guards views using the route table.
type Gate struct {
	sessions Sessions
	nav      Navigator

	// Trace, when set, observes every decision in order. Used by tests and debug logging.
	Trace func(route Route, d Decision)
}

// New creates a Gate.
func New(sessions Sessions, nav Navigator) *Gate {
	return &Gate{sessions: sessions, nav: nav}
}

// Open evaluates route for the current session. While the session is not yet
// hydrated it suspends, hydrates and evaluates again. Redirects navigate;
// Render calls view. Public routes always render.
func (g *Gate) Open(route Route, view func()) Decision {
	roles, protected := Protected(route)
	if !protected {
		d := Decision{Outcome: Render}
		g.trace(route, d)
		if view != nil {
			view()
		}
		return d
	}

	d := Evaluate(g.sessions.Snapshot(), roles...)
	g.trace(route, d)
	if d.Outcome == Suspend {
		g.sessions.Rehydrate()
		d = Evaluate(g.sessions.Snapshot(), roles...)
		g.trace(route, d)
	}

	switch d.Outcome {
	case RedirectLogin, RedirectHome:
		slog.Debug("gate redirect", "route", route, "outcome", d.Outcome, "target", d.Target)
		g.nav.Navigate(d.Target)
	case Render:
		if view != nil {
			view()
		}
	}
	return d
}

func (g *Gate) trace(route Route, d Decision) {
	if g.Trace != nil {
		g.Trace(route, d)
	}
}
