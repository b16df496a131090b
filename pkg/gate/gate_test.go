package gate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/NicolasHaas/gowallet/pkg/credstore"
	"github.com/NicolasHaas/gowallet/pkg/gate"
	"github.com/NicolasHaas/gowallet/pkg/model"
	"github.com/NicolasHaas/gowallet/pkg/session"
)

var (
	alice = model.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: model.RoleUser}
	root  = model.User{ID: "a1", Name: "Root", Email: "root@example.com", Role: model.RoleAdmin}
	mod   = model.User{ID: "m1", Name: "Mod", Email: "mod@example.com", Role: model.ParseRole("moderator")}
)

func TestEvaluate(t *testing.T) {
	userSession := session.Session{Principal: &alice, Token: "t", Role: model.RoleUser, Hydrated: true}
	adminSession := session.Session{Principal: &root, Token: "t", Role: model.RoleAdmin, Hydrated: true}

	tests := []struct {
		name    string
		s       session.Session
		allowed []model.Role
		want    gate.Decision
	}{
		{"not hydrated", session.Session{}, []model.Role{model.RoleUser}, gate.Decision{Outcome: gate.Suspend}},
		{"not hydrated with token", session.Session{Principal: &alice, Token: "t"}, []model.Role{model.RoleUser}, gate.Decision{Outcome: gate.Suspend}},
		{"signed out", session.Session{Hydrated: true}, []model.Role{model.RoleUser}, gate.Decision{Outcome: gate.RedirectLogin, Target: gate.RouteLogin}},
		{"token without principal", session.Session{Token: "t", Hydrated: true}, []model.Role{model.RoleUser}, gate.Decision{Outcome: gate.RedirectLogin, Target: gate.RouteLogin}},
		{"user allowed", userSession, []model.Role{model.RoleUser}, gate.Decision{Outcome: gate.Render}},
		{"admin on user view", adminSession, []model.Role{model.RoleUser}, gate.Decision{Outcome: gate.RedirectHome, Target: gate.RouteAdminDashboard}},
		{"user on admin view", userSession, []model.Role{model.RoleAdmin}, gate.Decision{Outcome: gate.RedirectHome, Target: gate.RouteDashboard}},
		{"unknown role", session.Session{Principal: &mod, Token: "t", Role: model.RoleUnknown, Hydrated: true}, []model.Role{model.RoleUser, model.RoleAdmin}, gate.Decision{Outcome: gate.RedirectLogin, Target: gate.RouteLogin}},
		{"shared view", adminSession, []model.Role{model.RoleUser, model.RoleAdmin}, gate.Decision{Outcome: gate.Render}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.Evaluate(tt.s, tt.allowed...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProtectedRoutes(t *testing.T) {
	for _, r := range []gate.Route{gate.RouteLogin, gate.RouteRegister, gate.RouteLanding} {
		if _, ok := gate.Protected(r); ok {
			t.Errorf("%s should be public", r)
		}
	}
	roles, ok := gate.Protected(gate.RouteAdminTopUp)
	if !ok || !cmp.Equal(roles, []model.Role{model.RoleAdmin}) {
		t.Errorf("admin-topup roles = %v, %v", roles, ok)
	}
}

func newManager(t *testing.T) (*session.Manager, *credstore.Store) {
	t.Helper()
	store := credstore.New(credstore.NewMemorySlot())
	return session.New(store), store
}

func TestOpenAdminOnUserDashboard(t *testing.T) {
	m, _ := newManager(t)
	if err := m.Establish(root, "tok"); err != nil {
		t.Fatal(err)
	}
	var h gate.History
	rendered := false
	d := gate.New(m, &h).Open(gate.RouteDashboard, func() { rendered = true })

	if rendered {
		t.Error("user dashboard rendered for admin")
	}
	if d.Outcome != gate.RedirectHome {
		t.Errorf("outcome = %v", d.Outcome)
	}
	if diff := cmp.Diff([]gate.Route{gate.RouteAdminDashboard}, h.Routes()); diff != "" {
		t.Errorf("navigation (-want +got):\n%s", diff)
	}
}

func TestOpenAfterReloadNeverRedirectsToLogin(t *testing.T) {
	// First process signs in and persists.
	store := credstore.New(credstore.NewMemorySlot())
	if err := session.New(store).Establish(alice, "tok"); err != nil {
		t.Fatal(err)
	}

	// "Reload": a fresh manager over the same store.
	m := session.New(store)
	var h gate.History
	g := gate.New(m, &h)
	var trace []gate.Outcome
	g.Trace = func(_ gate.Route, d gate.Decision) { trace = append(trace, d.Outcome) }

	rendered := false
	g.Open(gate.RouteWallet, func() { rendered = true })

	if !rendered {
		t.Error("wallet not rendered after reload")
	}
	if diff := cmp.Diff([]gate.Outcome{gate.Suspend, gate.Render}, trace); diff != "" {
		t.Errorf("decisions (-want +got):\n%s", diff)
	}
	if len(h.Routes()) != 0 {
		t.Errorf("unexpected navigation: %v", h.Routes())
	}
}

func TestOpenAfterLogoutAndReload(t *testing.T) {
	store := credstore.New(credstore.NewMemorySlot())
	m := session.New(store)
	if err := m.Establish(alice, "tok"); err != nil {
		t.Fatal(err)
	}
	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}

	reloaded := session.New(store)
	var h gate.History
	d := gate.New(reloaded, &h).Open(gate.RouteProfile, func() { t.Error("profile rendered while signed out") })
	if d.Outcome != gate.RedirectLogin || h.Current() != gate.RouteLogin {
		t.Errorf("decision = %+v, current = %s", d, h.Current())
	}
}

func TestOpenPublicRoute(t *testing.T) {
	m, _ := newManager(t)
	var h gate.History
	rendered := false
	d := gate.New(m, &h).Open(gate.RouteLogin, func() { rendered = true })
	if !rendered || d.Outcome != gate.Render {
		t.Errorf("login not rendered: %+v", d)
	}
	if m.Snapshot().Hydrated {
		t.Error("public route should not hydrate the session")
	}
}

func TestNavigatorFunc(t *testing.T) {
	var got gate.Route
	gate.NavigatorFunc(func(r gate.Route) { got = r }).Navigate(gate.RouteWallet)
	if got != gate.RouteWallet {
		t.Errorf("got %s", got)
	}
}
