// Package client wires the wallet client together: settings, the credential
// store, the session, the API client, the view gate and the views.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/NicolasHaas/gowallet/pkg/api"
	"github.com/NicolasHaas/gowallet/pkg/credstore"
	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/gate"
	"github.com/NicolasHaas/gowallet/pkg/model"
	"github.com/NicolasHaas/gowallet/pkg/payment"
	"github.com/NicolasHaas/gowallet/pkg/profile"
	"github.com/NicolasHaas/gowallet/pkg/session"
)

// User-visible messages.
const (
	MsgLoginOK       = "Login successful!"
	MsgLoginFailed   = "Login failed. Check your credentials."
	MsgLoginRequired = "Email and password are required."
	MsgRegisterOK    = "Registration successful! Please log in."
	MsgRegisterFail  = "Registration failed. Try again."
)

// ErrRedirected is returned by the Open* methods when the gate sent the client
// elsewhere instead of showing the view.
var ErrRedirected = errors.New("client: redirected")

// Options configures an Engine. Zero values fall back to Settings.
type Options struct {
	Settings   *Settings
	HTTPClient *http.Client

	// Store overrides the credential store built from Settings.
	Store *credstore.Store
}

// Engine is the client: it owns the session and builds gated views.
type Engine struct {
	settings *Settings
	store    *credstore.Store
	sessions *session.Manager
	api      *api.Client
	history  *gate.History
	gate     *gate.Gate
	metrics  *Metrics

	authMu      sync.Mutex // serialises 401 handling
	unsubscribe func()

	// Callbacks for front-end updates. Set before use; they run synchronously.
	OnNavigate      func(route gate.Route)
	OnSessionChange func(s session.Session)
}

// NewEngine creates an Engine. The session is not hydrated until the first
// gated view is opened or Rehydrate is called.
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Settings
	if cfg == nil {
		cfg = DefaultSettings()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = credstore.Open(cfg.CredstoreConfig())
		if err != nil {
			return nil, fmt.Errorf("client: open credential store: %w", err)
		}
	}

	e := &Engine{
		settings: cfg,
		store:    store,
		sessions: session.New(store),
		history:  &gate.History{},
		metrics:  NewMetrics(),
	}
	e.history.OnNavigate = e.navigated
	e.gate = gate.New(e.sessions, e.history)
	e.unsubscribe = e.sessions.Subscribe(e.sessionChanged)

	var limit rate.Limit
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	client, err := api.New(api.Config{
		BaseURL:        cfg.Server,
		HTTPClient:     opts.HTTPClient,
		Tokens:         e.sessions,
		OnUnauthorized: e.handleUnauthorized,
		OnRequest:      e.metrics.observeRequest,
		RateLimit:      limit,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	e.api = client
	return e, nil
}

// Close releases the credential store. The persisted session is kept.
func (e *Engine) Close() error {
	e.unsubscribe()
	e.metrics.LogSummary()
	return e.store.Close()
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// API returns the service client.
func (e *Engine) API() *api.Client { return e.api }

// History returns the navigation history.
func (e *Engine) History() *gate.History { return e.history }

// Metrics returns the runtime counters.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() *Settings { return e.settings }

// Session returns the current session, hydrating it first if needed.
func (e *Engine) Session() session.Session {
	if s := e.sessions.Snapshot(); s.Hydrated {
		return s
	}
	e.sessions.Rehydrate()
	return e.sessions.Snapshot()
}

func (e *Engine) navigated(route gate.Route) {
	if e.OnNavigate != nil {
		e.OnNavigate(route)
	}
}

func (e *Engine) sessionChanged(s session.Session) {
	if e.OnSessionChange != nil {
		e.OnSessionChange(s)
	}
}

// handleUnauthorized ends the session and sends the client to the login view.
// Every authenticated call funnels through here on a 401. Concurrent calls
// that fail together navigate once.
func (e *Engine) handleUnauthorized() {
	e.metrics.AuthFailures.Add(1)
	e.authMu.Lock()
	defer e.authMu.Unlock()
	if e.sessions.Snapshot().Authenticated() {
		_ = e.sessions.Clear()
	}
	if e.history.Current() != gate.RouteLogin {
		e.history.Navigate(gate.RouteLogin)
	}
}

// Login signs in and navigates to the role's home view.
func (e *Engine) Login(ctx context.Context, email, password string) flow.Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return flow.Fail(MsgLoginRequired, nil)
	}
	res, err := e.api.Login(ctx, email, password)
	if err != nil {
		slog.Info("login failed", "err", err)
		return flow.Fail(api.ServerMessage(err, MsgLoginFailed), err)
	}
	if err := e.sessions.Establish(res.User, res.Token); errors.Is(err, session.ErrPartialSession) || errors.Is(err, session.ErrUnknownRole) {
		return flow.Fail(MsgLoginFailed, err)
	}
	e.metrics.Logins.Add(1)
	e.history.Navigate(gate.HomeFor(res.User.Role))
	return flow.Result{Kind: flow.Success, Message: MsgLoginOK}
}

// Logout ends the session and navigates to the login view.
func (e *Engine) Logout() error {
	err := e.sessions.Clear()
	e.metrics.Logouts.Add(1)
	e.history.Navigate(gate.RouteLogin)
	if err != nil {
		return fmt.Errorf("client: logout: %w", err)
	}
	return nil
}

// Register validates form and creates the account. On success it navigates
// to the login view. Field errors are returned without contacting the server.
func (e *Engine) Register(ctx context.Context, form RegisterForm) (flow.Result, FieldErrors) {
	if errs := form.Validate(); len(errs) > 0 {
		return flow.Result{Kind: flow.Error, Message: errs.First()}, errs
	}
	_, err := e.api.Register(ctx, api.RegisterRequest{
		Name:           strings.TrimSpace(form.Name),
		Email:          strings.TrimSpace(form.Email),
		Password:       form.Password,
		TransactionPIN: form.TransactionPIN,
	})
	if err != nil {
		return flow.Fail(api.ServerMessage(err, MsgRegisterFail), err), nil
	}
	e.history.Navigate(gate.RouteLogin)
	return flow.Result{Kind: flow.Success, Message: MsgRegisterOK}, nil
}

// RequestPasswordReset asks for a reset mail without needing a session.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) flow.Result {
	return profile.New(e.api).RequestPasswordReset(ctx, email)
}

// Open runs the gate for route and reports its decision.
func (e *Engine) Open(route gate.Route) gate.Decision {
	return e.gate.Open(route, nil)
}

func (e *Engine) open(route gate.Route, build func()) error {
	d := e.gate.Open(route, build)
	if d.Outcome != gate.Render {
		return fmt.Errorf("%w to %s", ErrRedirected, d.Target)
	}
	return nil
}

// OpenDashboard opens and loads the transfer dashboard. Users only.
func (e *Engine) OpenDashboard(ctx context.Context) (*payment.Dashboard, error) {
	var d *payment.Dashboard
	if err := e.open(gate.RouteDashboard, func() {
		d = payment.New(e.api, e.sessions, payment.Hooks{OnSubmit: e.metrics.observeTransfer})
	}); err != nil {
		return nil, err
	}
	return d, d.Load(ctx)
}

// OpenProfile opens and loads the profile view.
func (e *Engine) OpenProfile(ctx context.Context) (*profile.View, error) {
	var v *profile.View
	if err := e.open(gate.RouteProfile, func() { v = profile.New(e.api) }); err != nil {
		return nil, err
	}
	return v, v.Load(ctx)
}

// OpenWallet opens and loads the balance view.
func (e *Engine) OpenWallet(ctx context.Context) (*WalletView, error) {
	var v *WalletView
	if err := e.open(gate.RouteWallet, func() { v = NewWalletView(e.api) }); err != nil {
		return nil, err
	}
	return v, v.Refresh(ctx)
}

// OpenHistory opens and loads the transaction history.
func (e *Engine) OpenHistory(ctx context.Context) (*HistoryView, error) {
	var v *HistoryView
	if err := e.open(gate.RouteTransactions, func() { v = NewHistoryView(e.api) }); err != nil {
		return nil, err
	}
	return v, v.Load(ctx)
}

// OpenAdminDashboard opens the admin home and loads the user list. Admins only.
func (e *Engine) OpenAdminDashboard(ctx context.Context) ([]model.User, error) {
	if err := e.open(gate.RouteAdminDashboard, nil); err != nil {
		return nil, err
	}
	return e.api.AdminUsers(ctx)
}

// OpenAdminTopUp opens and loads the top-up view. Admins only.
func (e *Engine) OpenAdminTopUp(ctx context.Context) (*TopUpView, error) {
	var v *TopUpView
	if err := e.open(gate.RouteAdminTopUp, func() { v = NewTopUpView(e.api) }); err != nil {
		return nil, err
	}
	return v, v.Load(ctx)
}
