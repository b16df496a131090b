// Package payment implements the transfer dashboard: the list of possible
// counterparties, the signed-in user's balance and the transfer submission.
//
// Balances are never computed locally. The displayed balance only ever comes
// from the server, either from a profile fetch or from the sender balance
// returned by a confirmed transfer.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/NicolasHaas/gowallet/pkg/api"
	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/model"
	"github.com/NicolasHaas/gowallet/pkg/session"
)

// User-visible messages.
const (
	MsgSelectAndAmount = "Please select a user and enter a valid amount."
	MsgInsufficient    = "Insufficient balance."
	MsgPINFormat       = "Transaction PIN must be exactly 4 digits."
	MsgSuccess         = "Payment successful!"
	MsgFailed          = "Payment failed."
	MsgUnconfirmed     = "Payment may have succeeded, but the balance could not be confirmed."
	MsgSessionExpired  = "Your session has expired. Please log in again."
	MsgLoadFailed      = "Failed to load dashboard data."
)

// API is the part of the service client the dashboard uses.
type API interface {
	TransactionList(ctx context.Context) ([]model.User, error)
	Profile(ctx context.Context) (model.Profile, error)
	Pay(ctx context.Context, receiverID string, amount decimal.Decimal, pin string) (api.PayResult, error)
}

// Sessions provides the signed-in principal.
type Sessions interface {
	Snapshot() session.Session
}

// Intent is the transfer being composed.
type Intent struct {
	Counterparty *model.User
	Amount       string
	PIN          string
}

// State is a snapshot of the dashboard.
type State struct {
	Balance        decimal.Decimal
	BalanceKnown   bool
	Counterparties []model.User
	Intent         Intent
	Last           flow.Result
	Loading        bool
	Processing     bool
	LoadError      string
}

// Hooks observe transfer outcomes.
type Hooks struct {
	OnSubmit func(flow.Result)
}

// Dashboard is the transfer view model. It is safe for concurrent use.
type Dashboard struct {
	api      API
	sessions Sessions
	hooks    Hooks
	latch    flow.Latch

	mu    sync.Mutex
	state State
	gen   uint64 // bumped on every balance write
}

// New creates a Dashboard. Call Load to populate it.
func New(client API, sessions Sessions, hooks Hooks) *Dashboard {
	return &Dashboard{api: client, sessions: sessions, hooks: hooks}
}

// State returns a copy of the current state.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.state
	s.Counterparties = append([]model.User(nil), d.state.Counterparties...)
	s.Intent = copyIntent(d.state.Intent)
	s.Processing = d.latch.Busy()
	return s
}

// Intent returns the transfer being composed.
func (d *Dashboard) Intent() Intent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyIntent(d.state.Intent)
}

func copyIntent(in Intent) Intent {
	if in.Counterparty != nil {
		u := *in.Counterparty
		in.Counterparty = &u
	}
	return in
}

// Select chooses the counterparty. A nil user clears the selection.
func (d *Dashboard) Select(u *model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u == nil {
		d.state.Intent.Counterparty = nil
		return
	}
	c := *u
	d.state.Intent.Counterparty = &c
}

// SelectByID chooses the loaded counterparty with the given id.
func (d *Dashboard) SelectByID(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.state.Counterparties {
		if u.ID == id {
			c := u
			d.state.Intent.Counterparty = &c
			return true
		}
	}
	return false
}

// SetAmount sets the amount as typed.
func (d *Dashboard) SetAmount(amount string) {
	d.mu.Lock()
	d.state.Intent.Amount = amount
	d.mu.Unlock()
}

// SetPIN sets the transaction PIN as typed.
func (d *Dashboard) SetPIN(pin string) {
	d.mu.Lock()
	d.state.Intent.PIN = pin
	d.mu.Unlock()
}

// Close detaches the view. Responses that arrive afterwards are dropped.
func (d *Dashboard) Close() {
	d.latch.Close()
}

// Load fetches the counterparties and the balance concurrently. The signed-in
// user is removed from the counterparties. A balance written after Load
// started is newer than the one it fetched and is kept.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.state.Loading = true
	start := d.gen
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.state.Loading = false
		d.mu.Unlock()
	}()

	var (
		users   []model.User
		profile model.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = d.api.TransactionList(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = d.api.Profile(gctx)
		return err
	})
	err := g.Wait()

	if d.latch.Closed() {
		return flow.ErrClosed
	}
	if err != nil {
		slog.Warn("load dashboard", "err", err)
		d.mu.Lock()
		d.state.LoadError = MsgLoadFailed
		d.mu.Unlock()
		return fmt.Errorf("payment: load: %w", err)
	}

	var self string
	if p := d.sessions.Snapshot().Principal; p != nil {
		self = p.ID
	}
	others := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID != self {
			others = append(others, u)
		}
	}

	d.mu.Lock()
	d.state.Counterparties = others
	d.state.LoadError = ""
	if d.gen == start {
		d.setBalanceLocked(profile.WalletBalance)
	} else {
		slog.Debug("dropping stale balance", "fetched", profile.WalletBalance)
	}
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) setBalanceLocked(b decimal.Decimal) {
	d.state.Balance = b
	d.state.BalanceKnown = true
	d.gen++
}

// Submit sends the composed intent.
func (d *Dashboard) Submit(ctx context.Context) flow.Result {
	in := d.Intent()
	return d.SubmitTransfer(ctx, in.Counterparty, in.Amount, in.PIN)
}

// SubmitTransfer checks the transfer locally and sends it. Local checks run in
// a fixed order and none of them reaches the network: a counterparty and a
// positive amount, then the amount against the last known balance, then the
// PIN shape. While a transfer is in flight further calls are ignored.
func (d *Dashboard) SubmitTransfer(ctx context.Context, counterparty *model.User, amount, pin string) flow.Result {
	if !d.latch.Acquire() {
		return flow.Ignore()
	}
	defer d.latch.Release()

	res := d.submit(ctx, counterparty, amount, pin)
	if res.Kind != flow.Discarded {
		d.mu.Lock()
		d.state.Last = res
		d.mu.Unlock()
	}
	if d.hooks.OnSubmit != nil {
		d.hooks.OnSubmit(res)
	}
	return res
}

func (d *Dashboard) submit(ctx context.Context, counterparty *model.User, amount, pin string) flow.Result {
	value, err := model.ParseAmount(amount)
	if counterparty == nil || counterparty.ID == "" || err != nil {
		return flow.Fail(MsgSelectAndAmount, err)
	}

	d.mu.Lock()
	balance := d.state.Balance
	d.mu.Unlock()
	if value.GreaterThan(balance) {
		return flow.Invalid("amount", MsgInsufficient, nil)
	}

	if err := model.ValidatePIN(pin); err != nil {
		return flow.Invalid("pin", MsgPINFormat, err)
	}

	res, err := d.api.Pay(ctx, counterparty.ID, value, pin)
	if d.latch.Closed() {
		return flow.Discard()
	}
	switch {
	case api.IsUnauthorized(err):
		// The client's unauthorized hook has already ended the session.
		return flow.Fail(MsgSessionExpired, err)
	case errors.Is(err, api.ErrMalformedResponse):
		// Accepted with an unreadable body: the transfer may have happened.
		slog.Warn("transfer accepted with unreadable response", "receiver", counterparty.ID, "err", err)
		return d.settle(ctx, flow.Result{Kind: flow.Warning, Message: MsgUnconfirmed, Err: err})
	case err != nil:
		slog.Info("transfer rejected", "receiver", counterparty.ID, "err", err)
		return flow.Fail(api.ServerMessage(err, MsgFailed), err)
	}

	out := flow.Result{Kind: flow.Success, Message: MsgSuccess}
	d.mu.Lock()
	if res.SenderBalance.Valid {
		d.setBalanceLocked(res.SenderBalance.Decimal)
	} else {
		out = flow.Result{Kind: flow.Warning, Message: MsgUnconfirmed}
	}
	d.mu.Unlock()
	slog.Info("transfer accepted", "receiver", counterparty.ID, "confirmed", res.SenderBalance.Valid)
	return d.settle(ctx, out)
}

// settle clears the intent after the server took the transfer and refreshes
// the dashboard.
func (d *Dashboard) settle(ctx context.Context, out flow.Result) flow.Result {
	d.mu.Lock()
	d.state.Intent = Intent{}
	d.mu.Unlock()

	if err := d.Load(ctx); err != nil && !errors.Is(err, flow.ErrClosed) {
		slog.Warn("refresh after transfer", "err", err)
	}
	if d.latch.Closed() {
		return flow.Discard()
	}
	return out
}
