// Package profile implements the account view: name and email changes,
// transaction PIN rotation and password reset requests.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/gowallet/pkg/api"
	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

// User-visible messages.
const (
	MsgFetchFailed    = "Unable to fetch user details."
	MsgNameRequired   = "Name is required."
	MsgEmailFormat    = "Invalid email format."
	MsgNoChanges      = "No changes detected."
	MsgProfileUpdated = "Profile updated successfully."
	MsgUpdateFailed   = "Failed to update profile."
	MsgCurrentPIN     = "Current PIN must be exactly 4 digits."
	MsgNewPIN         = "New PIN must be exactly 4 digits."
	MsgConfirmPIN     = "Confirmation PIN must be exactly 4 digits."
	MsgPINMismatch    = "New PIN and confirmation do not match."
	MsgPINUpdated     = "Transaction PIN updated successfully."
	MsgPINFailed      = "Failed to update PIN."
	MsgResetSent      = "Password reset email sent."
	MsgResetFailed    = "Failed to send password reset email."
	MsgSessionExpired = "Your session has expired. Please log in again."
)

// API is the part of the service client the profile view uses.
type API interface {
	Profile(ctx context.Context) (model.Profile, error)
	UpdateProfile(ctx context.Context, name, email string) (string, error)
	UpdatePIN(ctx context.Context, current, next string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
}

// State is a snapshot of the view.
type State struct {
	Name       string
	Email      string
	Balance    decimal.Decimal
	Loaded     bool
	LoadError  string
	Last       flow.Result
	Processing bool
}

// View is the profile view model. It is safe for concurrent use.
type View struct {
	api   API
	latch flow.Latch

	mu    sync.Mutex
	state State
}

// New creates a View.
func New(client API) *View {
	return &View{api: client}
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Processing = v.latch.Busy()
	return s
}

// Close detaches the view. Responses that arrive afterwards are dropped.
func (v *View) Close() { v.latch.Close() }

// Load fetches the current profile.
func (v *View) Load(ctx context.Context) error {
	p, err := v.api.Profile(ctx)
	if v.latch.Closed() {
		return flow.ErrClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state.LoadError = api.ServerMessage(err, MsgFetchFailed)
		return fmt.Errorf("profile: load: %w", err)
	}
	v.state.Name, v.state.Email, v.state.Balance = p.Name, p.Email, p.WalletBalance
	v.state.Loaded = true
	v.state.LoadError = ""
	return nil
}

// UpdateProfile changes name and email. The server's current values are
// fetched first; when nothing differs no update is sent.
func (v *View) UpdateProfile(ctx context.Context, name, email string) flow.Result {
	return v.run(func() flow.Result {
		name, email = strings.TrimSpace(name), strings.TrimSpace(email)
		if err := model.ValidateName(name); err != nil {
			return flow.Invalid("name", MsgNameRequired, err)
		}
		if err := model.ValidateEmail(email); err != nil {
			return flow.Invalid("email", MsgEmailFormat, err)
		}

		current, err := v.api.Profile(ctx)
		if v.latch.Closed() {
			return flow.Discard()
		}
		if err != nil {
			return failure(err, MsgFetchFailed)
		}
		if current.Name == name && current.Email == email {
			return flow.Result{Kind: flow.NoChange, Message: MsgNoChanges}
		}

		msg, err := v.api.UpdateProfile(ctx, name, email)
		if v.latch.Closed() {
			return flow.Discard()
		}
		if err != nil {
			return failure(err, MsgUpdateFailed)
		}
		v.mu.Lock()
		v.state.Name, v.state.Email = name, email
		v.mu.Unlock()
		slog.Info("profile updated")
		return success(msg, MsgProfileUpdated)
	})
}

// ChangePIN rotates the transaction PIN. Each input must be four digits and
// the new PIN must match its confirmation before anything is sent.
func (v *View) ChangePIN(ctx context.Context, current, next, confirm string) flow.Result {
	return v.run(func() flow.Result {
		if err := model.ValidatePIN(current); err != nil {
			return flow.Invalid("current", MsgCurrentPIN, err)
		}
		if err := model.ValidatePIN(next); err != nil {
			return flow.Invalid("new", MsgNewPIN, err)
		}
		if err := model.ValidatePIN(confirm); err != nil {
			return flow.Invalid("confirm", MsgConfirmPIN, err)
		}
		if next != confirm {
			return flow.Invalid("confirm", MsgPINMismatch, nil)
		}

		msg, err := v.api.UpdatePIN(ctx, current, next)
		if v.latch.Closed() {
			return flow.Discard()
		}
		if err != nil {
			return failure(err, MsgPINFailed)
		}
		slog.Info("transaction pin changed")
		return success(msg, MsgPINUpdated)
	})
}

// RequestPasswordReset asks the service to mail a reset link to email.
func (v *View) RequestPasswordReset(ctx context.Context, email string) flow.Result {
	return v.run(func() flow.Result {
		email = strings.TrimSpace(email)
		if err := model.ValidateEmail(email); err != nil {
			return flow.Invalid("email", MsgEmailFormat, err)
		}
		msg, err := v.api.RequestPasswordReset(ctx, email)
		if v.latch.Closed() {
			return flow.Discard()
		}
		if err != nil {
			return failure(err, MsgResetFailed)
		}
		return success(msg, MsgResetSent)
	})
}

func (v *View) run(op func() flow.Result) flow.Result {
	if !v.latch.Acquire() {
		return flow.Ignore()
	}
	defer v.latch.Release()

	res := op()
	if res.Kind != flow.Discarded {
		v.mu.Lock()
		v.state.Last = res
		v.mu.Unlock()
	}
	return res
}

func failure(err error, fallback string) flow.Result {
	if api.IsUnauthorized(err) {
		return flow.Fail(MsgSessionExpired, err)
	}
	return flow.Fail(api.ServerMessage(err, fallback), err)
}

func success(serverMsg, fallback string) flow.Result {
	if serverMsg == "" {
		serverMsg = fallback
	}
	return flow.Result{Kind: flow.Success, Message: serverMsg}
}
