package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/gowallet/pkg/api"
	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

// View messages.
const (
	MsgBalanceFailed = "Failed to fetch wallet balance."
	MsgHistoryFailed = "Failed to load transaction history."
	MsgUsersFailed   = "Failed to fetch users. Please try again."
	MsgTopUpInput    = "Please select a user and enter a valid amount."
	MsgTopUpOK       = "Wallet balance updated successfully!"
	MsgTopUpFailed   = "Failed to update wallet balance. Please try again."
)

// WalletView shows the signed-in user's balance.
type WalletView struct {
	api   *api.Client
	latch flow.Latch

	mu      sync.Mutex
	balance decimal.Decimal
	known   bool
	errMsg  string
}

// NewWalletView creates a WalletView.
func NewWalletView(client *api.Client) *WalletView {
	return &WalletView{api: client}
}

// Refresh fetches the balance again.
func (v *WalletView) Refresh(ctx context.Context) error {
	bal, err := v.api.WalletBalance(ctx)
	if v.latch.Closed() {
		return flow.ErrClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.errMsg = api.ServerMessage(err, MsgBalanceFailed)
		return fmt.Errorf("client: wallet balance: %w", err)
	}
	v.balance, v.known, v.errMsg = bal, true, ""
	return nil
}

// Balance returns the last fetched balance and whether one was fetched.
func (v *WalletView) Balance() (decimal.Decimal, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance, v.known
}

// Error returns the message of the last failed refresh.
func (v *WalletView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

// Close detaches the view.
func (v *WalletView) Close() { v.latch.Close() }

// HistoryView lists the signed-in user's transfers.
type HistoryView struct {
	api   *api.Client
	latch flow.Latch

	mu     sync.Mutex
	items  []model.Transaction
	errMsg string
}

// NewHistoryView creates a HistoryView.
func NewHistoryView(client *api.Client) *HistoryView {
	return &HistoryView{api: client}
}

// Load fetches the history.
func (v *HistoryView) Load(ctx context.Context) error {
	items, err := v.api.Transactions(ctx)
	if v.latch.Closed() {
		return flow.ErrClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.errMsg = MsgHistoryFailed
		return fmt.Errorf("client: transactions: %w", err)
	}
	v.items, v.errMsg = items, ""
	return nil
}

// Transactions returns the loaded transfers.
func (v *HistoryView) Transactions() []model.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Transaction(nil), v.items...)
}

// Error returns the message of the last failed load.
func (v *HistoryView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

// Close detaches the view.
func (v *HistoryView) Close() { v.latch.Close() }

// TopUpView lets an admin credit a user's wallet.
type TopUpView struct {
	api   *api.Client
	latch flow.Latch

	mu     sync.Mutex
	users  []model.User
	errMsg string
	last   flow.Result
}

// NewTopUpView creates a TopUpView.
func NewTopUpView(client *api.Client) *TopUpView {
	return &TopUpView{api: client}
}

// Load fetches the user list.
func (v *TopUpView) Load(ctx context.Context) error {
	users, err := v.api.AdminUsers(ctx)
	if v.latch.Closed() {
		return flow.ErrClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.errMsg = MsgUsersFailed
		return fmt.Errorf("client: admin users: %w", err)
	}
	v.users, v.errMsg = users, ""
	return nil
}

// Users returns the loaded users.
func (v *TopUpView) Users() []model.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.User(nil), v.users...)
}

// Error returns the message of the last failed load.
func (v *TopUpView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

// Last returns the outcome of the last top-up.
func (v *TopUpView) Last() flow.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Close detaches the view.
func (v *TopUpView) Close() { v.latch.Close() }

// TopUp credits amount to userID.
func (v *TopUpView) TopUp(ctx context.Context, userID, amount string) flow.Result {
	if !v.latch.Acquire() {
		return flow.Ignore()
	}
	defer v.latch.Release()

	res := v.topUp(ctx, strings.TrimSpace(userID), amount)
	if res.Kind != flow.Discarded {
		v.mu.Lock()
		v.last = res
		v.mu.Unlock()
	}
	return res
}

func (v *TopUpView) topUp(ctx context.Context, userID, amount string) flow.Result {
	value, err := model.ParseAmount(amount)
	if userID == "" || err != nil {
		return flow.Fail(MsgTopUpInput, err)
	}
	_, err = v.api.AdminUpdateWallet(ctx, userID, value)
	if v.latch.Closed() {
		return flow.Discard()
	}
	if err != nil {
		return flow.Fail(api.ServerMessage(err, MsgTopUpFailed), err)
	}
	return flow.Result{Kind: flow.Success, Message: MsgTopUpOK}
}
