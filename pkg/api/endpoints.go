package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/gowallet/pkg/model"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	TransactionPIN string `json:"transactionPin"`
}

// LoginResult is the principal and bearer token issued on login.
type LoginResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// PayResult is the answer to a transfer. SenderBalance is invalid when the
// service accepted the transfer without reporting the new balance.
type PayResult struct {
	SenderBalance decimal.NullDecimal `json:"senderBalance"`
	Message       string              `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account. It returns the server's confirmation text.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{op: "register", method: http.MethodPost, path: "/api/users/register", in: req, out: &out})
	return out.Message, err
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var out LoginResult
	if err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/api/users/login", in: in, out: &out}); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" || out.User.ID == "" {
		return LoginResult{}, fmt.Errorf("api: login: %w: missing user or token", ErrMalformedResponse)
	}
	return out, nil
}

// Profile fetches the signed-in user's name, email and balance.
func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, call{op: "profile", method: http.MethodGet, path: "/api/users/profile", authed: true, out: &out})
	return out, err
}

// UpdateProfile changes name and email. It returns the server's confirmation text.
func (c *Client) UpdateProfile(ctx context.Context, name, email string) (string, error) {
	in := struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}{name, email}
	var out messageResponse
	err := c.do(ctx, call{op: "update profile", method: http.MethodPut, path: "/api/users/profile", authed: true, in: in, out: &out})
	return out.Message, err
}

// UpdatePIN replaces the transaction PIN.
func (c *Client) UpdatePIN(ctx context.Context, current, next string) (string, error) {
	in := struct {
		CurrentPIN string `json:"currentPIN"`
		NewPIN     string `json:"newPIN"`
	}{current, next}
	var out messageResponse
	err := c.do(ctx, call{op: "update pin", method: http.MethodPut, path: "/api/users/update-pin", authed: true, in: in, out: &out})
	return out.Message, err
}

// RequestPasswordReset asks the service to mail a reset link. No session is needed.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	in := struct {
		Email string `json:"email"`
	}{email}
	var out messageResponse
	err := c.do(ctx, call{op: "request password reset", method: http.MethodPost, path: "/api/users/request-password-reset", in: in, out: &out})
	return out.Message, err
}

// TransactionList returns the users that can receive a transfer.
func (c *Client) TransactionList(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := c.do(ctx, call{op: "transaction list", method: http.MethodGet, path: "/api/users/transaction-list", authed: true, out: &out})
	return out, err
}

// Pay transfers amount to receiverID, authorised by pin.
func (c *Client) Pay(ctx context.Context, receiverID string, amount decimal.Decimal, pin string) (PayResult, error) {
	in := struct {
		ReceiverID     string      `json:"receiverId"`
		Amount         json.Number `json:"amount"`
		TransactionPIN string      `json:"transactionPin"`
	}{receiverID, json.Number(amount.String()), pin}
	var out PayResult
	err := c.do(ctx, call{op: "pay", method: http.MethodPost, path: "/api/users/pay", authed: true, in: in, out: &out})
	return out, err
}

// Transactions returns the signed-in user's transfer history.
func (c *Client) Transactions(ctx context.Context) ([]model.Transaction, error) {
	var out struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	err := c.do(ctx, call{op: "transactions", method: http.MethodGet, path: "/api/users/transactions", authed: true, out: &out})
	return out.Transactions, err
}

// WalletBalance returns the signed-in user's balance.
func (c *Client) WalletBalance(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		WalletBalance decimal.Decimal `json:"walletBalance"`
	}
	err := c.do(ctx, call{op: "wallet balance", method: http.MethodGet, path: "/api/users/wallet/get-wallet-balance", authed: true, out: &out})
	return out.WalletBalance, err
}

// AdminUsers lists every account. Admin only.
func (c *Client) AdminUsers(ctx context.Context) ([]model.User, error) {
	var out struct {
		Users []model.User `json:"users"`
	}
	err := c.do(ctx, call{op: "admin users", method: http.MethodGet, path: "/api/admin/users", authed: true, out: &out})
	return out.Users, err
}

// AdminUpdateWallet credits amount to userID. Admin only.
func (c *Client) AdminUpdateWallet(ctx context.Context, userID string, amount decimal.Decimal) (string, error) {
	in := struct {
		UserID string      `json:"userId"`
		Amount json.Number `json:"amount"`
	}{userID, json.Number(amount.String())}
	var out messageResponse
	err := c.do(ctx, call{op: "admin update wallet", method: http.MethodPut, path: "/api/admin/users/update-wallet", authed: true, in: in, out: &out})
	return out.Message, err
}
