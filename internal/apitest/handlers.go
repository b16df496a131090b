package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/NicolasHaas/gowallet/pkg/model"
)

func withUserID(r *http.Request, id string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, id)
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

// wireUser is the list-entry shape the service uses, keyed by "_id".
type wireUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toWire(u model.User) wireUser {
	return wireUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role.String()}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// findByEmail must be called with s.mu held.
func (s *Server) findByEmail(email string) *account {
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		TransactionPIN string `json:"transactionPin"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || model.ValidatePIN(req.TransactionPIN) != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}
	s.mu.Lock()
	exists := s.findByEmail(req.Email) != nil
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	s.AddUser(req.Name, req.Email, req.Password, req.TransactionPIN, model.RoleUser, "0")
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	a := s.findByEmail(req.Email)
	var u model.User
	var hash []byte
	if a != nil {
		u, hash = a.user, a.password
	}
	s.mu.Unlock()
	if a == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": s.Token(u.ID)})
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	found := s.findByEmail(req.Email) != nil
	s.mu.Unlock()
	if !found {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "Password reset email sent")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a := s.accounts[userID(r)]
	body := map[string]any{"name": a.user.Name, "email": a.user.Email, "walletBalance": number(a.balance)}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[userID(r)]
	if other := s.findByEmail(req.Email); other != nil && other != a {
		writeMessage(w, http.StatusBadRequest, "Email already in use")
		return
	}
	a.user.Name, a.user.Email = req.Name, req.Email
	writeMessage(w, http.StatusOK, "Profile updated successfully")
}

func (s *Server) handleUpdatePIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPIN string `json:"currentPIN"`
		NewPIN     string `json:"newPIN"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[userID(r)]
	if a.pin != req.CurrentPIN {
		writeMessage(w, http.StatusBadRequest, "Current PIN is incorrect")
		return
	}
	a.pin = req.NewPIN
	writeMessage(w, http.StatusOK, "Transaction PIN updated successfully")
}

func (s *Server) handleTransactionList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wireUsers())
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": s.wireUsers()})
}

// wireUsers lists every account, the caller included, ordered by name.
func (s *Server) wireUsers() []wireUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wireUser, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, toWire(a.user))
	}
	slices.SortFunc(out, func(a, b wireUser) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReceiverID     string          `json:"receiverId"`
		Amount         decimal.Decimal `json:"amount"`
		TransactionPIN string          `json:"transactionPin"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	arrived, release := s.payArrived, s.payRelease
	s.mu.Unlock()
	if release != nil {
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sender := s.accounts[userID(r)]
	receiver, ok := s.accounts[req.ReceiverID]
	switch {
	case !ok:
		writeMessage(w, http.StatusNotFound, "Receiver not found")
		return
	case sender.pin != req.TransactionPIN:
		writeMessage(w, http.StatusBadRequest, "Invalid transaction PIN")
		return
	case !req.Amount.IsPositive():
		writeMessage(w, http.StatusBadRequest, "Invalid amount")
		return
	case sender.balance.LessThan(req.Amount):
		writeMessage(w, http.StatusBadRequest, "Insufficient balance")
		return
	}
	sender.balance = sender.balance.Sub(req.Amount)
	receiver.balance = receiver.balance.Add(req.Amount)
	s.transfers = append(s.transfers, transfer{
		id: uuid.NewString(), sender: sender.user.ID, receiver: receiver.user.ID,
		amount: req.Amount, date: time.Now().UTC(),
	})

	body := map[string]any{"message": "Payment successful"}
	if !s.omitSenderBalance {
		body["senderBalance"] = number(sender.balance)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	s.mu.Lock()
	out := []map[string]any{}
	for _, t := range s.transfers {
		if t.sender != id && t.receiver != id {
			continue
		}
		out = append(out, map[string]any{
			"_id":      t.id,
			"sender":   s.party(t.sender),
			"receiver": s.party(t.receiver),
			"amount":   number(t.amount),
			"date":     t.date,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

// party must be called with s.mu held.
func (s *Server) party(id string) model.Party {
	a := s.accounts[id]
	return model.Party{Name: a.user.Name, Email: a.user.Email}
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"walletBalance": number(s.Balance(userID(r)))})
}

func (s *Server) handleAdminUpdateWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string          `json:"userId"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[req.UserID]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if !req.Amount.IsPositive() {
		writeMessage(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	a.balance = a.balance.Add(req.Amount)
	writeMessage(w, http.StatusOK, "Wallet updated successfully")
}
