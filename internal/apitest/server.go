// Package apitest runs an in-process wallet service for client tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/NicolasHaas/gowallet/pkg/model"
)

type account struct {
	user     model.User
	password []byte
	pin      string
	balance  decimal.Decimal
}

type transfer struct {
	id       string
	sender   string
	receiver string
	amount   decimal.Decimal
	date     time.Time
}

type failure struct {
	status  int
	message string
}

// Server is a fake wallet service. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	secret []byte

	mu        sync.Mutex
	accounts  map[string]*account
	transfers []transfer
	hits      map[string]int
	failures  map[string]failure
	garbled   map[string]string
	gen       int

	omitSenderBalance bool
	payArrived        chan struct{}
	payRelease        chan struct{}
}

// New starts a Server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:   []byte("apitest-" + uuid.NewString()),
		accounts: make(map[string]*account),
		hits:     make(map[string]int),
		failures: make(map[string]failure),
		garbled:  make(map[string]string),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.count)

	authed := func(h http.HandlerFunc) http.Handler { return s.authenticate(h) }
	admin := func(h http.HandlerFunc) http.Handler { return s.authenticate(s.requireAdmin(h)) }

	r.HandleFunc("/api/users/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/users/request-password-reset", s.handlePasswordReset).Methods(http.MethodPost)

	r.Handle("/api/users/profile", authed(s.handleProfile)).Methods(http.MethodGet)
	r.Handle("/api/users/profile", authed(s.handleUpdateProfile)).Methods(http.MethodPut)
	r.Handle("/api/users/update-pin", authed(s.handleUpdatePIN)).Methods(http.MethodPut)
	r.Handle("/api/users/transaction-list", authed(s.handleTransactionList)).Methods(http.MethodGet)
	r.Handle("/api/users/pay", authed(s.handlePay)).Methods(http.MethodPost)
	r.Handle("/api/users/transactions", authed(s.handleTransactions)).Methods(http.MethodGet)
	r.Handle("/api/users/wallet/get-wallet-balance", authed(s.handleWalletBalance)).Methods(http.MethodGet)

	r.Handle("/api/admin/users", admin(s.handleAdminUsers)).Methods(http.MethodGet)
	r.Handle("/api/admin/users/update-wallet", admin(s.handleAdminUpdateWallet)).Methods(http.MethodPut)

	return r
}

// AddUser creates an account directly and returns it.
func (s *Server) AddUser(name, email, password, pin string, role model.Role, balance string) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := model.User{ID: uuid.NewString(), Name: name, Email: email, Role: role}
	s.mu.Lock()
	s.accounts[u.ID] = &account{user: u, password: hash, pin: pin, balance: decimal.RequireFromString(balance)}
	s.mu.Unlock()
	return u
}

// Token issues a valid bearer token for userID.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	gen := s.gen
	role := model.RoleUser
	if a, ok := s.accounts[userID]; ok {
		role = a.user.Role
	}
	s.mu.Unlock()
	return s.sign(userID, role, gen)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// Hits returns how many requests reached path, e.g. "/api/users/pay".
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Balance returns the stored balance of userID.
func (s *Server) Balance(userID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[userID]; ok {
		return a.balance
	}
	return decimal.Zero
}

// User returns the stored account details of userID.
func (s *Server) User(userID string) (model.User, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return model.User{}, "", false
	}
	return a.user, a.pin, true
}

// SetBalance overwrites the stored balance of userID.
func (s *Server) SetBalance(userID, balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[userID]; ok {
		a.balance = decimal.RequireFromString(balance)
	}
}

// OmitSenderBalance makes successful payments answer without senderBalance.
func (s *Server) OmitSenderBalance(omit bool) {
	s.mu.Lock()
	s.omitSenderBalance = omit
	s.mu.Unlock()
}

// Fail makes every request to path answer status with message until
// Fail(path, 0, "") is called.
func (s *Server) Fail(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = failure{status: status, message: message}
}

// Garble lets requests to path run normally but replaces the response body
// with body. An empty body restores normal responses.
func (s *Server) Garble(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body == "" {
		delete(s.garbled, path)
		return
	}
	s.garbled[path] = body
}

// HoldPayments parks every pay request until release is called. arrived
// receives once per parked request.
func (s *Server) HoldPayments() (arrived <-chan struct{}, release func()) {
	a := make(chan struct{}, 16)
	r := make(chan struct{})
	s.mu.Lock()
	s.payArrived, s.payRelease = a, r
	s.mu.Unlock()
	var once sync.Once
	return a, func() { once.Do(func() { close(r) }) }
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		f, failing := s.failures[r.URL.Path]
		body, garbled := s.garbled[r.URL.Path]
		s.mu.Unlock()
		switch {
		case failing:
			writeMessage(w, f.status, f.message)
		case garbled:
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)
			w.WriteHeader(rec.Code)
			_, _ = w.Write([]byte(body))
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type claims struct {
	Role string `json:"role"`
	Gen  int    `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) sign(userID string, role model.Role, gen int) string {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role.String(),
		Gen:  gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		var c claims
		_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return s.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		s.mu.Lock()
		_, exists := s.accounts[c.Subject]
		stale := c.Gen != s.gen
		s.mu.Unlock()
		if !exists || stale {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r, c.Subject)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		a := s.accounts[userID(r)]
		isAdmin := a != nil && a.user.Role == model.RoleAdmin
		s.mu.Unlock()
		if !isAdmin {
			writeMessage(w, http.StatusForbidden, "Not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // the client may already be gone
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
