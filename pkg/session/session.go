// Package session owns the client's in-memory authentication state.
//
// A Manager is the single owner of the session and of its persisted form:
// no other component writes the credential store. Reads never touch the
// network; the token is only validated by the server on the next API call.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/NicolasHaas/gowallet/pkg/credstore"
	"github.com/NicolasHaas/gowallet/pkg/logging"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

// ErrPartialSession is returned by Establish when the principal or the token is missing.
var ErrPartialSession = errors.New("session: principal and token are both required")

// ErrUnknownRole is returned by Establish when the principal's role is not recognised.
var ErrUnknownRole = errors.New("session: unknown principal role")

// CredentialStore is the durable single-record persistence used by the Manager.
type CredentialStore interface {
	Load() (*credstore.Record, error)
	Save(rec credstore.Record) error
	Clear() error
}

// Session is a read snapshot of the authentication state.
type Session struct {
	Principal *model.User
	Token     string
	Role      model.Role

	// Hydrated is false until the persisted record has been consulted once
	// (or a session was established directly).
	Hydrated bool
}

// Authenticated reports whether a complete session is present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Principal != nil
}

// Manager holds the current session and keeps the credential store in sync with it.
type Manager struct {
	// writeMu serialises mutations so persistence and notifications happen in order.
	writeMu sync.Mutex

	mu        sync.RWMutex
	principal *model.User
	token     string
	hydrated  bool
	subs      map[int]func(Session)
	nextSub   int

	store CredentialStore
}

// New creates an empty, not yet hydrated Manager over store.
func New(store CredentialStore) *Manager {
	return &Manager{
		store: store,
		subs:  make(map[int]func(Session)),
	}
}

// Snapshot returns the latest locally-known session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	s := Session{Token: m.token, Hydrated: m.hydrated}
	if m.principal != nil {
		p := *m.principal
		s.Principal = &p
		s.Role = p.Role
	}
	return s
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Establish replaces the session wholesale with principal and token, persists
// it and notifies subscribers before returning. A persistence failure is
// returned, but the in-memory session stays established.
func (m *Manager) Establish(principal model.User, token string) error {
	if token == "" || principal.ID == "" {
		return ErrPartialSession
	}
	if !principal.Role.Valid() {
		return ErrUnknownRole
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	p := principal
	m.mu.Lock()
	m.principal = &p
	m.token = token
	m.hydrated = true
	snap := m.snapshotLocked()
	m.mu.Unlock()

	err := m.store.Save(credstore.Record{User: &p, Token: token, Role: p.Role})
	if err != nil {
		slog.Error("persist session", "err", err)
	}
	slog.Info("session established", "user", p.ID, "role", p.Role, logging.Token(token))

	m.notify(snap)
	return err
}

// Clear signs out: the session is emptied and the persisted record removed.
func (m *Manager) Clear() error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.principal = nil
	m.token = ""
	m.hydrated = true
	snap := m.snapshotLocked()
	m.mu.Unlock()

	err := m.store.Clear()
	if err != nil {
		slog.Error("remove persisted session", "err", err)
	}
	slog.Info("session cleared")

	m.notify(snap)
	return err
}

// Rehydrate consults the credential store once the in-memory session is known
// to be empty and adopts a complete persisted record without contacting the
// server. Corrupt or partial records are discarded and the user is treated as
// signed out. Safe to call from every consumer; later calls are no-ops once a
// session is present.
func (m *Manager) Rehydrate() {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	empty := m.token == ""
	wasHydrated := m.hydrated
	m.mu.RUnlock()

	var adopted *credstore.Record
	if empty {
		adopted = m.loadRecord()
	}

	m.mu.Lock()
	if adopted != nil && m.token == "" {
		p := *adopted.User
		m.principal = &p
		m.token = adopted.Token
	} else {
		adopted = nil
	}
	m.hydrated = true
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if adopted != nil {
		slog.Debug("session rehydrated", "user", snap.Principal.ID, "role", snap.Role)
	}
	if adopted != nil || !wasHydrated {
		m.notify(snap)
	}
}

func (m *Manager) loadRecord() *credstore.Record {
	rec, err := m.store.Load()
	switch {
	case errors.Is(err, credstore.ErrCorrupt):
		slog.Warn("discarding unreadable persisted session", "err", err)
		if err := m.store.Clear(); err != nil {
			slog.Error("remove persisted session", "err", err)
		}
		return nil
	case err != nil:
		slog.Error("load persisted session", "err", err)
		return nil
	case rec == nil:
		return nil
	case rec.User == nil || rec.User.ID == "" || rec.Token == "" || !rec.User.Role.Valid():
		slog.Warn("discarding partial persisted session")
		if err := m.store.Clear(); err != nil {
			slog.Error("remove persisted session", "err", err)
		}
		return nil
	}
	return rec
}

// Subscribe registers fn to be called synchronously after every change.
// fn runs while the mutation is still in progress and must not call
// Establish, Clear or Rehydrate.
// The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(s Session) {
	m.mu.RLock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}
