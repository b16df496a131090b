// Package credstore persists the single session record of the wallet client.
//
// A Store holds at most one Record under a fixed key. Every Save fully
// replaces the previous content; there are no partial or merge updates.
// The record is encoded as YAML and handed to a Slot, the raw byte backend
// (file, SQLite, Redis or memory). A Slot may be wrapped by Sealed to keep
// the record encrypted at rest.
package credstore

import (
	"errors"
	"fmt"
	"io"

	"github.com/NicolasHaas/gowallet/pkg/model"
	"gopkg.in/yaml.v3"
)

// Key is the fixed name of the single persisted session record.
const Key = "auth"

// ErrCorrupt is returned by Load when the persisted record cannot be decoded.
var ErrCorrupt = errors.New("credstore: corrupt record")

// Record is the durable form of a session.
type Record struct {
	User  *model.User `yaml:"user"`
	Token string      `yaml:"token"`
	Role  model.Role  `yaml:"role"`
}

// Slot is a single-value byte store. Read returns (nil, nil) when empty and
// Erase on an empty slot is not an error.
type Slot interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Erase() error
}

// Store encodes Records into a Slot.
type Store struct {
	slot Slot
}

// New creates a Store over the given slot.
func New(slot Slot) *Store {
	return &Store{slot: slot}
}

// Load returns the persisted record, or (nil, nil) if none exists.
// Undecodable content yields an error wrapping ErrCorrupt.
func (s *Store) Load() (*Record, error) {
	data, err := s.slot.Read()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &rec, nil
}

// Save overwrites the persisted record.
func (s *Store) Save(rec Record) error {
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("credstore: encode record: %w", err)
	}
	return s.slot.Write(data)
}

// Clear removes the persisted record.
func (s *Store) Clear() error {
	return s.slot.Erase()
}

// Close releases the slot's resources if it holds any.
func (s *Store) Close() error {
	if c, ok := s.slot.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
