// Package model defines the core domain types for the wallet client.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// User is an identity known to the wallet service. The authenticated principal
// of a session and the counterparties offered for transfers share this shape.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// UnmarshalJSON accepts both "id" and "_id"; the service uses the latter for list entries.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string `json:"id"`
		MongoID  string `json:"_id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		RoleName string `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.ID = raw.ID
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	u.Name = raw.Name
	u.Email = raw.Email
	u.Role = ParseRole(raw.RoleName)
	return nil
}

// Profile is the server's view of the signed-in user.
type Profile struct {
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
}

// Party is one side of a recorded transfer.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Transaction is a completed transfer as reported by the history endpoint.
type Transaction struct {
	ID       string          `json:"_id"`
	Sender   Party           `json:"sender"`
	Receiver Party           `json:"receiver"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}
