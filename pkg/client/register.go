package client

import (
	"sort"

	"github.com/NicolasHaas/gowallet/pkg/model"
)

// Registration field names, in form order.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldTransactionPIN  = "transactionPin"
)

var fieldOrder = map[string]int{
	FieldName:            0,
	FieldEmail:           1,
	FieldPassword:        2,
	FieldConfirmPassword: 3,
	FieldTransactionPIN:  4,
}

// RegisterForm is the account creation input.
type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	TransactionPIN  string
}

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

// Fields returns the fields with errors in form order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for f := range fe {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return fieldOrder[out[i]] < fieldOrder[out[j]] })
	return out
}

// First returns the message of the first field in form order.
func (fe FieldErrors) First() string {
	if f := fe.Fields(); len(f) > 0 {
		return fe[f[0]]
	}
	return ""
}

// Validate checks every field and collects all problems.
func (f RegisterForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if model.ValidateName(f.Name) != nil {
		errs[FieldName] = "Full name is required"
	}
	if model.ValidateEmail(f.Email) != nil {
		errs[FieldEmail] = "Invalid email format"
	}
	if model.ValidatePassword(f.Password) != nil {
		errs[FieldPassword] = "Password must be at least 6 characters, contain an uppercase letter, a number, and a special character."
	}
	if f.Password != f.ConfirmPassword {
		errs[FieldConfirmPassword] = "Passwords do not match"
	}
	if model.ValidatePIN(f.TransactionPIN) != nil {
		errs[FieldTransactionPIN] = "Transaction PIN must be exactly 4 digits"
	}
	return errs
}
