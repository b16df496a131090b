package model

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const MinPasswordLength = 6

var (
	ErrPINFormat      = errors.New("pin must be exactly 4 digits")
	ErrEmailFormat    = errors.New("invalid email format")
	ErrNameRequired   = errors.New("name is required")
	ErrPasswordPolicy = errors.New("password must be at least 6 characters with an upper-case letter, a digit and a special character")
	ErrInvalidAmount  = errors.New("amount must be a positive number")
)

var (
	pinPattern      = regexp.MustCompile(`^\d{4}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
)

// ValidatePIN checks that pin is exactly four ASCII digits.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrPINFormat
	}
	return nil
}

// ValidateEmail checks the address has a local part, a domain and a dot in the domain.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrEmailFormat
	}
	return nil
}

// ValidateName rejects blank names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	return nil
}

// ValidatePassword enforces the registration policy: at least MinPasswordLength
// characters from [A-Za-z0-9@$!%*?&] with one upper-case letter, one digit and
// one special character.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || !passwordCharset.MatchString(password) {
		return ErrPasswordPolicy
	}
	var upper, digit, special bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&", c):
			special = true
		}
	}
	if !upper || !digit || !special {
		return ErrPasswordPolicy
	}
	return nil
}

// ParseAmount parses a user-entered amount. Only positive decimals are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
