package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"four digits", "1234", nil},
		{"leading zeros", "0007", nil},
		{"three digits", "123", ErrPINFormat},
		{"five digits", "12345", ErrPINFormat},
		{"letters", "abcd", ErrPINFormat},
		{"empty", "", ErrPINFormat},
		{"trailing newline", "1234\n", ErrPINFormat},
		{"arabic-indic digits", "١٢٣٤", ErrPINFormat},
		{"spaces", "12 4", ErrPINFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePIN(tt.input); err != tt.wantErr {
				t.Errorf("ValidatePIN(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", "Secret1!", nil},
		{"minimum length", "Ab1@xy", nil},
		{"too short", "Ab1@x", ErrPasswordPolicy},
		{"no upper", "secret1!", ErrPasswordPolicy},
		{"no digit", "Secret!!", ErrPasswordPolicy},
		{"no special", "Secret11", ErrPasswordPolicy},
		{"disallowed char", "Secret1!#", ErrPasswordPolicy},
		{"long valid", "A1@" + strings.Repeat("z", 40), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.input); err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last@example.com"}
	invalid := []string{"", "plain", "a@b", "a b@c.d", "@example.com"}
	for _, in := range valid {
		if err := ValidateEmail(in); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", in, err)
		}
	}
	for _, in := range invalid {
		if err := ValidateEmail(in); err != ErrEmailFormat {
			t.Errorf("ValidateEmail(%q) = %v, want %v", in, err, ErrEmailFormat)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"50", "50", false},
		{" 12.75 ", "12.75", false},
		{"0.01", "0.01", false},
		{"0", "", true},
		{"-5", "", true},
		{"", "", true},
		{"ten", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		if tt.wantErr {
			if err != ErrInvalidAmount {
				t.Errorf("ParseAmount(%q) err = %v, want %v", tt.input, err, ErrInvalidAmount)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tt.input, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"user", RoleUser},
		{"", RoleUnknown},
		{"superuser", RoleUnknown},
		{"Admin", RoleUnknown},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if Role(7).Valid() {
		t.Error("Role(7).Valid() = true, want false")
	}
}

func TestUserUnmarshalAcceptsBothIDKeys(t *testing.T) {
	tests := map[string]struct {
		body string
		want User
	}{
		"login principal": {
			body: `{"id":"u1","name":"Ann","email":"ann@example.com","role":"admin"}`,
			want: User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: RoleAdmin},
		},
		"list entry": {
			body: `{"_id":"u2","name":"Bob","email":"bob@example.com"}`,
			want: User{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: RoleUnknown},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var got User
			if err := json.Unmarshal([]byte(tc.body), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("User mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoleYAMLRoundTrip(t *testing.T) {
	in := User{ID: "u1", Name: "Ann", Role: RoleAdmin}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "role: admin") {
		t.Fatalf("role not encoded by name:\n%s", data)
	}
	var out User
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
