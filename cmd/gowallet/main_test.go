package main

import (
	"path/filepath"
	"testing"

	"github.com/NicolasHaas/gowallet/internal/apitest"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

func TestCommands(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("Alice", "alice@example.com", "Secret1!", "1234", model.RoleUser, "100")
	bob := srv.AddUser("Bob", "bob@example.com", "Secret1!", "9999", model.RoleUser, "0")
	srv.AddUser("Root", "root@example.com", "Secret1!", "0000", model.RoleAdmin, "0")

	dir := t.TempDir()
	global := []string{
		"-config", filepath.Join(dir, "settings.yaml"),
		"-env", filepath.Join(dir, "absent.env"),
		"-server", srv.URL,
		"-store", "sqlite",
		"-store-path", filepath.Join(dir, "wallet.db"),
		"-log-level", "error",
	}
	steps := []struct {
		args []string
		want int
	}{
		{[]string{"version"}, exitOK},
		{[]string{"bogus"}, exitUsage},
		{[]string{"wallet"}, exitRedirected},
		{[]string{"login", "-email", "alice@example.com", "-password", "wrong"}, exitFailed},
		{[]string{"login", "-email", "alice@example.com", "-password", "Secret1!"}, exitOK},
		{[]string{"whoami"}, exitOK},
		{[]string{"dashboard"}, exitOK},
		{[]string{"pay", "-to", bob.ID, "-amount", "101", "-pin", "1234"}, exitFailed},
		{[]string{"pay", "-to", bob.ID, "-amount", "40", "-pin", "1234"}, exitOK},
		{[]string{"wallet"}, exitOK},
		{[]string{"history"}, exitOK},
		{[]string{"change-pin", "-current", "1234", "-new", "5678", "-confirm", "5678"}, exitOK},
		{[]string{"update-profile"}, exitOK},
		{[]string{"admin-users"}, exitRedirected},
		{[]string{"logout"}, exitOK},
		{[]string{"whoami"}, exitFailed},
		{[]string{"login", "-email", "root@example.com", "-password", "Secret1!"}, exitOK},
		{[]string{"admin-topup", "-user", bob.ID, "-amount", "10"}, exitOK},
		{[]string{"admin-users"}, exitOK},
		{[]string{"reset-password", "-email", "bob@example.com"}, exitOK},
	}
	for _, s := range steps {
		args := append(append([]string{}, global...), s.args...)
		if got := run(args); got != s.want {
			t.Fatalf("gowallet %v = %d, want %d", s.args, got, s.want)
		}
	}

	if got := srv.Balance(bob.ID).String(); got != "50" {
		t.Errorf("bob balance = %s, want 50", got)
	}
}
