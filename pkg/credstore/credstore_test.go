package credstore_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/NicolasHaas/gowallet/pkg/credstore"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

func sampleRecord() credstore.Record {
	return credstore.Record{
		User:  &model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: model.RoleAdmin},
		Token: "tok-1",
		Role:  model.RoleAdmin,
	}
}

func slots(t *testing.T) map[string]credstore.Slot {
	t.Helper()
	dir := t.TempDir()

	sq, err := credstore.NewSQLiteSlot(filepath.Join(dir, "auth.db"))
	if err != nil {
		t.Fatalf("NewSQLiteSlot: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })

	mr := miniredis.RunT(t)
	rs := credstore.NewRedisSlot(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { _ = rs.Close() })

	return map[string]credstore.Slot{
		"file":   credstore.NewFileSlot(filepath.Join(dir, "nested", "auth.yaml")),
		"sqlite": sq,
		"redis":  rs,
		"memory": credstore.NewMemorySlot(),
		"sealed": credstore.Sealed(credstore.NewMemorySlot(), "correct horse"),
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, slot := range slots(t) {
		t.Run(name, func(t *testing.T) {
			st := credstore.New(slot)

			got, err := st.Load()
			if err != nil || got != nil {
				t.Fatalf("Load on empty slot = (%v, %v), want (nil, nil)", got, err)
			}

			want := sampleRecord()
			if err := st.Save(want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err = st.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(&want, got); diff != "" {
				t.Errorf("Load mismatch (-want +got):\n%s", diff)
			}

			// Save replaces wholesale.
			next := credstore.Record{
				User:  &model.User{ID: "u2", Name: "Bob", Role: model.RoleUser},
				Token: "tok-2",
				Role:  model.RoleUser,
			}
			if err := st.Save(next); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err = st.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(&next, got); diff != "" {
				t.Errorf("Load after overwrite mismatch (-want +got):\n%s", diff)
			}

			if err := st.Clear(); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if err := st.Clear(); err != nil {
				t.Fatalf("second Clear: %v", err)
			}
			got, err = st.Load()
			if err != nil || got != nil {
				t.Fatalf("Load after Clear = (%v, %v), want (nil, nil)", got, err)
			}
		})
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	slot := credstore.NewMemorySlot()
	_ = slot.Write([]byte("user: [unterminated"))

	_, err := credstore.New(slot).Load()
	if !errors.Is(err, credstore.ErrCorrupt) {
		t.Fatalf("Load err = %v, want ErrCorrupt", err)
	}
}

func TestSealedWrongPassphrase(t *testing.T) {
	inner := credstore.NewMemorySlot()
	if err := credstore.New(credstore.Sealed(inner, "right")).Save(sampleRecord()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := inner.Read()
	if len(raw) == 0 {
		t.Fatal("sealed slot wrote nothing")
	}
	if bytes.Contains(raw, []byte("tok-1")) {
		t.Fatal("token stored in the clear")
	}

	_, err := credstore.New(credstore.Sealed(inner, "wrong")).Load()
	if !errors.Is(err, credstore.ErrCorrupt) {
		t.Fatalf("Load with wrong passphrase err = %v, want ErrCorrupt", err)
	}
}

func TestFileSlotPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	st := credstore.New(credstore.NewFileSlot(path))
	if err := st.Save(sampleRecord()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     credstore.Config
		wantErr bool
	}{
		{"file", credstore.Config{Backend: "file", Path: filepath.Join(dir, "a.yaml")}, false},
		{"memory sealed", credstore.Config{Backend: "memory", Passphrase: "pw"}, false},
		{"sqlite", credstore.Config{Backend: "sqlite", Path: filepath.Join(dir, "a.db")}, false},
		{"sqlite without path", credstore.Config{Backend: "sqlite"}, true},
		{"redis without addr", credstore.Config{Backend: "redis"}, true},
		{"unknown", credstore.Config{Backend: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := credstore.Open(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()
			if err := st.Save(sampleRecord()); err != nil {
				t.Fatalf("Save: %v", err)
			}
		})
	}
}
