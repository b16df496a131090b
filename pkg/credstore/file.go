package credstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot keeps the record in a single file with owner-only permissions.
type FileSlot struct {
	path string
}

// NewFileSlot returns a slot backed by path. The parent directory is created on first write.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// DefaultPath returns <user config dir>/gowallet/auth.yaml, falling back to
// the working directory when no config dir is available.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return Key + ".yaml"
	}
	return filepath.Join(dir, "gowallet", Key+".yaml")
}

// Path returns the backing file path.
func (f *FileSlot) Path() string { return f.path }

func (f *FileSlot) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("credstore: read %s: %w", f.path, err)
	}
	return data, nil
}

// Write replaces the file atomically so a crash never leaves half a record behind.
func (f *FileSlot) Write(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credstore: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("credstore: create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("credstore: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("credstore: close temp: %w", err)
	}
	if err := os.Chmod(name, 0o600); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("credstore: chmod: %w", err)
	}
	if err := os.Rename(name, f.path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("credstore: replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileSlot) Erase() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("credstore: remove %s: %w", f.path, err)
	}
	return nil
}
