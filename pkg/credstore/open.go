package credstore

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and parameterises a backend.
type Config struct {
	Backend     string // file (default), sqlite, redis, memory
	Path        string // file or database path; defaults to DefaultPath() for file
	RedisAddr   string
	RedisPrefix string
	Passphrase  string // when set, the record is sealed at rest
}

// Open builds a Store from cfg.
func Open(cfg Config) (*Store, error) {
	var slot Slot
	switch cfg.Backend {
	case "", BackendFile:
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		slot = NewFileSlot(path)
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("credstore: sqlite backend requires a path")
		}
		s, err := NewSQLiteSlot(cfg.Path)
		if err != nil {
			return nil, err
		}
		slot = s
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("credstore: redis backend requires an address")
		}
		slot = NewRedisSlot(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisPrefix)
	case BackendMemory:
		slot = NewMemorySlot()
	default:
		return nil, fmt.Errorf("credstore: unknown backend %q", cfg.Backend)
	}

	if cfg.Passphrase != "" {
		slot = Sealed(slot, cfg.Passphrase)
	}
	return New(slot), nil
}
