package client

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/gowallet/pkg/credstore"
	"github.com/NicolasHaas/gowallet/pkg/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvServer     = "GOWALLET_SERVER"
	EnvStore      = "GOWALLET_STORE"
	EnvStorePath  = "GOWALLET_STORE_PATH"
	EnvRedisAddr  = "GOWALLET_REDIS_ADDR"
	EnvPassphrase = "GOWALLET_PASSPHRASE"
	EnvLogLevel   = "GOWALLET_LOG_LEVEL"
	EnvLogFormat  = "GOWALLET_LOG_FORMAT"
	EnvRateLimit  = "GOWALLET_RATE_LIMIT"
)

// Settings stores client preferences persisted as YAML in the user config dir.
type Settings struct {
	Server      string  `yaml:"server"`
	Store       string  `yaml:"store"`
	StorePath   string  `yaml:"store_path,omitempty"`
	RedisAddr   string  `yaml:"redis_addr,omitempty"`
	RedisPrefix string  `yaml:"redis_prefix,omitempty"`
	LogLevel    string  `yaml:"log_level"`
	LogFormat   string  `yaml:"log_format"`
	RateLimit   float64 `yaml:"rate_limit,omitempty"`

	// Passphrase seals the stored session. Only ever taken from the environment.
	Passphrase string `yaml:"-"`
}

// DefaultSettings returns default settings.
func DefaultSettings() *Settings {
	return &Settings{
		Server:    "http://localhost:5000",
		Store:     credstore.BackendFile,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// SettingsPath returns the default settings location.
func SettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(dir, "gowallet", "settings.yaml")
}

// LoadSettings loads settings from path or returns defaults. A missing file is
// not an error; an unreadable one is logged and ignored.
func LoadSettings(path string) *Settings {
	s := DefaultSettings()
	data, err := os.ReadFile(path) //nolint:gosec // path from user config
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("read settings", "path", path, "err", err)
		}
		return s
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		slog.Error("parse settings", "path", path, "err", err)
		return DefaultSettings()
	}
	return s
}

// Save writes settings to path as YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("client: encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("client: create settings dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv overlays environment variables. envFile, when it exists, is loaded
// first with godotenv; variables already set in the process win over it.
func (s *Settings) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("client: load %s: %w", envFile, err)
		}
	}
	str := map[string]*string{
		EnvServer:     &s.Server,
		EnvStore:      &s.Store,
		EnvStorePath:  &s.StorePath,
		EnvRedisAddr:  &s.RedisAddr,
		EnvPassphrase: &s.Passphrase,
		EnvLogLevel:   &s.LogLevel,
		EnvLogFormat:  &s.LogFormat,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		rl, err := strconv.ParseFloat(v, 64)
		if err != nil || rl <= 0 {
			return fmt.Errorf("client: %s=%q: want a positive number", EnvRateLimit, v)
		}
		s.RateLimit = rl
	}
	return nil
}

// Validate checks the settings that can be wrong independently of the network.
func (s *Settings) Validate() error {
	if s.Server == "" {
		return errors.New("client: server URL is required")
	}
	switch s.Store {
	case credstore.BackendFile, credstore.BackendSQLite, credstore.BackendRedis, credstore.BackendMemory:
	default:
		return fmt.Errorf("client: unknown store %q", s.Store)
	}
	if s.LogFormat != "" && s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("client: unknown log format %q", s.LogFormat)
	}
	return logging.Validate(s.LogLevel)
}

// CredstoreConfig maps the settings onto the credential store configuration.
func (s *Settings) CredstoreConfig() credstore.Config {
	return credstore.Config{
		Backend:     s.Store,
		Path:        s.StorePath,
		RedisAddr:   s.RedisAddr,
		RedisPrefix: s.RedisPrefix,
		Passphrase:  s.Passphrase,
	}
}
