package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tailored-agentic-units/assistant/core/config"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendGorm   = "gorm"
	BackendBadger = "badger"
)

// Config selects and configures the session store.
//
//	{"backend": "gorm", "driver": "postgres", "dsn": "postgres://..."}
//	{"backend": "badger", "path": "./data/sessions", "ttl": "24h"}
type Config struct {
	Backend  string          `json:"backend" yaml:"backend"`
	Path     string          `json:"path,omitempty" yaml:"path,omitempty"`
	Driver   string          `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN      string          `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	TTL      config.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Capacity int             `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// DefaultConfig returns an unbounded in-memory store.
func DefaultConfig() Config {
	return Config{Backend: BackendMemory}
}

func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Driver != "" {
		c.Driver = source.Driver
	}
	if source.DSN != "" {
		c.DSN = source.DSN
	}
	if source.TTL > 0 {
		c.TTL = source.TTL
	}
	if source.Capacity > 0 {
		c.Capacity = source.Capacity
	}
}

// NewStore builds the configured store.
func NewStore(cfg *Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.Capacity), nil
	case BackendFile:
		return NewFileStore(cfg.Path)
	case BackendGorm:
		return NewGormStore(cfg.Driver, cfg.DSN)
	case BackendBadger:
		return NewBadgerStore(BadgerOptions{
			Path:   cfg.Path,
			TTL:    time.Duration(cfg.TTL),
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
