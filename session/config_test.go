package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/session"
)

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Merge(&session.Config{
		Backend: session.BackendBadger,
		Path:    "./data",
		TTL:     config.Duration(time.Hour),
	})

	if cfg.Backend != session.BackendBadger || cfg.Path != "./data" || cfg.TTL.Std() != time.Hour {
		t.Errorf("got %+v", cfg)
	}

	cfg.Merge(&session.Config{})
	if cfg.Backend != session.BackendBadger {
		t.Errorf("zero source overwrote backend: %q", cfg.Backend)
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     session.Config
		wantErr bool
	}{
		{name: "default", cfg: session.Config{}},
		{name: "memory", cfg: session.Config{Backend: session.BackendMemory, Capacity: 10}},
		{name: "file", cfg: session.Config{Backend: session.BackendFile, Path: filepath.Join(dir, "files")}},
		{name: "file without path", cfg: session.Config{Backend: session.BackendFile}, wantErr: true},
		{name: "gorm", cfg: session.Config{Backend: session.BackendGorm, DSN: filepath.Join(dir, "sessions.db")}},
		{name: "gorm unknown driver", cfg: session.Config{Backend: session.BackendGorm, Driver: "oracle"}, wantErr: true},
		{name: "badger", cfg: session.Config{Backend: session.BackendBadger}},
		{name: "unknown", cfg: session.Config{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := session.NewStore(&tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.Close()

			if _, err := store.Load(context.Background(), "nobody"); !errors.Is(err, session.ErrNotFound) {
				t.Errorf("Load(nobody) = %v, want ErrNotFound", err)
			}
		})
	}
}
