package server

import (
	"time"

	"github.com/tailored-agentic-units/assistant/core/config"
)

// Config configures the HTTP front door.
type Config struct {
	Addr string `json:"addr" yaml:"addr"`

	// ServiceName names the server in trace spans.
	ServiceName string `json:"service_name" yaml:"service_name"`

	// RequestTimeout bounds one chat turn.
	RequestTimeout config.Duration `json:"request_timeout" yaml:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout config.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ServiceName:     "assistant",
		RequestTimeout:  config.Duration(2 * time.Minute),
		ShutdownTimeout: config.Duration(10 * time.Second),
	}
}

func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ServiceName != "" {
		c.ServiceName = source.ServiceName
	}
	if source.RequestTimeout > 0 {
		c.RequestTimeout = source.RequestTimeout
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}
