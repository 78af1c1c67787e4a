package builtin

import (
	"time"

	"github.com/tailored-agentic-units/assistant/core/config"
)

// Config configures the HTTP-backed tools.
type Config struct {
	GeocodingURL string `json:"geocoding_url" yaml:"geocoding_url"`
	ForecastURL  string `json:"forecast_url" yaml:"forecast_url"`
	SearchURL    string `json:"search_url" yaml:"search_url"`

	// RequestsPerSecond and Burst rate limit outbound requests per tool.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`

	HTTPTimeout config.Duration `json:"http_timeout" yaml:"http_timeout"`
}

func DefaultConfig() Config {
	return Config{
		GeocodingURL:      "https://geocoding-api.open-meteo.com/v1/search",
		ForecastURL:       "https://api.open-meteo.com/v1/forecast",
		SearchURL:         "https://api.duckduckgo.com/",
		RequestsPerSecond: 2,
		Burst:             4,
		HTTPTimeout:       config.Duration(10 * time.Second),
	}
}

func (c *Config) Merge(source *Config) {
	if source.GeocodingURL != "" {
		c.GeocodingURL = source.GeocodingURL
	}
	if source.ForecastURL != "" {
		c.ForecastURL = source.ForecastURL
	}
	if source.SearchURL != "" {
		c.SearchURL = source.SearchURL
	}
	if source.RequestsPerSecond > 0 {
		c.RequestsPerSecond = source.RequestsPerSecond
	}
	if source.Burst > 0 {
		c.Burst = source.Burst
	}
	if source.HTTPTimeout > 0 {
		c.HTTPTimeout = source.HTTPTimeout
	}
}
