package config

import (
	"strings"
	"time"
)

// UpstreamConfig configures the DarahConnect API client.
type UpstreamConfig struct {
	// BaseURL is the API root, e.g. https://api.darahconnect.id/api.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`

	// Timeout bounds each upstream request.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	// Token is a service bearer token used when no operator session is present (CLI, warmer).
	Token string `env:"API_TOKEN"`

	// RateLimit is the sustained request rate per second; 0 disables throttling.
	RateLimit float64 `env:"API_RATE_LIMIT" envDefault:"0"`
	Burst     int     `env:"API_RATE_BURST" envDefault:"10"`
}

// Sanitize applies guardrails to upstream configuration values.
func (u *UpstreamConfig) Sanitize() {
	u.BaseURL = strings.TrimRight(strings.TrimSpace(u.BaseURL), "/")
	u.Token = strings.TrimSpace(u.Token)
	if u.Timeout < time.Second {
		u.Timeout = time.Second
	}
	if u.Timeout > time.Minute {
		u.Timeout = time.Minute
	}
	if u.RateLimit < 0 {
		u.RateLimit = 0
	}
	if u.Burst < 1 {
		u.Burst = 1
	}
}
