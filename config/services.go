package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode names a process role.
type ServiceMode string

const (
	// ServiceModeHTTP runs the dashboard server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeCacheWarmer periodically refreshes page 1 of every resource in the cache.
	ServiceModeCacheWarmer ServiceMode = "cache-warmer"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeCacheWarmer}
}

// ParseServices parses a comma-delimited list of service names.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	if strings.TrimSpace(servicesStr) == "" {
		return nil, errors.New("at least one service must be specified")
	}

	services := make(map[ServiceMode]bool)
	for part := range strings.SplitSeq(servicesStr, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		switch mode := ServiceMode(name); mode {
		case ServiceModeHTTP, ServiceModeCacheWarmer:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, cache-warmer)", name)
		}
	}
	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}
	return services, nil
}

// WarmerConfig contains cache warmer configuration.
type WarmerConfig struct {
	// Interval is the time between warm passes.
	Interval time.Duration `env:"WARMER_INTERVAL" envDefault:"1m"`

	// Concurrency bounds resources warmed in parallel.
	Concurrency int `env:"WARMER_CONCURRENCY" envDefault:"4"`
}

// Sanitize applies guardrails to warmer configuration values.
func (w *WarmerConfig) Sanitize() {
	if w.Interval < 5*time.Second {
		w.Interval = 5 * time.Second
	}
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
}

// ServicesConfig groups service-mode configuration.
type ServicesConfig struct {
	// Services is a comma-delimited list: http, cache-warmer.
	Services string `env:"SERVICES" envDefault:"http"`

	Warmer WarmerConfig
}

// Sanitize applies guardrails to services configuration values.
func (s *ServicesConfig) Sanitize() {
	s.Warmer.Sanitize()
}

// GetEnabledServices returns the enabled services.
func (s *ServicesConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(s.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (s *ServicesConfig) IsHTTPServerEnabled() bool { return s.enabled(ServiceModeHTTP) }

// IsCacheWarmerEnabled returns true if the cache warmer is enabled.
func (s *ServicesConfig) IsCacheWarmerEnabled() bool { return s.enabled(ServiceModeCacheWarmer) }

func (s *ServicesConfig) enabled(mode ServiceMode) bool {
	services, err := s.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
