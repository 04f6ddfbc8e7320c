package config

import "time"

// ListingConfig holds list and mutation defaults.
type ListingConfig struct {
	// SearchDebounce is how long the CLI browser waits after the last keystroke before fetching.
	SearchDebounce time.Duration `env:"LIST_SEARCH_DEBOUNCE" envDefault:"500ms"`

	// MaxPageSize caps the page_size query parameter.
	MaxPageSize int `env:"LIST_MAX_PAGE_SIZE" envDefault:"100"`

	// BulkConcurrency bounds in-flight requests for bulk mutations.
	BulkConcurrency int `env:"MUTATION_BULK_CONCURRENCY" envDefault:"4"`
}

// Sanitize applies guardrails to listing configuration values.
func (l *ListingConfig) Sanitize() {
	if l.SearchDebounce < 0 {
		l.SearchDebounce = 0
	}
	if l.MaxPageSize < 1 {
		l.MaxPageSize = 100
	}
	if l.BulkConcurrency < 1 {
		l.BulkConcurrency = 1
	}
	if l.BulkConcurrency > 32 {
		l.BulkConcurrency = 32
	}
}
