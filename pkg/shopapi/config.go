package shopapi

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the storefront API root used when none is configured.
	DefaultBaseURL = "http://localhost:5000/api/"

	// DefaultTimeout bounds a single request when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second
)

// Config represents the configuration for the storefront API client
type Config struct {
	// BaseURL is the API root. Endpoint paths are resolved against it.
	BaseURL string

	// Timeout bounds every request, including reading the body.
	Timeout time.Duration

	// UserAgent is sent on every request when set.
	UserAgent string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}
