package tts

import (
	"fmt"
	"net/url"
	"time"
)

// Fixed prosody for the on-device fallback path. The remote service applies
// its own prosody presets per speaker role.
const (
	localRate  = 0.9
	localPitch = 1.0
)

// Config holds controller configuration.
type Config struct {
	// ServerURL is the base URL of the remote synthesis service. Empty
	// disables the remote path entirely.
	ServerURL string

	// ProbeTimeout bounds the one-time health probe.
	ProbeTimeout time.Duration

	// RequestTimeout bounds a single remote synthesis round trip.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		ServerURL:      "http://localhost:3001",
		ProbeTimeout:   2 * time.Second,
		RequestTimeout: 15 * time.Second,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.ServerURL != "" {
		if _, err := url.ParseRequestURI(c.ServerURL); err != nil {
			return fmt.Errorf("invalid server URL %q: %w", c.ServerURL, err)
		}
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}
	return nil
}
