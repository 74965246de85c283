package tts_test

import (
	"testing"
	"time"

	"github.com/tiexiang0-alt/Mock-Test/tts"
)

// TestDefaultConfigIsValid verifies the shipped defaults pass validation.
func TestDefaultConfigIsValid(t *testing.T) {
	cfg := tts.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ProbeTimeout != 2*time.Second {
		t.Errorf("expected a 2s probe timeout, got %v", cfg.ProbeTimeout)
	}
}

// TestConfigValidate verifies invalid values are rejected.
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*tts.Config)
		wantErr bool
	}{
		{"empty server URL disables remote", func(c *tts.Config) { c.ServerURL = "" }, false},
		{"garbage server URL", func(c *tts.Config) { c.ServerURL = "not a url" }, true},
		{"zero probe timeout", func(c *tts.Config) { c.ProbeTimeout = 0 }, true},
		{"negative request timeout", func(c *tts.Config) { c.RequestTimeout = -time.Second }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tts.DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
