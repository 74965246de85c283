package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads controller configuration from Viper, falling
// back to defaults for unset keys.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.server_url") {
		cfg.ServerURL = viper.GetString("tts.server_url")
	}
	if viper.IsSet("tts.probe_timeout") {
		cfg.ProbeTimeout = viper.GetDuration("tts.probe_timeout")
	}
	if viper.IsSet("tts.request_timeout") {
		cfg.RequestTimeout = viper.GetDuration("tts.request_timeout")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}
	return cfg, nil
}
