package ui

// Config contains TUI-specific configuration.
type Config struct {
	// PassageFile is an optional JSON file of practice passages; the
	// bundled set is used when empty.
	PassageFile string

	// EspeakBinary overrides the on-device synthesis binary.
	EspeakBinary string `env:"MOCKTEST_ESPEAK_BIN" envDefault:"espeak-ng"`

	// DisableRemote skips the remote synthesis service entirely, forcing
	// the on-device path.
	DisableRemote bool `env:"MOCKTEST_NO_REMOTE"`

	EnableMouse bool
}
