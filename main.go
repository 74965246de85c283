// Package main provides the entry point for the listening-practice CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tiexiang0-alt/Mock-Test/internal/passage"
	"github.com/tiexiang0-alt/Mock-Test/tts"
	"github.com/tiexiang0-alt/Mock-Test/tts/audio"
	"github.com/tiexiang0-alt/Mock-Test/tts/speech"
	"github.com/tiexiang0-alt/Mock-Test/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	serverURL  string
	noRemote   bool
	mouse      bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "mock-test [PASSAGES.json]",
		Short: "TOEFL listening practice with synthesized speech",
		Long: "\nPractice TOEFL listening passages with neural-voice speech.\n" +
			"Passages are spoken through a remote synthesis service when one is\n" +
			"reachable, falling back to on-device voices otherwise.",
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runTUI(path)
		},
	}
)

func runTUI(passageFile string) error {
	// The TUI owns the terminal; logs go to a file or nowhere.
	if lf := os.Getenv("MOCKTEST_LOGFILE"); lf != "" {
		f, err := os.OpenFile(lf, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}
	if debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	cfg.PassageFile = passageFile
	cfg.EnableMouse = mouse
	if noRemote {
		cfg.DisableRemote = true
	}

	ttsCfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	if serverURL != "" {
		ttsCfg.ServerURL = serverURL
	}
	if cfg.DisableRemote {
		ttsCfg.ServerURL = ""
	}

	ctrl, err := buildController(cfg, ttsCfg)
	if err != nil {
		return err
	}
	defer ctrl.Close() //nolint:errcheck

	passages := passage.Builtin()
	if cfg.PassageFile != "" {
		passages, err = passage.Load(cfg.PassageFile)
		if err != nil {
			return err
		}
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(ui.NewModel(cfg, ctrl, passages), opts...)

	if cfg.PassageFile != "" {
		w, werr := passage.NewWatcher(cfg.PassageFile, func(ps []passage.Passage) {
			p.Send(ui.PassagesReloadedMsg{Passages: ps})
		})
		if werr != nil {
			log.Warn("passage file watching disabled", "error", werr)
		} else {
			defer w.Close() //nolint:errcheck
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// buildController assembles the playback stack. The remote path needs the
// audio device and ffmpeg, the local path needs a speech binary; missing
// pieces degrade to the other path, and only a machine with neither errors.
func buildController(cfg ui.Config, ttsCfg tts.Config) (*tts.Controller, error) {
	var (
		backend    tts.Backend
		transcoder tts.Transcoder
		player     tts.Player
	)

	if ttsCfg.ServerURL != "" {
		deviceCfg := audio.DefaultConfig()
		ffmpeg := audio.NewFFmpeg(deviceCfg, "")
		if !ffmpeg.Available() {
			log.Warn("ffmpeg not found, remote synthesis disabled")
		} else if pl, err := audio.NewPlayer(deviceCfg); err != nil {
			log.Warn("audio device unavailable, remote synthesis disabled", "error", err)
		} else {
			backend = tts.NewClient(ttsCfg.ServerURL)
			transcoder = ffmpeg
			player = pl
		}
	}

	var synth tts.Synthesizer
	engine := speech.NewEngine(cfg.EspeakBinary)
	if engine.Available() {
		synth = engine
	} else {
		log.Warn("speech binary not found, on-device fallback disabled", "binary", cfg.EspeakBinary)
	}

	return tts.NewController(ttsCfg, backend, transcoder, player, synth)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "synthesis server URL")
	rootCmd.Flags().BoolVar(&noRemote, "no-remote", false, "skip the remote synthesis service")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("tts.server_url", rootCmd.Flags().Lookup("server"))

	viper.SetDefault("tts.server_url", "http://localhost:3001")
	viper.SetDefault("tts.probe_timeout", "2s")
	viper.SetDefault("tts.request_timeout", "15s")

	rootCmd.AddCommand(configCmd, serveCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "mock-test")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "mock-test")}, dirs...)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("mock-test")
		viper.SetConfigType("yaml")
		for _, dir := range dirs {
			viper.AddConfigPath(dir)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		var pe *fs.PathError
		if errors.As(err, &nf) || errors.As(err, &pe) {
			return
		}
		fmt.Println("Could not parse configuration file:", err)
		os.Exit(1)
	}
}
