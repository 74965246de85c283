package main

import (
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tiexiang0-alt/Mock-Test/internal/server"
)

var (
	serveAddr     string
	serveCacheDir string
	serveRPM      int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the neural synthesis service",
		Long: "\nRun the HTTP service that backs remote synthesis. Audio is produced\n" +
			"through the edge-tts command line tool and cached on disk.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := server.DefaultConfig()
			if serveAddr != "" {
				cfg.Addr = serveAddr
			}
			if serveCacheDir != "" {
				cfg.CacheDir = serveCacheDir
			}
			if serveRPM > 0 {
				cfg.RequestsPerMinute = serveRPM
			}

			srv, err := server.New(cfg, server.EdgeSynthesizer(cfg.EdgeBinary))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info("starting synthesis service", "addr", cfg.Addr, "cache", cfg.CacheDir)
			return srv.ListenAndServe(ctx)
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :3001)")
	serveCmd.Flags().StringVar(&serveCacheDir, "cache-dir", "", "directory for cached audio")
	serveCmd.Flags().IntVar(&serveRPM, "rate-limit", 0, "synthesis requests per minute")
}
