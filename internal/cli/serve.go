package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort    int
	serveHost    string
	serveWatch   bool
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the executor HTTP listener",
	Long: `Start the executor HTTP listener.

Endpoints:
  GET  /health        liveness
  GET  /functions     loadable function names
  POST /invoke        run a function
  POST /clear-cache   drop every loaded function
  GET  /metrics       Prometheus metrics (when enabled)

With --watch the function cache is cleared whenever files under the
functions directory change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides server.host)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Clear the function cache when files change")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable file watching")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if serveWatch {
		cfg.Functions.Watch = true
	}
	if serveNoWatch {
		cfg.Functions.Watch = false
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg, svc)

	if cfg.Functions.Watch {
		watcher, watchErr := functions.NewWatcher(svc.Registry())
		if watchErr == nil {
			watcher.SetDebounceDuration(cfg.Functions.Debounce)
			watchErr = watcher.Start()
		}
		if watchErr != nil {
			log.Warn().Err(watchErr).Msg("Failed to set up file watcher, continuing without hot-reload")
		} else {
			defer func() { _ = watcher.Stop() }()
			log.Info().Str("path", cfg.Functions.Path).Msg("File watching enabled")
		}
	}

	if names, err := svc.List(); err != nil {
		log.Warn().Err(err).Str("path", cfg.Functions.Path).Msg("Failed to list functions")
	} else {
		log.Info().Int("count", len(names)).Strs("functions", names).Msg("Functions discovered")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}
	return nil
}
