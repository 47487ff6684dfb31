package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regexvault/regexvault/internal/config"
	"github.com/regexvault/regexvault/internal/events"
	"github.com/regexvault/regexvault/internal/logger"
	"github.com/regexvault/regexvault/internal/rules"
	"github.com/regexvault/regexvault/internal/server"
)

var (
	serveConfigPath string
	serveHost       string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection HTTP server",
	Long: `Run the HTTP server exposing /find, /validate, /redact, /reload,
/health, /metrics, and the /ws event stream. Configuration comes from a
YAML file and REGEXVAULT_* environment variables; flags override both.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to configuration file")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}

	// Hot reload: republish the registry when a pattern file changes on
	// disk. A failed reload keeps the active registry serving.
	var watcher *rules.Watcher
	if cfg.Registry.AutoReload {
		watcher, err = rules.NewWatcher(cfg.Registry.Paths, cfg.Registry.ReloadDebounce, func() {
			status, err := srv.Service().Reload()
			if err != nil {
				return
			}
			if hub := srv.Hub(); hub != nil {
				hub.BroadcastEvent(events.Event{
					Type:      events.EventTypeReload,
					Timestamp: time.Now(),
					Data: events.ReloadEvent{
						Version:    status.Version,
						Patterns:   status.Patterns,
						Namespaces: status.Namespaces,
					},
				})
			}
		}, log.WithComponent("watcher").Logger)
		if err != nil {
			return fmt.Errorf("failed to start pattern watcher: %w", err)
		}
		go watcher.Run()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	if watcher != nil {
		_ = watcher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop server gracefully: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
