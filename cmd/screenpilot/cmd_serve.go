package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screenpilot/internal/config"
	"screenpilot/internal/locator"
	"screenpilot/internal/server"
	"screenpilot/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/WebSocket server for interactive step editing and runs",
	Long: `Starts the automation server. Clients connect over WebSocket to edit the
step list, start and stop runs, and stream execution logs; REST endpoints
serve screen previews, template uploads, and run history.`,
	RunE: runServeCmd,
}

var serveDebug bool

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
}

func runServeCmd(_ *cobra.Command, _ []string) error {
	// Setup structured logging
	level := slog.LevelInfo
	if serveDebug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Load()

	sess, err := session.New(session.Options{
		WorkDir:        cfg.WorkDir,
		HistoryPath:    cfg.HistoryPath,
		SettleInterval: cfg.SettleInterval(),
		Confidence:     cfg.DefaultConfidence,
		Downscale:      cfg.MatchDownscale,
		Strategies:     locator.ByName(cfg.MatchStrategies...),
		LogEntries:     cfg.LogEntries,
	})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	srv := server.New(sess, cfg.PreviewWidth)

	httpServer := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     srv.Handler(),
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("screenpilot server starting", "http", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	sess.StopRun()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
