package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fentz26/hourglass/internal/api"
	"github.com/fentz26/hourglass/internal/audit"
	"github.com/fentz26/hourglass/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the hourglass daemon",
	Long:  `Starts the hourglass daemon which serves the HTTP API over the task, goal, note and journal database.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (default from config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (default from config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if listenAddr == "" {
		listenAddr = cfg.API.Listen
	}
	if dbPath == "" {
		dbPath = cfg.DatabasePath()
	}
	logger.Info("starting hourglass daemon", "listen", listenAddr, "db", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(s)
	service := api.NewService(s, recorder,
		api.WithWeekStart(cfg.WeekStart()),
		api.WithLogger(logger.With("component", "service")),
	)
	server := api.NewServer(service, s, listenAddr, logger.With("component", "http"))

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		err := server.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "error", err)
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	if err := s.Close(); err != nil {
		logger.Error("database close", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
