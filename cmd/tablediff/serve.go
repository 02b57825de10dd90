package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/tablediff/api"
	"github.com/TFMV/tablediff/logger"
)

// newServeCommand creates the serve command.
func newServeCommand() *cobra.Command {
	var port string
	var prefork bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the comparison engine as an HTTP service",
		Long: `The serve command starts an HTTP server exposing the comparison engine.
POST /compare runs a comparison of two server-local files and returns the
run summary plus a bounded sample of differences as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(port, prefork)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "5555", "Port to listen on")
	cmd.Flags().BoolVar(&prefork, "prefork", false, "Use multiple OS processes")

	return cmd
}

// startServer initializes and runs the server with graceful shutdown handling.
func startServer(port string, prefork bool) error {
	log := logger.GetLogger()
	defer logger.Sync()

	server := api.NewServer(api.ServerOptions{
		Port:    port,
		Prefork: prefork,
	})

	// Channel to listen for OS termination signals.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("tablediff API listening", zap.String("port", port))
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
		log.Info("received shutdown signal, stopping server")
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("error shutting down: %w", err)
		}
		log.Info("server shutdown successfully")
		return nil
	}
}
