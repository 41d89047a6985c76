package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stitchlabs/promptdash/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server for the dashboard",
	Long: `Start the promptdash HTTP API server.

The server exposes the analysis endpoint and all dashboard queries:
  POST /api/analyze
  POST /api/rewrite-choice
  GET  /api/dashboard/overview
  GET  /api/dashboard/interactions
  GET  /api/dashboard/trends
  GET  /api/dashboard/mistakes
  GET  /api/dashboard/agents
  GET  /api/projects/{id}/profile

Examples:
  promptdash serve              # Start on the configured port
  promptdash serve --port 8080  # Use a custom port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "API server port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	contexts := openContextStore()

	analyticsStore, err := openAnalytics()
	if err != nil {
		return err
	}
	defer func() { _ = analyticsStore.Close() }()

	analysisService, err := buildAnalyzer(contexts)
	if err != nil {
		return err
	}

	tel := initTelemetry()
	defer func() { _ = tel.Close() }()

	srv := server.New(server.Config{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Analyzer:       analysisService,
		Analytics:      analyticsStore,
		Contexts:       contexts,
		Telemetry:      tel,
	})

	fmt.Printf("promptdash API listening on http://localhost:%d\n", port)
	fmt.Println("Press Ctrl+C to stop")

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		fmt.Printf("\nReceived %v, shutting down...\n", sig)
	case err := <-errChan:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Server shutdown error: %v\n", err)
	}

	wg.Wait()
	return nil
}
