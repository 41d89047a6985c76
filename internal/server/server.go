// Package server exposes the analysis pipeline and dashboard queries over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/stitchlabs/promptdash/internal/analytics"
	"github.com/stitchlabs/promptdash/internal/analyzer"
	"github.com/stitchlabs/promptdash/internal/contextstore"
	"github.com/stitchlabs/promptdash/internal/telemetry"
	"github.com/stitchlabs/promptdash/models"
)

// AnalysisService abstracts the analyzer so handlers can be tested with a fake.
type AnalysisService interface {
	Analyze(ctx context.Context, req analyzer.Request) (models.AnalysisResult, error)
}

type Server struct {
	analyzer  AnalysisService
	analytics *analytics.Store
	contexts  *contextstore.Store
	telemetry telemetry.Client
	validate  *validator.Validate
	origins   map[string]struct{}
	port      int
	server    *http.Server
}

// Config holds the dependencies and settings for constructing a Server.
type Config struct {
	Port           int
	AllowedOrigins []string
	Analyzer       AnalysisService
	Analytics      *analytics.Store
	Contexts       *contextstore.Store
	Telemetry      telemetry.Client
}

func New(cfg Config) *Server {
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = struct{}{}
	}

	tel := cfg.Telemetry
	if tel == nil {
		tel = telemetry.NewNoopClient()
	}

	s := &Server{
		analyzer:  cfg.Analyzer,
		analytics: cfg.Analytics,
		contexts:  cfg.Contexts,
		telemetry: tel,
		validate:  validator.New(),
		origins:   origins,
		port:      cfg.Port,
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.registerRoutes(),
	}

	return s
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
