package server

import "net/http"

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/rewrite-choice", s.handleRewriteChoice)

	// Dashboard API
	mux.HandleFunc("GET /api/dashboard/overview", s.handleOverview)
	mux.HandleFunc("GET /api/dashboard/interactions", s.handleInteractions)
	mux.HandleFunc("GET /api/dashboard/trends", s.handleTrends)
	mux.HandleFunc("GET /api/dashboard/mistakes", s.handleMistakes)
	mux.HandleFunc("GET /api/dashboard/agents", s.handleAgents)

	// Project context API
	mux.HandleFunc("GET /api/projects/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/projects/{id}/profile", s.handlePutProfile)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	return s.corsMiddleware(mux)
}
