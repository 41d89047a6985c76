package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/stitchlabs/promptdash/internal/analyzer"
	"github.com/stitchlabs/promptdash/internal/llm"
	"github.com/stitchlabs/promptdash/types"
)

// handleAnalyze runs the full analysis pipeline and persists the result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analyzer.Request{
		Prompt:      req.Prompt,
		Context:     req.Context,
		ProjectID:   req.ProjectID,
		SourceAgent: req.SourceAgent,
		TargetAgent: req.TargetAgent,
	})
	if err != nil {
		var genErr *llm.GeneratorError
		if errors.As(err, &genErr) {
			http.Error(w, fmt.Sprintf("analysis failed: %v", genErr), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id, err := s.analytics.StoreResult(result)
	if err != nil {
		// The analysis itself succeeded; report it even if recording failed.
		fmt.Printf("[API] Failed to record analysis: %v\n", err)
	}

	s.telemetry.Track("prompt_analyzed", telemetryProps(result.Metadata.Mode(), result.OverallScore))

	writeAPIJSON(w, AnalyzeResponse{
		AnalysisID: id,
		Result:     result,
	})
}

// handleRewriteChoice records whether the caller kept the rewritten prompt.
func (s *Server) handleRewriteChoice(w http.ResponseWriter, r *http.Request) {
	var req types.RewriteChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "analysis_id is required", http.StatusBadRequest)
		return
	}

	if err := s.analytics.MarkRewriteUsed(req.AnalysisID, req.UsedRewrite); err != nil {
		http.Error(w, "analysis not found", http.StatusNotFound)
		return
	}

	writeAPIJSON(w, map[string]any{"success": true})
}

// handleOverview
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.analytics.GetOverview()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, overview)
}

// handleInteractions
func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	projectID := r.URL.Query().Get("project")

	rows, err := s.analytics.Interactions(limit, offset, projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := s.analytics.Count(projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeAPIJSON(w, InteractionsResponse{
		Interactions: rows,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// handleTrends buckets by hour when ?hours= is given, by day otherwise.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 0)
	days := queryInt(r, "days", 7)

	points, err := s.analytics.GetTrends(hours, days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, points)
}

// handleMistakes
func (s *Server) handleMistakes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	freqs, err := s.analytics.GetMistakeFrequencies(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, freqs)
}

// handleAgents
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.analytics.GetAgentLeaderboard()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, agents)
}

// handleGetProfile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing project id", http.StatusBadRequest)
		return
	}
	writeAPIJSON(w, s.contexts.GetProfile(id))
}

// handlePutProfile
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing project id", http.StatusBadRequest)
		return
	}

	var profile contextProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.contexts.SaveProfile(id, profile.toStore()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeAPIJSON(w, map[string]any{"success": true})
}

// handleHealth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func telemetryProps(mode string, score int) map[string]any {
	return map[string]any{
		"mode":          mode,
		"overall_score": score,
	}
}

func writeAPIJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
