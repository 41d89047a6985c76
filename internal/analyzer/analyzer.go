// Package analyzer turns raw prompts into structured quality assessments.
// It composes project context, one generation call, and a recovery pipeline
// that degrades to a diagnosable fallback result instead of failing.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stitchlabs/promptdash/internal/contextstore"
	"github.com/stitchlabs/promptdash/internal/llm"
	"github.com/stitchlabs/promptdash/models"
	"github.com/stitchlabs/promptdash/prompts"
)

// Request carries one analysis invocation. Prompt is required; everything
// else is optional. ProjectID activates context accumulation, SourceAgent
// additionally activates per-agent stats.
type Request struct {
	Prompt      string
	Context     string
	ProjectID   string
	SourceAgent string
	TargetAgent string
}

// Analyzer orchestrates context injection, the generation call, extraction,
// result building, and context-store updates. Collaborators are passed in
// explicitly; there is no shared global instance.
type Analyzer struct {
	generator    llm.Generator
	store        *contextstore.Store
	count        TokenCounter
	systemPrompt string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTokenCounter replaces the default heuristic token counter.
func WithTokenCounter(count TokenCounter) Option {
	return func(a *Analyzer) { a.count = count }
}

// WithSystemPrompt replaces the built-in analysis system prompt template.
// The template keeps the project-context placeholder contract.
func WithSystemPrompt(template string) Option {
	return func(a *Analyzer) { a.systemPrompt = template }
}

// New creates an Analyzer with the given generator and context store.
func New(generator llm.Generator, store *contextstore.Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		generator:    generator,
		store:        store,
		count:        llm.EstimateTokens,
		systemPrompt: prompts.AnalyzePromptSystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs one full analysis. Generator failures (auth, rate limit,
// transport) are returned to the caller; extraction and building failures
// degrade to a fallback result. When a project id is present the result,
// genuine or fallback, is folded into the project's context.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (models.AnalysisResult, error) {
	meta := models.Metadata{
		ProjectID:   req.ProjectID,
		SourceAgent: req.SourceAgent,
		TargetAgent: req.TargetAgent,
		Timestamp:   time.Now().UTC(),
	}

	summary := a.store.BuildContextSummary(req.ProjectID, req.SourceAgent)
	system := prompts.RenderAnalyzeSystemPrompt(a.systemPrompt, summary)
	user := buildUserMessage(req.Prompt, req.Context)

	raw, err := a.generator.Invoke(ctx, system, user)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("invoke generator: %w", err)
	}

	result := a.parseOrFallback(raw, req.Prompt, meta)

	if req.ProjectID != "" {
		a.recordResult(req, result)
	}

	return result, nil
}

// parseOrFallback runs extraction and building, substituting a fallback
// result for any failure along the way.
func (a *Analyzer) parseOrFallback(raw, prompt string, meta models.Metadata) models.AnalysisResult {
	payload, err := parsePayload(raw)
	if err != nil {
		log.Printf("analyzer: response recovery failed: %v", err)
		return fallbackResult(prompt, err.Error(), meta, a.count)
	}

	result, err := buildResult(payload, prompt, meta, a.count)
	if err != nil {
		log.Printf("analyzer: result build failed: %v", err)
		return fallbackResult(prompt, err.Error(), meta, a.count)
	}

	return result
}

// recordResult folds the result into the project's context. Write failures
// are logged, never propagated; the analysis result already exists and a
// side-effect failure must not revoke it.
func (a *Analyzer) recordResult(req Request, result models.AnalysisResult) {
	if err := a.store.AppendHistory(req.ProjectID, result); err != nil {
		log.Printf("analyzer: append history for project=%s: %v", req.ProjectID, err)
	}
	if err := a.store.UpdatePatterns(req.ProjectID, result); err != nil {
		log.Printf("analyzer: update patterns for project=%s: %v", req.ProjectID, err)
	}
	if req.SourceAgent != "" {
		if err := a.store.UpdateAgentContext(req.ProjectID, req.SourceAgent, result); err != nil {
			log.Printf("analyzer: update agent context for project=%s agent=%s: %v", req.ProjectID, req.SourceAgent, err)
		}
	}
}

// buildUserMessage frames the prompt under analysis, with the optional
// caller-supplied goal appended.
func buildUserMessage(prompt, context string) string {
	parts := []string{"PROMPT TO ANALYZE:\n---", prompt, "---"}
	if context != "" {
		parts = append(parts, fmt.Sprintf("\nCONTEXT/GOAL: %s", context))
	}
	return strings.Join(parts, "\n")
}
