package cmd

import (
	"fmt"

	"github.com/stitchlabs/promptdash/internal/analytics"
	"github.com/stitchlabs/promptdash/internal/analyzer"
	"github.com/stitchlabs/promptdash/internal/config"
	"github.com/stitchlabs/promptdash/internal/contextstore"
	"github.com/stitchlabs/promptdash/internal/llm"
	"github.com/stitchlabs/promptdash/internal/telemetry"
	"github.com/stitchlabs/promptdash/prompts"
)

// buildAnalyzer wires the LLM generator, context store, and system prompt
// into a ready-to-use analyzer.
func buildAnalyzer(contexts *contextstore.Store) (*analyzer.Analyzer, error) {
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, fmt.Errorf("configure LLM: %w", err)
	}

	gen := llm.NewChatGenerator(llmCfg)

	systemPrompt, err := prompts.GetPrompt(prompts.KeyAnalyzePrompt, GetConfig().Store.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	return analyzer.New(gen, contexts, analyzer.WithSystemPrompt(systemPrompt)), nil
}

// openContextStore returns the per-project context store.
func openContextStore() *contextstore.Store {
	return contextstore.New(GetConfig().Store.ContextDir)
}

// openAnalytics opens the SQLite analytics store.
func openAnalytics() (*analytics.Store, error) {
	store, err := analytics.NewStore(GetConfig().Analytics.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics store: %w", err)
	}
	return store, nil
}

// initTelemetry returns a telemetry client honoring the stored consent state.
// Errors degrade to a no-op client so telemetry never blocks the app.
func initTelemetry() telemetry.Client {
	cfg, err := telemetry.Load()
	if err != nil {
		return telemetry.NewNoopClient()
	}

	appCfg := GetConfig()
	if appCfg.Telemetry.Enabled && !cfg.ConsentAsked {
		cfg.Enable()
		_ = cfg.Save()
	}

	if !cfg.IsEnabled() || appCfg.Telemetry.APIKey == "" {
		return telemetry.NewNoopClient()
	}

	client, err := telemetry.NewPostHogClient(telemetry.ClientConfig{
		APIKey:  appCfg.Telemetry.APIKey,
		Version: GetVersion(),
		Config:  cfg,
	})
	if err != nil {
		return telemetry.NewNoopClient()
	}
	return client
}
