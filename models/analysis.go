// Package models defines the canonical analysis result shapes shared by the
// analyzer, the context store, and the analytics store.
package models

import (
	"encoding/json"
	"time"
)

// Analysis modes. An analysis is "agent" when an agent authored the prompt,
// "human" otherwise. The mode is derived from SourceAgent, never stored.
const (
	ModeHuman = "human"
	ModeAgent = "agent"
)

// MistakeTypeAnalysisError tags the single mistake attached to a fallback
// result when the generator's output could not be parsed.
const MistakeTypeAnalysisError = "analysis_error"

// DimensionNames lists the five scored dimensions in their canonical order.
// Weakest-dimension computation iterates in exactly this order, so ties
// resolve to the earliest dimension.
var DimensionNames = []string{
	"clarity",
	"token_efficiency",
	"goal_alignment",
	"structure",
	"vagueness_index",
}

// Score is a single dimension score with reasoning.
type Score struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Scores holds all five analysis dimension scores.
type Scores struct {
	Clarity         Score `json:"clarity"`
	TokenEfficiency Score `json:"token_efficiency"`
	GoalAlignment   Score `json:"goal_alignment"`
	Structure       Score `json:"structure"`
	VaguenessIndex  Score `json:"vagueness_index"`
}

// DimensionScore pairs a dimension name with its score.
type DimensionScore struct {
	Name  string
	Score Score
}

// Ordered returns the dimension scores in canonical order.
func (s Scores) Ordered() []DimensionScore {
	return []DimensionScore{
		{Name: "clarity", Score: s.Clarity},
		{Name: "token_efficiency", Score: s.TokenEfficiency},
		{Name: "goal_alignment", Score: s.GoalAlignment},
		{Name: "structure", Score: s.Structure},
		{Name: "vagueness_index", Score: s.VaguenessIndex},
	}
}

// Mistake is a specific defect identified in the prompt. Text is nil when the
// mistake is about something missing rather than present.
type Mistake struct {
	Type       string  `json:"type"`
	Text       *string `json:"text"`
	Suggestion string  `json:"suggestion"`
}

// TokenComparison compares token usage between the original and rewritten prompts.
type TokenComparison struct {
	OriginalTokens  int     `json:"original_tokens"`
	RewrittenTokens int     `json:"rewritten_tokens"`
	SavingsPercent  float64 `json:"savings_percent"`
}

// Metadata records who/what triggered the analysis.
type Metadata struct {
	ProjectID   string    `json:"project_id,omitempty"`
	SourceAgent string    `json:"source_agent,omitempty"`
	TargetAgent string    `json:"target_agent,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Mode derives the analysis mode from the source agent. It is computed on
// demand so it can never drift from its source field.
func (m Metadata) Mode() string {
	if m.SourceAgent != "" {
		return ModeAgent
	}
	return ModeHuman
}

// MarshalJSON includes the derived mode alongside the stored fields.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type metadataAlias Metadata
	return json.Marshal(struct {
		metadataAlias
		Mode string `json:"mode"`
	}{
		metadataAlias: metadataAlias(m),
		Mode:          m.Mode(),
	})
}

// AnalysisResult is the complete, immutable result of one prompt analysis.
type AnalysisResult struct {
	OriginalPrompt  string          `json:"original_prompt"`
	OverallScore    int             `json:"overall_score"`
	Scores          Scores          `json:"scores"`
	Mistakes        []Mistake       `json:"mistakes"`
	RewrittenPrompt string          `json:"rewritten_prompt"`
	TokenComparison TokenComparison `json:"token_comparison"`
	Metadata        Metadata        `json:"metadata"`
}
