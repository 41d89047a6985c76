package analyzer

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/stitchlabs/promptdash/models"
)

// TokenCounter counts tokens in a piece of text. Injectable so tests and
// alternative tokenizers can replace the default heuristic.
type TokenCounter func(text string) int

// IncompleteResultError reports a parsed payload that is missing fields
// required for the canonical result shape. Partial mistake records are not
// trustworthy, so one bad entry fails the whole build.
type IncompleteResultError struct {
	Field string
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf("incomplete analysis payload: missing %s", e.Field)
}

// Payload shapes as the generator is instructed to produce them. Pointers
// distinguish absent fields from zero values.
type scorePayload struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

type scoresPayload struct {
	Clarity         *scorePayload `json:"clarity"`
	TokenEfficiency *scorePayload `json:"token_efficiency"`
	GoalAlignment   *scorePayload `json:"goal_alignment"`
	Structure       *scorePayload `json:"structure"`
	VaguenessIndex  *scorePayload `json:"vagueness_index"`
}

type mistakePayload struct {
	Type       *string `json:"type"`
	Text       *string `json:"text"`
	Suggestion *string `json:"suggestion"`
}

type analysisPayload struct {
	OverallScore    int             `json:"overall_score"`
	Scores          scoresPayload   `json:"scores"`
	Mistakes        []mistakePayload `json:"mistakes"`
	RewrittenPrompt *string         `json:"rewritten_prompt"`
}

// parsePayload runs extraction and JSON decoding. Any failure is reported as
// *MalformedResponseError with both texts captured.
func parsePayload(raw string) (analysisPayload, error) {
	var payload analysisPayload

	cleaned, err := ExtractJSON(raw)
	if err != nil {
		return payload, err
	}

	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return payload, &MalformedResponseError{Raw: raw, Cleaned: cleaned, Err: err}
	}

	return payload, nil
}

// buildResult coerces a parsed payload into the canonical AnalysisResult.
func buildResult(payload analysisPayload, prompt string, meta models.Metadata, count TokenCounter) (models.AnalysisResult, error) {
	scores := models.Scores{
		Clarity:         scoreOrDefault(payload.Scores.Clarity),
		TokenEfficiency: scoreOrDefault(payload.Scores.TokenEfficiency),
		GoalAlignment:   scoreOrDefault(payload.Scores.GoalAlignment),
		Structure:       scoreOrDefault(payload.Scores.Structure),
		VaguenessIndex:  scoreOrDefault(payload.Scores.VaguenessIndex),
	}

	mistakes := make([]models.Mistake, 0, len(payload.Mistakes))
	for _, m := range payload.Mistakes {
		if m.Type == nil {
			return models.AnalysisResult{}, &IncompleteResultError{Field: "mistake type"}
		}
		if m.Suggestion == nil {
			return models.AnalysisResult{}, &IncompleteResultError{Field: "mistake suggestion"}
		}
		mistakes = append(mistakes, models.Mistake{
			Type:       *m.Type,
			Text:       m.Text,
			Suggestion: *m.Suggestion,
		})
	}

	rewritten := prompt
	if payload.RewrittenPrompt != nil {
		rewritten = *payload.RewrittenPrompt
	}

	return models.AnalysisResult{
		OriginalPrompt:  prompt,
		OverallScore:    payload.OverallScore,
		Scores:          scores,
		Mistakes:        mistakes,
		RewrittenPrompt: rewritten,
		TokenComparison: compareTokens(prompt, rewritten, count),
		Metadata:        meta,
	}, nil
}

func scoreOrDefault(p *scorePayload) models.Score {
	if p == nil {
		return models.Score{Score: 0, Reasoning: "N/A"}
	}
	return models.Score{Score: p.Score, Reasoning: p.Reasoning}
}

// compareTokens counts both prompts independently and derives the savings
// percentage. Savings is exactly 0.0 when the original counts zero tokens.
func compareTokens(original, rewritten string, count TokenCounter) models.TokenComparison {
	originalTokens := count(original)
	rewrittenTokens := count(rewritten)

	savings := 0.0
	if originalTokens > 0 {
		savings = round1((1 - float64(rewrittenTokens)/float64(originalTokens)) * 100)
	}

	return models.TokenComparison{
		OriginalTokens:  originalTokens,
		RewrittenTokens: rewrittenTokens,
		SavingsPercent:  savings,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
