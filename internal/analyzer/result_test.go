package analyzer

import (
	"errors"
	"testing"

	"github.com/stitchlabs/promptdash/internal/llm"
	"github.com/stitchlabs/promptdash/models"
)

func TestBuildResult_MissingDimensionsDefault(t *testing.T) {
	payload, err := parsePayload(`{
		"overall_score": 55,
		"scores": {
			"clarity": {"score": 80, "reasoning": "fine"}
		},
		"mistakes": [],
		"rewritten_prompt": "better prompt"
	}`)
	if err != nil {
		t.Fatalf("parsePayload() error: %v", err)
	}

	result, err := buildResult(payload, "original prompt", models.Metadata{}, llm.EstimateTokens)
	if err != nil {
		t.Fatalf("buildResult() error: %v", err)
	}

	if result.Scores.Clarity.Score != 80 {
		t.Errorf("clarity score = %d, want 80", result.Scores.Clarity.Score)
	}
	for _, dim := range result.Scores.Ordered()[1:] {
		if dim.Score.Score != 0 || dim.Score.Reasoning != "N/A" {
			t.Errorf("dimension %s = %+v, want {0 N/A}", dim.Name, dim.Score)
		}
	}
}

func TestBuildResult_IncompleteMistakeFailsWholeBuild(t *testing.T) {
	tests := []struct {
		name    string
		mistake string
	}{
		{name: "missing type", mistake: `{"text": "x", "suggestion": "y"}`},
		{name: "missing suggestion", mistake: `{"type": "vague", "text": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := parsePayload(`{"overall_score": 40, "scores": {}, "mistakes": [` + tt.mistake + `]}`)
			if err != nil {
				t.Fatalf("parsePayload() error: %v", err)
			}

			_, err = buildResult(payload, "p", models.Metadata{}, llm.EstimateTokens)
			var incomplete *IncompleteResultError
			if !errors.As(err, &incomplete) {
				t.Fatalf("buildResult() error = %v, want *IncompleteResultError", err)
			}
		})
	}
}

func TestBuildResult_MistakeTextMayBeAbsent(t *testing.T) {
	payload, err := parsePayload(`{
		"overall_score": 60,
		"scores": {},
		"mistakes": [{"type": "missing_context", "suggestion": "state the runtime"}]
	}`)
	if err != nil {
		t.Fatalf("parsePayload() error: %v", err)
	}

	result, err := buildResult(payload, "p", models.Metadata{}, llm.EstimateTokens)
	if err != nil {
		t.Fatalf("buildResult() error: %v", err)
	}
	if len(result.Mistakes) != 1 {
		t.Fatalf("mistakes = %d, want 1", len(result.Mistakes))
	}
	if result.Mistakes[0].Text != nil {
		t.Errorf("mistake text = %v, want nil", *result.Mistakes[0].Text)
	}
}

func TestBuildResult_RewriteDefaultsToOriginal(t *testing.T) {
	payload, err := parsePayload(`{"overall_score": 90, "scores": {}, "mistakes": []}`)
	if err != nil {
		t.Fatalf("parsePayload() error: %v", err)
	}

	result, err := buildResult(payload, "keep me as-is", models.Metadata{}, llm.EstimateTokens)
	if err != nil {
		t.Fatalf("buildResult() error: %v", err)
	}
	if result.RewrittenPrompt != "keep me as-is" {
		t.Errorf("rewritten = %q, want the original prompt", result.RewrittenPrompt)
	}
	if result.TokenComparison.SavingsPercent != 0.0 {
		t.Errorf("savings = %v, want 0.0 for identical prompts", result.TokenComparison.SavingsPercent)
	}
}

func TestCompareTokens(t *testing.T) {
	// 1 token per 4 chars with floor division.
	count := llm.EstimateTokens

	tests := []struct {
		name        string
		original    string
		rewritten   string
		wantSavings float64
	}{
		{
			name:        "half the tokens saves 50 percent",
			original:    "aaaabbbbccccdddd", // 4 tokens
			rewritten:   "aaaabbbb",         // 2 tokens
			wantSavings: 50.0,
		},
		{
			name:        "longer rewrite goes negative",
			original:    "aaaabbbb",         // 2 tokens
			rewritten:   "aaaabbbbccccdddd", // 4 tokens
			wantSavings: -100.0,
		},
		{
			name:        "zero original tokens is exactly zero savings",
			original:    "abc", // 0 tokens under floor division
			rewritten:   "aaaabbbb",
			wantSavings: 0.0,
		},
		{
			name:        "one third rounds to a single decimal",
			original:    "aaaabbbbcccc", // 3 tokens
			rewritten:   "aaaabbbb",     // 2 tokens
			wantSavings: 33.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareTokens(tt.original, tt.rewritten, count)
			if got.SavingsPercent != tt.wantSavings {
				t.Errorf("savings = %v, want %v", got.SavingsPercent, tt.wantSavings)
			}
		})
	}
}

func TestFallbackResult(t *testing.T) {
	meta := models.Metadata{ProjectID: "proj", SourceAgent: "planner"}
	result := fallbackResult("original text here", "malformed generator response", meta, llm.EstimateTokens)

	if result.OverallScore != 0 {
		t.Errorf("overall score = %d, want 0", result.OverallScore)
	}
	for _, dim := range result.Scores.Ordered() {
		if dim.Score.Score != 0 {
			t.Errorf("dimension %s score = %d, want 0", dim.Name, dim.Score.Score)
		}
	}
	if len(result.Mistakes) != 1 {
		t.Fatalf("mistakes = %d, want exactly 1", len(result.Mistakes))
	}
	if result.Mistakes[0].Type != models.MistakeTypeAnalysisError {
		t.Errorf("mistake type = %q, want %q", result.Mistakes[0].Type, models.MistakeTypeAnalysisError)
	}
	if result.RewrittenPrompt != result.OriginalPrompt {
		t.Errorf("fallback rewrite %q differs from original %q", result.RewrittenPrompt, result.OriginalPrompt)
	}
	if result.TokenComparison.SavingsPercent != 0.0 {
		t.Errorf("fallback savings = %v, want 0.0", result.TokenComparison.SavingsPercent)
	}
	if result.Metadata.Mode() != models.ModeAgent {
		t.Errorf("mode = %q, want agent when a source agent is set", result.Metadata.Mode())
	}
}
