package analyzer

import (
	"fmt"

	"github.com/stitchlabs/promptdash/models"
)

// fallbackResult produces a well-formed, zero-scored result when extraction
// or building fails. The failure cause lands in every reasoning string and in
// the single analysis_error mistake, so the degraded result stays diagnosable
// and storable.
func fallbackResult(prompt, cause string, meta models.Metadata, count TokenCounter) models.AnalysisResult {
	failed := models.Score{Score: 0, Reasoning: fmt.Sprintf("Analysis failed: %s", cause)}

	tokens := count(prompt)

	return models.AnalysisResult{
		OriginalPrompt: prompt,
		OverallScore:   0,
		Scores: models.Scores{
			Clarity:         failed,
			TokenEfficiency: failed,
			GoalAlignment:   failed,
			Structure:       failed,
			VaguenessIndex:  failed,
		},
		Mistakes: []models.Mistake{
			{
				Type:       models.MistakeTypeAnalysisError,
				Text:       nil,
				Suggestion: fmt.Sprintf("Re-run analysis. Error: %s", cause),
			},
		},
		RewrittenPrompt: prompt,
		TokenComparison: models.TokenComparison{
			OriginalTokens:  tokens,
			RewrittenTokens: tokens,
			SavingsPercent:  0.0,
		},
		Metadata: meta,
	}
}
