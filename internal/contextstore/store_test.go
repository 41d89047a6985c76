package contextstore

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/stitchlabs/promptdash/models"
)

func newTestStore() *Store {
	return NewWithFs(afero.NewMemMapFs(), "context")
}

func resultWithScore(score int, mistakeTypes ...string) models.AnalysisResult {
	mistakes := make([]models.Mistake, 0, len(mistakeTypes))
	for _, t := range mistakeTypes {
		mistakes = append(mistakes, models.Mistake{Type: t, Suggestion: "fix it"})
	}
	return models.AnalysisResult{
		OriginalPrompt:  "original",
		OverallScore:    score,
		Mistakes:        mistakes,
		RewrittenPrompt: "rewritten prompt text",
	}
}

func TestAgentContext_IncrementalMean(t *testing.T) {
	s := newTestStore()

	scores := []int{80, 60, 100}
	wantAvgs := []float64{80.0, 70.0, 80.0}

	for i, score := range scores {
		if err := s.UpdateAgentContext("proj", "planner", resultWithScore(score)); err != nil {
			t.Fatalf("UpdateAgentContext() error: %v", err)
		}
		ctx := s.GetAgentContext("proj", "planner")
		if ctx.TotalAnalyses != i+1 {
			t.Errorf("after %d updates: analyses = %d", i+1, ctx.TotalAnalyses)
		}
		if ctx.AvgScore != wantAvgs[i] {
			t.Errorf("after %d updates: avg = %v, want %v", i+1, ctx.AvgScore, wantAvgs[i])
		}
	}
}

func TestAgentContext_WeakestDimensionTiesResolveInOrder(t *testing.T) {
	s := newTestStore()

	result := resultWithScore(50)
	result.Scores = models.Scores{
		Clarity:         models.Score{Score: 70},
		TokenEfficiency: models.Score{Score: 40},
		GoalAlignment:   models.Score{Score: 40},
		Structure:       models.Score{Score: 90},
		VaguenessIndex:  models.Score{Score: 60},
	}

	if err := s.UpdateAgentContext("proj", "coder", result); err != nil {
		t.Fatalf("UpdateAgentContext() error: %v", err)
	}

	ctx := s.GetAgentContext("proj", "coder")
	if ctx.WeakestDimension != "token_efficiency" {
		t.Errorf("weakest = %q, want token_efficiency (first of the tied minimums)", ctx.WeakestDimension)
	}
}

func TestPatterns_MistakeTableCapAndRanking(t *testing.T) {
	s := newTestStore()

	// One type five times, then eleven distinct types once each.
	for i := 0; i < 5; i++ {
		if err := s.UpdatePatterns("proj", resultWithScore(50, "vague_pronoun")); err != nil {
			t.Fatalf("UpdatePatterns() error: %v", err)
		}
	}
	for i := 0; i < 11; i++ {
		if err := s.UpdatePatterns("proj", resultWithScore(50, fmt.Sprintf("type_%02d", i))); err != nil {
			t.Fatalf("UpdatePatterns() error: %v", err)
		}
	}

	patterns := s.GetPatterns("proj")
	if len(patterns.CommonMistakes) != 10 {
		t.Fatalf("table size = %d, want cap of 10", len(patterns.CommonMistakes))
	}
	if patterns.CommonMistakes[0].Type != "vague_pronoun" || patterns.CommonMistakes[0].Count != 5 {
		t.Errorf("top entry = %+v, want vague_pronoun x5", patterns.CommonMistakes[0])
	}
	// Singleton ties keep insertion order, so the earliest singletons survive.
	if patterns.CommonMistakes[1].Type != "type_00" {
		t.Errorf("second entry = %+v, want type_00", patterns.CommonMistakes[1])
	}
}

func TestPatterns_TemplateThresholdAndBudget(t *testing.T) {
	s := newTestStore()

	below := resultWithScore(84)
	if err := s.UpdatePatterns("proj", below); err != nil {
		t.Fatalf("UpdatePatterns() error: %v", err)
	}
	if got := s.GetPatterns("proj").BestTemplates; len(got) != 0 {
		t.Fatalf("score 84 stored as template: %+v", got)
	}

	long := resultWithScore(90)
	long.RewrittenPrompt = strings.Repeat("x", 600)
	if err := s.UpdatePatterns("proj", long); err != nil {
		t.Fatalf("UpdatePatterns() error: %v", err)
	}

	templates := s.GetPatterns("proj").BestTemplates
	if len(templates) != 1 {
		t.Fatalf("templates = %d, want 1", len(templates))
	}
	if len(templates[0].Prompt) != 500 {
		t.Errorf("template length = %d, want 500-char excerpt", len(templates[0].Prompt))
	}

	// Six qualifying templates keep only the five best.
	for score := 85; score <= 90; score++ {
		if err := s.UpdatePatterns("proj", resultWithScore(score)); err != nil {
			t.Fatalf("UpdatePatterns() error: %v", err)
		}
	}
	templates = s.GetPatterns("proj").BestTemplates
	if len(templates) != 5 {
		t.Fatalf("templates = %d, want cap of 5", len(templates))
	}
	for i := 1; i < len(templates); i++ {
		if templates[i].Score > templates[i-1].Score {
			t.Errorf("templates not sorted by score desc: %+v", templates)
		}
	}
}

func TestPatterns_TemplateBudgetCountsRunes(t *testing.T) {
	s := newTestStore()

	// A multi-byte rune straddling the 500-byte mark must not be torn.
	res := resultWithScore(90)
	res.RewrittenPrompt = strings.Repeat("x", 499) + "éé"
	if err := s.UpdatePatterns("proj", res); err != nil {
		t.Fatalf("UpdatePatterns() error: %v", err)
	}

	got := s.GetPatterns("proj").BestTemplates[0].Prompt
	if !utf8.ValidString(got) || strings.ContainsRune(got, utf8.RuneError) {
		t.Fatalf("stored excerpt is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 500 {
		t.Errorf("excerpt runes = %d, want 500", n)
	}
	if !strings.HasSuffix(got, "é") {
		t.Errorf("excerpt should end on the first é, got suffix %q", got[len(got)-4:])
	}
}

func TestHistory_AppendAndRecent(t *testing.T) {
	s := newTestStore()

	for i := 1; i <= 4; i++ {
		if err := s.AppendHistory("proj", resultWithScore(i*10)); err != nil {
			t.Fatalf("AppendHistory() error: %v", err)
		}
	}

	recent := s.RecentHistory("proj", 3)
	if len(recent) != 3 {
		t.Fatalf("recent = %d entries, want 3", len(recent))
	}
	// Chronological order, oldest of the window first.
	wantScores := []int{20, 30, 40}
	for i, entry := range recent {
		if entry.OverallScore != wantScores[i] {
			t.Errorf("entry %d score = %d, want %d", i, entry.OverallScore, wantScores[i])
		}
		if entry.StoredAt.IsZero() {
			t.Errorf("entry %d has no stored-at timestamp", i)
		}
	}
}

func TestProjectIsolation(t *testing.T) {
	s := newTestStore()

	if err := s.UpdatePatterns("alpha", resultWithScore(50, "vague_pronoun")); err != nil {
		t.Fatalf("UpdatePatterns() error: %v", err)
	}
	if err := s.AppendHistory("alpha", resultWithScore(50)); err != nil {
		t.Fatalf("AppendHistory() error: %v", err)
	}

	if got := s.GetPatterns("beta").CommonMistakes; len(got) != 0 {
		t.Errorf("project beta sees alpha's mistakes: %+v", got)
	}
	if got := s.RecentHistory("beta", 10); len(got) != 0 {
		t.Errorf("project beta sees alpha's history: %d entries", len(got))
	}
	if summary := s.BuildContextSummary("beta", ""); summary != "" {
		t.Errorf("project beta has a non-empty summary: %q", summary)
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"a/b", "a_b"},
		{`a\b`, "a_b"},
	}
	for _, tt := range tests {
		if got := sanitizeID(tt.in); got != tt.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	got := sanitizeID("../secret")
	if strings.Contains(got, "..") || strings.Contains(got, "/") {
		t.Errorf("sanitizeID left traversal characters: %q", got)
	}
}

func TestSaveProfileAndSummary(t *testing.T) {
	s := newTestStore()

	if !s.GetProfile("proj").IsZero() {
		t.Fatal("fresh project should have a zero profile")
	}

	err := s.SaveProfile("proj", Profile{Name: "Shop", Domain: "e-commerce", Description: "checkout flows"})
	if err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}

	summary := s.BuildContextSummary("proj", "")
	for _, want := range []string{"PROJECT: Shop", "Domain: e-commerce", "Description: checkout flows"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	if got := s.BuildContextSummary("", ""); got != "" {
		t.Errorf("empty project id produced a summary: %q", got)
	}
}

func TestSummary_BestTemplateKeepsRawText(t *testing.T) {
	s := newTestStore()

	res := resultWithScore(92)
	res.RewrittenPrompt = "Line one.\nLine two."
	if err := s.UpdatePatterns("proj", res); err != nil {
		t.Fatalf("UpdatePatterns() error: %v", err)
	}

	summary := s.BuildContextSummary("proj", "")
	if !strings.Contains(summary, "\"Line one.\nLine two.\"") {
		t.Errorf("summary should quote the template verbatim:\n%s", summary)
	}
	if strings.Contains(summary, `\n`) {
		t.Errorf("summary contains escape sequences:\n%s", summary)
	}
}
