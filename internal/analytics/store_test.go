package analytics

import (
	"testing"
	"time"

	"github.com/stitchlabs/promptdash/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(score int, sourceAgent string, mistakeTypes ...string) models.AnalysisResult {
	mistakes := make([]models.Mistake, 0, len(mistakeTypes))
	for _, mt := range mistakeTypes {
		mistakes = append(mistakes, models.Mistake{Type: mt, Suggestion: "fix"})
	}
	return models.AnalysisResult{
		OriginalPrompt:  "original prompt",
		OverallScore:    score,
		Mistakes:        mistakes,
		RewrittenPrompt: "rewritten prompt",
		TokenComparison: models.TokenComparison{
			OriginalTokens:  100,
			RewrittenTokens: 80,
			SavingsPercent:  20.0,
		},
		Metadata: models.Metadata{
			SourceAgent: sourceAgent,
			Timestamp:   time.Now().UTC(),
		},
	}
}

func TestStoreResult_AssignsSequentialIDs(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.StoreResult(sampleResult(70, ""))
	if err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}
	id2, err := store.StoreResult(sampleResult(80, "planner"))
	if err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids not increasing: %d then %d", id1, id2)
	}
}

func TestMarkRewriteUsed(t *testing.T) {
	store := newTestStore(t)

	id, err := store.StoreResult(sampleResult(70, ""))
	if err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}

	if err := store.MarkRewriteUsed(id, true); err != nil {
		t.Fatalf("MarkRewriteUsed() error: %v", err)
	}
	if err := store.MarkRewriteUsed(9999, true); err == nil {
		t.Error("MarkRewriteUsed() on a missing row should error")
	}

	rows, err := store.Interactions(10, 0, "")
	if err != nil {
		t.Fatalf("Interactions() error: %v", err)
	}
	if len(rows) != 1 || rows[0].RewriteUsed == nil || !*rows[0].RewriteUsed {
		t.Errorf("rewrite_used not reflected in feed: %+v", rows)
	}
}

func TestGetOverview(t *testing.T) {
	store := newTestStore(t)

	// Empty store: all zeros, no division anywhere.
	empty, err := store.GetOverview()
	if err != nil {
		t.Fatalf("GetOverview() on empty store: %v", err)
	}
	if empty != (Overview{}) {
		t.Errorf("empty overview = %+v, want zero value", empty)
	}

	id1, _ := store.StoreResult(sampleResult(60, "", "vague_pronoun", "missing_context"))
	id2, _ := store.StoreResult(sampleResult(80, "planner", "vague_pronoun"))
	if _, err := store.StoreResult(sampleResult(100, "coder")); err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}

	// Two decisions, one acceptance.
	if err := store.MarkRewriteUsed(id1, true); err != nil {
		t.Fatalf("MarkRewriteUsed() error: %v", err)
	}
	if err := store.MarkRewriteUsed(id2, false); err != nil {
		t.Fatalf("MarkRewriteUsed() error: %v", err)
	}

	o, err := store.GetOverview()
	if err != nil {
		t.Fatalf("GetOverview() error: %v", err)
	}
	if o.TotalInteractions != 3 {
		t.Errorf("total = %d, want 3", o.TotalInteractions)
	}
	if o.HumanCount != 1 || o.AgentCount != 2 {
		t.Errorf("human/agent = %d/%d, want 1/2", o.HumanCount, o.AgentCount)
	}
	if o.AvgOverallScore != 80.0 {
		t.Errorf("avg score = %v, want 80.0", o.AvgOverallScore)
	}
	if o.TotalMistakesFound != 3 {
		t.Errorf("total mistakes = %d, want 3", o.TotalMistakesFound)
	}
	if o.RewriteAcceptanceRate != 50.0 {
		t.Errorf("acceptance = %v, want 50.0 (1 of 2 decided)", o.RewriteAcceptanceRate)
	}
	if o.TotalTokens != 300 {
		t.Errorf("total tokens = %d, want 300", o.TotalTokens)
	}
}

func TestInteractions_PaginationAndFilter(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		r := sampleResult(50+i, "")
		if i%2 == 0 {
			r.Metadata.ProjectID = "shop"
		}
		if _, err := store.StoreResult(r); err != nil {
			t.Fatalf("StoreResult() error: %v", err)
		}
	}

	// Newest first.
	page, err := store.Interactions(2, 0, "")
	if err != nil {
		t.Fatalf("Interactions() error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page = %d rows, want 2", len(page))
	}
	if page[0].OverallScore != 54 || page[1].OverallScore != 53 {
		t.Errorf("page scores = %d, %d; want 54, 53", page[0].OverallScore, page[1].OverallScore)
	}

	second, err := store.Interactions(2, 2, "")
	if err != nil {
		t.Fatalf("Interactions() error: %v", err)
	}
	if second[0].OverallScore != 52 {
		t.Errorf("offset page starts at %d, want 52", second[0].OverallScore)
	}

	filtered, err := store.Interactions(10, 0, "shop")
	if err != nil {
		t.Fatalf("Interactions() error: %v", err)
	}
	if len(filtered) != 3 {
		t.Errorf("project filter = %d rows, want 3", len(filtered))
	}

	n, err := store.Count("shop")
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Count(shop) = %d, want 3", n)
	}
}

func TestGetTrends_DayAndHourBuckets(t *testing.T) {
	store := newTestStore(t)

	for _, score := range []int{60, 70, 80} {
		if _, err := store.StoreResult(sampleResult(score, "")); err != nil {
			t.Fatalf("StoreResult() error: %v", err)
		}
	}

	days, err := store.GetTrends(0, 7)
	if err != nil {
		t.Fatalf("GetTrends(days) error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("day buckets = %d, want 1 (all rows share today)", len(days))
	}
	if days[0].Count != 3 || days[0].AvgScore != 70.0 {
		t.Errorf("day bucket = %+v, want count 3 avg 70.0", days[0])
	}
	if len(days[0].Date) != len("2026-01-02") {
		t.Errorf("day bucket label = %q, want YYYY-MM-DD", days[0].Date)
	}

	hours, err := store.GetTrends(24, 0)
	if err != nil {
		t.Fatalf("GetTrends(hours) error: %v", err)
	}
	if len(hours) == 0 {
		t.Fatal("hour buckets empty")
	}
	if len(hours[0].Date) != len("2026-01-02 15:00") {
		t.Errorf("hour bucket label = %q, want YYYY-MM-DD HH:00", hours[0].Date)
	}
}

func TestGetTrends_ExcludesRowsOutsideWindow(t *testing.T) {
	store := newTestStore(t)

	id, err := store.StoreResult(sampleResult(90, ""))
	if err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}
	// Back-date the row past the window. RFC3339's 'T' separator sorts above
	// the space in datetime('now') output, so a plain string comparison would
	// wrongly admit it.
	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	if _, err := store.db.Exec(`UPDATE analyses SET timestamp = ? WHERE id = ?`, old, id); err != nil {
		t.Fatalf("back-date row: %v", err)
	}

	days, err := store.GetTrends(0, 7)
	if err != nil {
		t.Fatalf("GetTrends(days) error: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("day buckets = %+v, want none for a 30-day-old row", days)
	}

	hours, err := store.GetTrends(24, 0)
	if err != nil {
		t.Fatalf("GetTrends(hours) error: %v", err)
	}
	if len(hours) != 0 {
		t.Errorf("hour buckets = %+v, want none for a 30-day-old row", hours)
	}
}

func TestGetMistakeFrequencies(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.StoreResult(sampleResult(50, "", "vague_pronoun", "missing_context")); err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}
	if _, err := store.StoreResult(sampleResult(50, "", "vague_pronoun")); err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}
	if _, err := store.StoreResult(sampleResult(50, "", "vague_pronoun", "no_structure")); err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}

	freqs, err := store.GetMistakeFrequencies(2)
	if err != nil {
		t.Fatalf("GetMistakeFrequencies() error: %v", err)
	}
	if len(freqs) != 2 {
		t.Fatalf("frequencies = %d, want limit of 2", len(freqs))
	}
	if freqs[0].Type != "vague_pronoun" || freqs[0].Count != 3 {
		t.Errorf("top mistake = %+v, want vague_pronoun x3", freqs[0])
	}
	if freqs[0].Percentage != 60.0 {
		t.Errorf("top percentage = %v, want 60.0 (3 of 5)", freqs[0].Percentage)
	}
	// Singleton tie resolves to insertion order.
	if freqs[1].Type != "missing_context" {
		t.Errorf("second mistake = %+v, want missing_context", freqs[1])
	}
}

func TestGetAgentLeaderboard(t *testing.T) {
	store := newTestStore(t)

	for _, score := range []int{70, 90} {
		if _, err := store.StoreResult(sampleResult(score, "planner")); err != nil {
			t.Fatalf("StoreResult() error: %v", err)
		}
	}
	if _, err := store.StoreResult(sampleResult(95, "coder")); err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}
	// Human analyses never appear on the leaderboard.
	if _, err := store.StoreResult(sampleResult(10, "")); err != nil {
		t.Fatalf("StoreResult() error: %v", err)
	}

	agents, err := store.GetAgentLeaderboard()
	if err != nil {
		t.Fatalf("GetAgentLeaderboard() error: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("leaderboard = %d rows, want 2", len(agents))
	}
	if agents[0].AgentID != "coder" || agents[0].AvgScore != 95.0 {
		t.Errorf("first = %+v, want coder avg 95.0", agents[0])
	}
	if agents[1].AgentID != "planner" || agents[1].TotalPrompts != 2 || agents[1].AvgScore != 80.0 {
		t.Errorf("second = %+v, want planner x2 avg 80.0", agents[1])
	}
}
