package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Overview is the dashboard's top-level KPI block.
type Overview struct {
	TotalInteractions     int     `json:"total_interactions"`
	HumanCount            int     `json:"human_count"`
	AgentCount            int     `json:"agent_count"`
	AvgOverallScore       float64 `json:"avg_overall_score"`
	AvgTokenSavings       float64 `json:"avg_token_savings"`
	RewriteAcceptanceRate float64 `json:"rewrite_acceptance_rate"`
	TotalMistakesFound    int     `json:"total_mistakes_found"`
	TotalTokens           int     `json:"total_tokens"`
	AvgTokensPerPrompt    float64 `json:"avg_tokens_per_prompt"`
}

// TrendPoint is a single bucket in a score time series.
type TrendPoint struct {
	Date     string  `json:"date"`
	AvgScore float64 `json:"avg_score"`
	Count    int     `json:"count"`
}

// MistakeFrequency reports how often a mistake type appears across all
// stored analyses.
type MistakeFrequency struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AgentStats is one row of the agent leaderboard.
type AgentStats struct {
	AgentID      string  `json:"agent_id"`
	TotalPrompts int     `json:"total_prompts"`
	AvgScore     float64 `json:"avg_score"`
}

// InteractionRow is a stored analysis as the dashboard feed renders it.
type InteractionRow struct {
	ID              int64   `json:"id"`
	Timestamp       string  `json:"timestamp"`
	Mode            string  `json:"mode"`
	SourceAgent     *string `json:"source_agent"`
	TargetAgent     *string `json:"target_agent"`
	ProjectID       *string `json:"project_id"`
	OriginalPrompt  string  `json:"original_prompt"`
	RewrittenPrompt string  `json:"rewritten_prompt"`
	OverallScore    int     `json:"overall_score"`
	Clarity         int     `json:"clarity"`
	TokenEfficiency int     `json:"token_efficiency"`
	GoalAlignment   int     `json:"goal_alignment"`
	Structure       int     `json:"structure"`
	VaguenessIndex  int     `json:"vagueness_index"`
	MistakeCount    int     `json:"mistake_count"`
	TokenSavings    float64 `json:"token_savings"`
	RewriteUsed     *bool   `json:"rewrite_used"`
}

// Interactions returns a page of stored analyses, newest first, optionally
// filtered by project.
func (s *Store) Interactions(limit, offset int, projectID string) ([]InteractionRow, error) {
	query := `SELECT id, timestamp, mode, source_agent, target_agent, project_id,
		original_prompt, rewritten_prompt, overall_score,
		clarity, token_efficiency, goal_alignment, structure, vagueness_index,
		mistake_count, token_savings_percent, rewrite_used
		FROM analyses`
	args := []any{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []InteractionRow{}
	for rows.Next() {
		var r InteractionRow
		var rewriteUsed sql.NullInt64
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Mode, &r.SourceAgent, &r.TargetAgent, &r.ProjectID,
			&r.OriginalPrompt, &r.RewrittenPrompt, &r.OverallScore,
			&r.Clarity, &r.TokenEfficiency, &r.GoalAlignment, &r.Structure, &r.VaguenessIndex,
			&r.MistakeCount, &r.TokenSavings, &rewriteUsed,
		); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if rewriteUsed.Valid {
			used := rewriteUsed.Int64 == 1
			r.RewriteUsed = &used
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the total number of stored analyses, optionally filtered by
// project.
func (s *Store) Count(projectID string) (int, error) {
	var n int
	var err error
	if projectID != "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM analyses WHERE project_id = ?", projectID).Scan(&n)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

// GetOverview computes the dashboard KPI block in one aggregate pass. The
// rewrite acceptance rate counts only rows where a choice was recorded.
func (s *Store) GetOverview() (Overview, error) {
	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN mode = 'human' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN mode = 'agent' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(overall_score), 0),
			COALESCE(AVG(token_savings_percent), 0),
			COALESCE(SUM(mistake_count), 0),
			COALESCE(SUM(CASE WHEN rewrite_used = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rewrite_used IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(original_tokens), 0),
			COALESCE(AVG(original_tokens), 0)
		FROM analyses`)

	var o Overview
	var accepted, decided int
	var avgScore, avgSavings, avgTokens float64
	if err := row.Scan(
		&o.TotalInteractions, &o.HumanCount, &o.AgentCount,
		&avgScore, &avgSavings, &o.TotalMistakesFound,
		&accepted, &decided, &o.TotalTokens, &avgTokens,
	); err != nil {
		return Overview{}, fmt.Errorf("overview stats: %w", err)
	}

	if o.TotalInteractions == 0 {
		return Overview{}, nil
	}

	o.AvgOverallScore = round1(avgScore)
	o.AvgTokenSavings = round1(avgSavings)
	o.AvgTokensPerPrompt = round1(avgTokens)
	if decided > 0 {
		o.RewriteAcceptanceRate = round1(float64(accepted) / float64(decided) * 100)
	}
	return o, nil
}

// GetTrends returns average-score buckets over time, ascending by period.
// With hours > 0 the series covers the last `hours` hours bucketed by hour;
// otherwise it covers the last `days` days bucketed by calendar day.
func (s *Store) GetTrends(hours, days int) ([]TrendPoint, error) {
	var rows *sql.Rows
	var err error
	if hours > 0 {
		rows, err = s.db.Query(`
			SELECT strftime('%Y-%m-%d %H:00', timestamp) AS period,
				AVG(overall_score), COUNT(*)
			FROM analyses
			WHERE datetime(timestamp) >= datetime('now', ?)
			GROUP BY period
			ORDER BY period ASC`,
			fmt.Sprintf("-%d hours", hours),
		)
	} else {
		rows, err = s.db.Query(`
			SELECT DATE(timestamp) AS period,
				AVG(overall_score), COUNT(*)
			FROM analyses
			WHERE datetime(timestamp) >= datetime('now', ?)
			GROUP BY period
			ORDER BY period ASC`,
			fmt.Sprintf("-%d days", days),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	points := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		var avg float64
		if err := rows.Scan(&p.Date, &avg, &p.Count); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		p.AvgScore = round1(avg)
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetMistakeFrequencies returns the most common mistake types with their
// share of all recorded mistakes. Counting happens over the serialized
// mistake lists since types are not individually indexed.
func (s *Store) GetMistakeFrequencies(limit int) ([]MistakeFrequency, error) {
	rows, err := s.db.Query("SELECT mistakes_json FROM analyses WHERE mistakes_json IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	var order []string
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan mistakes: %w", err)
		}
		var mistakes []struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(blob), &mistakes); err != nil {
			continue
		}
		for _, m := range mistakes {
			t := m.Type
			if t == "" {
				t = "unknown"
			}
			if _, seen := counts[t]; !seen {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return []MistakeFrequency{}, nil
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	out := make([]MistakeFrequency, 0, len(order))
	for _, t := range order {
		out = append(out, MistakeFrequency{
			Type:       t,
			Count:      counts[t],
			Percentage: round1(float64(counts[t]) / float64(total) * 100),
		})
	}
	return out, nil
}

// GetAgentLeaderboard ranks source agents by average overall score.
func (s *Store) GetAgentLeaderboard() ([]AgentStats, error) {
	rows, err := s.db.Query(`
		SELECT source_agent, COUNT(*), AVG(overall_score)
		FROM analyses
		WHERE source_agent IS NOT NULL
		GROUP BY source_agent
		ORDER BY AVG(overall_score) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []AgentStats{}
	for rows.Next() {
		var a AgentStats
		var avg float64
		if err := rows.Scan(&a.AgentID, &a.TotalPrompts, &avg); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		a.AvgScore = round1(avg)
		out = append(out, a)
	}
	return out, rows.Err()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
