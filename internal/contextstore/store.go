// Package contextstore manages per-project analysis context with strict
// isolation. Each project gets its own directory under the base dir; context
// from one project is never read or written by another project's operations.
package contextstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/stitchlabs/promptdash/models"
)

const appendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

const (
	profileFile  = "profile.json"
	historyFile  = "history.jsonl"
	patternsFile = "patterns.json"
	agentsDir    = "agents"

	// Pattern mining limits.
	maxProjectMistakes = 10
	maxAgentMistakes   = 5
	maxTemplates       = 5
	templateThreshold  = 85
	templateCharBudget = 500
)

// Profile is an optional free-form description of a project, created on
// first explicit save.
type Profile struct {
	Name        string `json:"name,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsZero reports whether the profile carries no data.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// MistakeCount is one row of a mistake-type frequency table.
type MistakeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Template is a high-scoring rewritten prompt kept as a reference excerpt.
type Template struct {
	Prompt string `json:"prompt"`
	Score  int    `json:"score"`
}

// Patterns holds what the store has mined from a project's history.
type Patterns struct {
	CommonMistakes []MistakeCount `json:"common_mistakes"`
	BestTemplates  []Template     `json:"best_templates"`
	PreferredStyle string         `json:"preferred_style"`
}

// AgentContext tracks one agent's running statistics within a project.
type AgentContext struct {
	AgentID          string         `json:"agent_id"`
	TotalAnalyses    int            `json:"total_analyses"`
	AvgScore         float64        `json:"avg_score"`
	CommonMistakes   []MistakeCount `json:"common_mistakes"`
	WeakestDimension string         `json:"weakest_dimension,omitempty"`
}

// HistoryEntry is a stored analysis snapshot plus the store-side timestamp.
type HistoryEntry struct {
	models.AnalysisResult
	StoredAt time.Time `json:"_stored_at"`
}

// Store manages per-project context files. All state lives under baseDir;
// project and agent identifiers are sanitized before touching the
// filesystem so one identifier cannot escape its namespace.
//
// Writes within a project are serialized by a per-project mutex, closing the
// read-modify-write race between concurrent updates in the same process.
type Store struct {
	fs      afero.Fs
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store backed by the operating system filesystem.
func New(baseDir string) *Store {
	return NewWithFs(afero.NewOsFs(), baseDir)
}

// NewWithFs creates a store on the provided filesystem. Use
// afero.NewMemMapFs() for testing.
func NewWithFs(fs afero.Fs, baseDir string) *Store {
	return &Store{
		fs:      fs,
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// projectLock returns the mutex serializing writes for one project.
func (s *Store) projectLock(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.locks[projectID]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[projectID] = lk
	}
	return lk
}

// sanitizeID neutralizes path separators and parent-directory sequences so
// an identifier always stays inside its designated directory.
func sanitizeID(id string) string {
	id = strings.ReplaceAll(id, "/", "_")
	id = strings.ReplaceAll(id, "\\", "_")
	id = strings.ReplaceAll(id, "..", "_")
	return id
}

func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.baseDir, "project_"+sanitizeID(projectID))
}

func (s *Store) profilePath(projectID string) string {
	return filepath.Join(s.projectDir(projectID), profileFile)
}

func (s *Store) historyPath(projectID string) string {
	return filepath.Join(s.projectDir(projectID), historyFile)
}

func (s *Store) patternsPath(projectID string) string {
	return filepath.Join(s.projectDir(projectID), patternsFile)
}

func (s *Store) agentPath(projectID, agentID string) string {
	return filepath.Join(s.projectDir(projectID), agentsDir, sanitizeID(agentID)+".json")
}

func (s *Store) ensureDir(path string) error {
	return s.fs.MkdirAll(filepath.Dir(path), 0o755)
}

// readJSON loads a whole-document JSON file into out. A missing or
// unreadable file reports false; the caller falls back to defaults. Context
// reads never block an analysis.
func (s *Store) readJSON(path string, out any) bool {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// writeJSON rewrites a whole-document JSON file (last write wins).
func (s *Store) writeJSON(path string, v any) error {
	if err := s.ensureDir(path); err != nil {
		return fmt.Errorf("create context directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal context document: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// GetProfile loads a project profile. A new or unreadable project yields the
// zero profile.
func (s *Store) GetProfile(projectID string) Profile {
	var p Profile
	s.readJSON(s.profilePath(projectID), &p)
	return p
}

// SaveProfile saves or replaces a project profile.
func (s *Store) SaveProfile(projectID string, p Profile) error {
	lk := s.projectLock(projectID)
	lk.Lock()
	defer lk.Unlock()
	return s.writeJSON(s.profilePath(projectID), p)
}

// AppendHistory appends one analysis snapshot to the project's history log.
// History is append-only; prior lines are never rewritten.
func (s *Store) AppendHistory(projectID string, result models.AnalysisResult) error {
	lk := s.projectLock(projectID)
	lk.Lock()
	defer lk.Unlock()

	path := s.historyPath(projectID)
	if err := s.ensureDir(path); err != nil {
		return fmt.Errorf("create context directory: %w", err)
	}

	entry := HistoryEntry{AnalysisResult: result, StoredAt: time.Now().UTC()}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	f, err := s.fs.OpenFile(path, appendFlags, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// RecentHistory returns the last n history entries in chronological order,
// oldest first. Malformed lines are skipped.
func (s *Store) RecentHistory(projectID string, n int) []HistoryEntry {
	f, err := s.fs.Open(s.historyPath(projectID))
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}

// GetPatterns loads the mined patterns for a project, or defaults.
func (s *Store) GetPatterns(projectID string) Patterns {
	p := Patterns{
		CommonMistakes: []MistakeCount{},
		BestTemplates:  []Template{},
	}
	s.readJSON(s.patternsPath(projectID), &p)
	return p
}

// UpdatePatterns folds a new analysis into the project's mined patterns:
// the top-10 mistake frequency table is recomputed, and rewrites scoring at
// least the template threshold join the top-5 template list.
func (s *Store) UpdatePatterns(projectID string, result models.AnalysisResult) error {
	lk := s.projectLock(projectID)
	lk.Lock()
	defer lk.Unlock()

	patterns := s.GetPatterns(projectID)

	types := make([]string, 0, len(result.Mistakes))
	for _, m := range result.Mistakes {
		types = append(types, m.Type)
	}
	patterns.CommonMistakes = tallyMistakes(patterns.CommonMistakes, types, maxProjectMistakes)

	if result.OverallScore >= templateThreshold && result.RewrittenPrompt != "" {
		excerpt := result.RewrittenPrompt
		if utf8.RuneCountInString(excerpt) > templateCharBudget {
			excerpt = string([]rune(excerpt)[:templateCharBudget])
		}
		patterns.BestTemplates = append(patterns.BestTemplates, Template{
			Prompt: excerpt,
			Score:  result.OverallScore,
		})
		sort.SliceStable(patterns.BestTemplates, func(i, j int) bool {
			return patterns.BestTemplates[i].Score > patterns.BestTemplates[j].Score
		})
		if len(patterns.BestTemplates) > maxTemplates {
			patterns.BestTemplates = patterns.BestTemplates[:maxTemplates]
		}
	}

	return s.writeJSON(s.patternsPath(projectID), patterns)
}

// GetAgentContext loads an agent's context within a project, or defaults.
func (s *Store) GetAgentContext(projectID, agentID string) AgentContext {
	ctx := AgentContext{
		AgentID:        agentID,
		CommonMistakes: []MistakeCount{},
	}
	s.readJSON(s.agentPath(projectID, agentID), &ctx)
	return ctx
}

// UpdateAgentContext folds a new analysis into an agent's running stats:
// incremental mean, top-5 mistake table, and the weakest dimension of the
// current analysis.
func (s *Store) UpdateAgentContext(projectID, agentID string, result models.AnalysisResult) error {
	lk := s.projectLock(projectID)
	lk.Lock()
	defer lk.Unlock()

	ctx := s.GetAgentContext(projectID, agentID)

	n := ctx.TotalAnalyses
	ctx.AvgScore = round1((ctx.AvgScore*float64(n) + float64(result.OverallScore)) / float64(n+1))
	ctx.TotalAnalyses = n + 1

	types := make([]string, 0, len(result.Mistakes))
	for _, m := range result.Mistakes {
		types = append(types, m.Type)
	}
	ctx.CommonMistakes = tallyMistakes(ctx.CommonMistakes, types, maxAgentMistakes)

	ctx.WeakestDimension = weakestDimension(result.Scores)

	return s.writeJSON(s.agentPath(projectID, agentID), ctx)
}

// tallyMistakes increments the frequency table with the new mistake types
// and returns it sorted by count descending, capped at limit. The sort is
// stable so ties keep insertion order.
func tallyMistakes(existing []MistakeCount, newTypes []string, limit int) []MistakeCount {
	index := make(map[string]int, len(existing))
	counts := make([]MistakeCount, len(existing))
	copy(counts, existing)
	for i, mc := range counts {
		index[mc.Type] = i
	}

	for _, t := range newTypes {
		if i, ok := index[t]; ok {
			counts[i].Count++
		} else {
			index[t] = len(counts)
			counts = append(counts, MistakeCount{Type: t, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// weakestDimension returns the dimension with the lowest score in the
// current analysis. Iteration follows the canonical dimension order, so the
// first minimum wins ties.
func weakestDimension(scores models.Scores) string {
	weakest := ""
	low := 0
	for i, ds := range scores.Ordered() {
		if i == 0 || ds.Score.Score < low {
			weakest = ds.Name
			low = ds.Score.Score
		}
	}
	return weakest
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
