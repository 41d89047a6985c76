package contextstore

import (
	"fmt"
	"strings"
)

// BuildContextSummary renders the project's accumulated context as text for
// injection into the analyzer's system prompt. Sections appear in a fixed
// order (project profile, recurring mistakes, best template, agent stats)
// and only when they have data. An empty project id, or a project with
// nothing accumulated, yields an empty string.
//
// Only the named project's files are read; this is the isolation boundary.
func (s *Store) BuildContextSummary(projectID, sourceAgent string) string {
	if projectID == "" {
		return ""
	}

	var parts []string

	profile := s.GetProfile(projectID)
	if !profile.IsZero() {
		name := profile.Name
		if name == "" {
			name = projectID
		}
		parts = append(parts, fmt.Sprintf("PROJECT: %s", name))
		if profile.Domain != "" {
			parts = append(parts, fmt.Sprintf("Domain: %s", profile.Domain))
		}
		if profile.Description != "" {
			parts = append(parts, fmt.Sprintf("Description: %s", profile.Description))
		}
	}

	patterns := s.GetPatterns(projectID)
	if len(patterns.CommonMistakes) > 0 {
		top := patterns.CommonMistakes
		if len(top) > 5 {
			top = top[:5]
		}
		descs := make([]string, 0, len(top))
		for _, mc := range top {
			descs = append(descs, fmt.Sprintf("%s (%dx)", mc.Type, mc.Count))
		}
		parts = append(parts, fmt.Sprintf("RECURRING MISTAKES IN THIS PROJECT: %s", strings.Join(descs, ", ")))
	}

	if len(patterns.BestTemplates) > 0 {
		best := patterns.BestTemplates[0]
		parts = append(parts, fmt.Sprintf("HIGHEST-SCORING PROMPT IN THIS PROJECT (score %d):\n\"%s\"", best.Score, best.Prompt))
	}

	if sourceAgent != "" {
		agentCtx := s.GetAgentContext(projectID, sourceAgent)
		if agentCtx.TotalAnalyses > 0 {
			parts = append(parts, fmt.Sprintf(
				"AGENT '%s' IN THIS PROJECT: avg score=%.1f, analyses=%d",
				sourceAgent, agentCtx.AvgScore, agentCtx.TotalAnalyses,
			))
			if agentCtx.WeakestDimension != "" {
				parts = append(parts, fmt.Sprintf("This agent's weakest dimension: %s", agentCtx.WeakestDimension))
			}
			if len(agentCtx.CommonMistakes) > 0 {
				top := agentCtx.CommonMistakes
				if len(top) > 3 {
					top = top[:3]
				}
				names := make([]string, 0, len(top))
				for _, mc := range top {
					names = append(names, mc.Type)
				}
				parts = append(parts, fmt.Sprintf("This agent's common mistakes: %s", strings.Join(names, ", ")))
			}
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return "\n\n--- PROJECT CONTEXT (use this to make recommendations more specific) ---\n" +
		strings.Join(parts, "\n") +
		"\n--- END PROJECT CONTEXT ---"
}
