// Token estimation utilities for prompt comparison.
package llm

// EstimateTokens provides a heuristic-based token count estimate for text.
// Uses the industry standard approximation of ~4 characters per token.
// This is intentionally simple and dependency-free for fast, predictable behavior.
func EstimateTokens(text string) int {
	return len(text) / 4
}
