package llm

import (
	"fmt"
	"strings"
)

// GeneratorError kind constants. These mirror the failure modes the provider
// SDKs surface: bad credentials, throttling, and everything else.
const (
	ErrKindAuth      = "auth"
	ErrKindRateLimit = "rate_limit"
	ErrKindTransport = "transport"
)

// GeneratorError wraps a provider failure. It is never converted into a
// fallback analysis result; callers surface it directly.
type GeneratorError struct {
	Kind string
	Err  error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator %s error: %v", e.Kind, e.Err)
}

func (e *GeneratorError) Unwrap() error { return e.Err }

// classifyError maps a provider error onto a GeneratorError kind.
// The Eino model components return plain wrapped errors, so classification
// falls back to matching the provider's status text.
func classifyError(err error) *GeneratorError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "invalid x-api-key"):
		return &GeneratorError{Kind: ErrKindAuth, Err: err}
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return &GeneratorError{Kind: ErrKindRateLimit, Err: err}
	default:
		return &GeneratorError{Kind: ErrKindTransport, Err: err}
	}
}
