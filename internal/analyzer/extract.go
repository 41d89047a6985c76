package analyzer

import (
	"fmt"
	"strings"
)

// MalformedResponseError reports that the generator's output could not be
// recovered into a JSON object. Both the raw response and the cleaned
// candidate are kept for diagnostics.
type MalformedResponseError struct {
	Raw     string
	Cleaned string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed generator response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ExtractJSON recovers a JSON object from raw generator output. Steps, in
// order: trim whitespace, unwrap the first fenced code block, scan forward
// to the first '{', truncate at its depth-matched '}', and drop trailing
// commas before closing delimiters. The result is a best-effort candidate;
// callers still have to parse it.
//
// Structural scanning is done with an explicit string/escape-aware scanner
// rather than regexes so nested objects and quoted braces survive.
func ExtractJSON(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)

	cleaned = unwrapCodeFence(cleaned)

	if !strings.HasPrefix(cleaned, "{") {
		if idx := strings.IndexByte(cleaned, '{'); idx != -1 {
			cleaned = cleaned[idx:]
		}
	}

	if !strings.HasPrefix(cleaned, "{") {
		return "", &MalformedResponseError{
			Raw:     raw,
			Cleaned: cleaned,
			Err:     fmt.Errorf("no JSON object found in response"),
		}
	}

	cleaned = truncateAtMatchingBrace(cleaned)
	cleaned = stripTrailingCommas(cleaned)

	return cleaned, nil
}

// unwrapCodeFence returns the inner content of the first ``` fenced block,
// tolerating an optional language tag (```json). Without a fence it returns
// the input unchanged; without a closing fence it takes everything after the
// opening one.
func unwrapCodeFence(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}

	inner := s[start+3:]
	// Drop a language tag on the opening fence line.
	if nl := strings.IndexByte(inner, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(inner[:nl])
		if firstLine == "" || isFenceTag(firstLine) {
			inner = inner[nl+1:]
		}
	}

	if end := strings.Index(inner, "```"); end != -1 {
		inner = inner[:end]
	}

	return strings.TrimSpace(inner)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// truncateAtMatchingBrace cuts the text at the brace matching its leading
// '{'. Quoted strings and escape sequences are tracked so braces inside
// string values do not affect the depth. If the depth never returns to zero
// (truncated output), the full text is kept.
func truncateAtMatchingBrace(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return s
}

// stripTrailingCommas removes commas that appear immediately before a
// closing '}' or ']' (a common generator artifact). String-aware, and
// idempotent: a second pass finds nothing to remove.
func stripTrailingCommas(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			out.WriteByte(c)
			escaped = false
			continue
		}

		if inString {
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			out.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inString = true
			out.WriteByte(c)
		case ',':
			// Look past whitespace: drop the comma when a closing
			// delimiter follows.
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}
