package analyzer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object passes through",
			input: `{"overall_score": 72}`,
			want:  `{"overall_score": 72}`,
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "\n\t  {\"a\": 1}  \n",
			want:  `{"a": 1}`,
		},
		{
			name:  "markdown fence with json tag",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "markdown fence without tag",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "unclosed fence takes the rest",
			input: "```json\n{\"a\": 1}",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose before the object",
			input: "Here's the analysis you asked for:\n\n{\"a\": 1}",
			want:  `{"a": 1}`,
		},
		{
			name:  "trailing prose after the object dropped",
			input: `{"a": 1} Hope this helps!`,
			want:  `{"a": 1}`,
		},
		{
			name:  "braces inside string values do not end the object",
			input: `{"text": "use {placeholders} here"} extra`,
			want:  `{"text": "use {placeholders} here"}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"text": "say \"hi\" {ok}"} trailing`,
			want:  `{"text": "say \"hi\" {ok}"}`,
		},
		{
			name:  "trailing comma before closing brace removed",
			input: `{"a": 1,}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "trailing comma before closing bracket removed",
			input: `{"a": [1, 2,],}`,
			want:  `{"a": [1, 2]}`,
		},
		{
			name:  "trailing comma separated by newline removed",
			input: "{\"a\": 1,\n}",
			want:  "{\"a\": 1\n}",
		},
		{
			name:  "comma inside string survives",
			input: `{"a": "one, }"}`,
			want:  `{"a": "one, }"}`,
		},
		{
			name:  "truncated object kept whole",
			input: `{"a": {"b": 1}`,
			want:  `{"a": {"b": 1}`,
		},
		{
			name:    "no object at all",
			input:   "Sorry, I can't produce JSON for that.",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON() expected error, got %q", got)
				}
				var malformed *MalformedResponseError
				if !errors.As(err, &malformed) {
					t.Errorf("ExtractJSON() error = %T, want *MalformedResponseError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ExtractJSON() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Recovery is idempotent: running the pipeline on its own output changes nothing.
func TestExtractJSON_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\": [1, 2,], \"b\": {\"c\": 3,},}\n```",
		"Some text first {\"x\": \"y, }\",} and after",
		`{"nested": {"deep": {"deeper": 1,},},}`,
	}

	for _, input := range inputs {
		first, err := ExtractJSON(input)
		if err != nil {
			t.Fatalf("first pass failed for %q: %v", input, err)
		}
		second, err := ExtractJSON(first)
		if err != nil {
			t.Fatalf("second pass failed for %q: %v", first, err)
		}
		if first != second {
			t.Errorf("not idempotent: first %q, second %q", first, second)
		}
	}
}

func TestExtractJSON_RealWorldResponse(t *testing.T) {
	raw := "Sure! Here is the assessment:\n\n```json\n" +
		`{
  "overall_score": 65,
  "scores": {
    "clarity": {"score": 70, "reasoning": "Mostly clear"},
  },
  "mistakes": [
    {"type": "vague_pronoun", "text": "fix it", "suggestion": "name the file",},
  ],
  "rewritten_prompt": "Fix the null check in auth.go"
}` + "\n```\n\nLet me know if you need anything else."

	cleaned, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON() error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		t.Fatalf("cleaned output is not valid JSON: %v\n%s", err, cleaned)
	}
	if payload["overall_score"].(float64) != 65 {
		t.Errorf("overall_score = %v, want 65", payload["overall_score"])
	}
	if strings.Contains(cleaned, "```") {
		t.Errorf("fence markers survived extraction: %s", cleaned)
	}
}
