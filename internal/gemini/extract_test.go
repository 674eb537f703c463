package gemini_test

import (
	"errors"
	"testing"

	"github.com/memora-app/memora/internal/gemini"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Bare JSON object",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
		},
		{
			name:     "JSON with surrounding prose",
			input:    `here is it: {"a":1} thanks`,
			expected: `{"a":1}`,
		},
		{
			name:     "JSON with leading and trailing whitespace",
			input:    "\n  {\"nickname\": \"小明\"}  \n",
			expected: `{"nickname": "小明"}`,
		},
		{
			name:     "Nested braces span first to last",
			input:    `{"outer": {"inner": 1}}`,
			expected: `{"outer": {"inner": 1}}`,
		},
		{
			name:     "Markdown-fenced JSON",
			input:    "```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:    "No braces at all",
			input:   "no json here",
			wantErr: true,
		},
		{
			name:    "Empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "Closing brace before opening brace",
			input:   "} nothing {",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := gemini.ExtractJSON(tc.input)
			if tc.wantErr {
				if !errors.Is(err, gemini.ErrNoJSON) {
					t.Fatalf("ExtractJSON(%q) error = %v, want ErrNoJSON", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
