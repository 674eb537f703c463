package text_test

import (
	"errors"
	"testing"

	"github.com/memora-app/memora/internal/text"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Windows line endings",
			input:    "小明: 嗨\r\n使用者: 哈囉\r\n",
			expected: "小明: 嗨\n使用者: 哈囉",
		},
		{
			name:     "Collapses runs of spaces within a line",
			input:    "小明:    嗨\t\t你好",
			expected: "小明: 嗨 你好",
		},
		{
			name:     "Excessive blank lines become one paragraph break",
			input:    "a\n\n\n\n\nb",
			expected: "a\n\nb",
		},
		{
			name:     "Strips invisible characters and normalizes CJK spaces",
			input:    "\uFEFF小明\u3000嗨\u200E",
			expected: "小明 嗨",
		},
		{
			name:     "Removes control characters",
			input:    "hi\x00\x07there",
			expected: "hi there",
		},
		{
			name:     "Speaker labels and timestamps survive",
			input:    "2025/01/01 12:00 小明 早安",
			expected: "2025/01/01 12:00 小明 早安",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := text.Sanitize(tc.input)
			if err != nil {
				t.Fatalf("Sanitize(%q): %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSanitizeEmpty(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   \n\n\t  ", "\uFEFF\u200B"} {
		if _, err := text.Sanitize(input); !errors.Is(err, text.ErrEmptyChatLog) {
			t.Errorf("Sanitize(%q) error = %v, want ErrEmptyChatLog", input, err)
		}
	}
}
