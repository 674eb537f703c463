package text_test

import (
	"testing"

	"github.com/memora-app/memora/internal/text"
)

func TestNameFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{
			name:     "LINE export with marker",
			filename: "小明[LINE].txt",
			expected: "小明",
		},
		{
			name:     "Plain filename with extension",
			filename: "alice.json",
			expected: "alice",
		},
		{
			name:     "No extension",
			filename: "bob",
			expected: "bob",
		},
		{
			name:     "Marker before extension with spaces",
			filename: " 阿姨 [LINE].txt",
			expected: "阿姨",
		},
		{
			name:     "Multiple dots keeps all but last segment",
			filename: "chat.backup.txt",
			expected: "chat.backup",
		},
		{
			name:     "Empty filename",
			filename: "",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := text.NameFromFilename(tc.filename)
			if got != tc.expected {
				t.Errorf("NameFromFilename(%q) = %q, want %q", tc.filename, got, tc.expected)
			}
		})
	}
}
