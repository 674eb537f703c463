package gemini_test

import (
	"strings"
	"testing"

	"github.com/memora-app/memora/internal/gemini"
	"github.com/memora-app/memora/internal/store"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildAnalysisPrompt("嗨\n早安", "小明", "小明[LINE].txt")

	for _, want := range []string{
		"小明[LINE].txt",
		"「小明」",
		"只屬於 小明",
		"嗨\n早安",
		"personality_prompt",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("analysis prompt missing %q", want)
		}
	}
}

func TestBuildRoleplayPrompt(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildRoleplayPrompt("溫柔、講話很快", "使用者：嗨\n小明：哈囉")

	if !strings.Contains(prompt, "溫柔、講話很快") {
		t.Error("roleplay prompt must embed the personality prompt verbatim")
	}
	if !strings.Contains(prompt, "使用者：嗨\n小明：哈囉") {
		t.Error("roleplay prompt must embed the rendered transcript")
	}
	if !strings.Contains(prompt, "請接著回覆使用者最新一句話") {
		t.Error("roleplay prompt must end with the continuation instruction")
	}
}

func TestRenderTranscript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		turns    []store.Turn
		expected string
	}{
		{
			name:     "Empty history",
			turns:    nil,
			expected: "",
		},
		{
			name: "Alternating turns",
			turns: []store.Turn{
				{Role: store.RoleUser, Text: "你還記得我嗎", TS: 1},
				{Role: store.RoleBot, Text: "當然記得", TS: 2},
				{Role: store.RoleUser, Text: "太好了", TS: 3},
			},
			expected: "使用者：你還記得我嗎\n小明：當然記得\n使用者：太好了",
		},
		{
			name: "Unknown role treated as the character",
			turns: []store.Turn{
				{Role: "assistant", Text: "hi", TS: 1},
			},
			expected: "小明：hi",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := gemini.RenderTranscript(tc.turns, "小明")
			if got != tc.expected {
				t.Errorf("RenderTranscript() = %q, want %q", got, tc.expected)
			}
		})
	}
}
