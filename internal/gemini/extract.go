package gemini

import (
	"errors"
	"strings"
)

// ErrNoJSON indicates the model response contained no JSON-shaped region.
// The message is surfaced to clients as-is, matching the service's
// Traditional Chinese error strings.
var ErrNoJSON = errors.New("找不到 JSON 區塊")

// ExtractJSON returns the first-'{'-to-last-'}' region of text. The model is
// asked to return JSON only; this tolerates surrounding prose or whitespace
// but makes no further recovery attempt. Returns ErrNoJSON when no such
// region exists. The returned string is not guaranteed to parse; callers
// must unmarshal it.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}
