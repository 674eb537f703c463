package text

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// controlCharsRegex matches ASCII control characters (including DEL)
	// other than tab and newline.
	controlCharsRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	// multipleNewlinesRegex matches runs of 3+ newlines, collapsed to a
	// paragraph break.
	multipleNewlinesRegex = regexp.MustCompile(`\n{3,}`)

	// unicodeReplacer strips invisible format characters and maps the
	// various Unicode spaces to plain ones. Ideographic space shows up
	// constantly in LINE and WeChat exports.
	unicodeReplacer = strings.NewReplacer(
		"\u2060", "", // word joiner
		"\uFEFF", "", // byte order mark
		"\u00AD", "", // soft hyphen
		"\u200E", "", // left-to-right mark
		"\u200F", "", // right-to-left mark
		"\u2028", "\n", // line separator
		"\u2029", "\n\n", // paragraph separator
		"\u200B", " ", // zero width space
		"\u3000", " ", // ideographic space
		"\u00A0", " ", // non-breaking space
		"\u202F", " ", // narrow no-break space
	)
)

// ErrEmptyChatLog reports that an uploaded chat log had no usable content.
var ErrEmptyChatLog = errors.New("chat log is empty")

// Sanitize normalizes an uploaded chat log before analysis: line endings
// become LF, invisible Unicode characters are removed, control characters
// and runs of whitespace are collapsed, and excessive blank lines are
// reduced to a single paragraph break. Speaker labels and timestamps are
// left untouched since the analysis relies on them.
func Sanitize(input string) (string, error) {
	s := strings.ReplaceAll(input, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = unicodeReplacer.Replace(s)
	s = controlCharsRegex.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = collapseSpaces(lines[i])
	}

	s = strings.Join(lines, "\n")
	s = multipleNewlinesRegex.ReplaceAllString(s, "\n\n")

	result := strings.TrimSpace(s)
	if result == "" {
		return "", ErrEmptyChatLog
	}
	return result, nil
}

// collapseSpaces squeezes consecutive whitespace within a line into a
// single space and trims the ends.
func collapseSpaces(line string) string {
	var b strings.Builder
	space := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(b.String())
}
