// Package text provides small text-derivation helpers for uploaded chat logs.
package text

import (
	"path/filepath"
	"strings"
)

// lineExportMarker is the literal tag LINE puts in exported chat-log
// filenames.
const lineExportMarker = "[LINE]"

// NameFromFilename derives a person's display name from an uploaded chat-log
// filename: the extension is stripped, the literal [LINE] marker removed,
// and surrounding whitespace trimmed.
//
//	"小明[LINE].txt" -> "小明"
//	"alice.json"     -> "alice"
func NameFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.ReplaceAll(name, lineExportMarker, "")
	return strings.TrimSpace(name)
}
