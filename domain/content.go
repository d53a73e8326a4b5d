// server/domain/content.go
package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// PlainText projects rich content onto the text used for search and counts.
// A JSON string is passed through, null or empty content yields "", and any
// other JSON value is reduced to its compact encoding.
func PlainText(content json.RawMessage) string {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// Counts returns the word and character counts of plain text. Blank text has
// zero words.
func Counts(plain string) (words, chars int) {
	return len(strings.Fields(plain)), utf8.RuneCountInString(plain)
}

// StringContent encodes s as note content.
func StringContent(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
