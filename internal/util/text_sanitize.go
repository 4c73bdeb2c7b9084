package util

import "strings"

// SanitizeText cleans extracted paper text before it is stored: PDF text
// extraction tends to leak NUL bytes and other control characters, and
// Postgres text columns reject NUL outright.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	// Drop remaining non-printing controls except common whitespace so
	// paragraph structure survives for the prompt builders.
	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
