package http

import (
	"strings"
	"unicode/utf8"
)

// maxParamLength bounds free-text filter values.
const maxParamLength = 200

// sanitizeInput removes control characters, trims whitespace and caps length.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > maxParamLength {
		s = string([]rune(s)[:maxParamLength])
	}
	return s
}
