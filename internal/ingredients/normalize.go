package ingredients

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases and trims every token. Tokens that become empty are
// kept in place; callers that split free text filter them themselves.
func Normalize(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = normalizeToken(t)
	}
	return out
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FoldText applies NFKC compatibility folding so ligatures and full-width
// punctuation that Tesseract emits ("ﬂour", "salt，sugar") compare and split
// like their ASCII forms.
func FoldText(s string) string {
	return norm.NFKC.String(s)
}
