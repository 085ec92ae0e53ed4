package ingredients

import "strings"

// Delimiters is the fixed set of characters that separate ingredients on a
// label.
const Delimiters = ",;()[]"

var delimiterReplacer = strings.NewReplacer(
	",", "\n",
	";", "\n",
	"(", "\n",
	")", "\n",
	"[", "\n",
	"]", "\n",
)

// Segment splits label text into ingredient tokens. Each delimiter becomes a
// line break, every line is trimmed and empty lines are dropped. The text is
// expected to be lower-cased already.
func Segment(text string) []string {
	lines := strings.Split(delimiterReplacer.Replace(text), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// JoinRecognized concatenates OCR text regions with single spaces, applies
// FoldText and lower-cases the result, producing the input Segment expects.
// Folding comes first because NFKC can yield upper-case letters ("ℌ" -> "H").
func JoinRecognized(lines []string) string {
	return strings.ToLower(FoldText(strings.Join(lines, " ")))
}
