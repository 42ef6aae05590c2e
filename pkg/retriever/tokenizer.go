package retriever

import (
	"regexp"
	"strings"
)

// tokenPattern keeps alphanumeric runs and Hangul syllables; everything else
// is a separator.
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9가-힣]+`)

// Tokenize lowercases the text and splits it into index terms. Idempotent:
// re-tokenizing joined output yields the same terms.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
