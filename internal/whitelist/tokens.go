package whitelist

import (
	"regexp"
	"strings"
)

// MaxTokens caps the match tokens kept per rule.
const MaxTokens = 20

var tokenSepRe = regexp.MustCompile(`[^a-z0-9_.-]+`)

var stopWords = map[string]bool{
	"about": true, "after": true, "alert": true, "alerts": true, "also": true,
	"because": true, "been": true, "before": true, "being": true, "both": true,
	"confirmed": true, "could": true, "does": true, "each": true, "from": true,
	"have": true, "here": true, "into": true, "just": true, "legitimate": true,
	"more": true, "most": true, "only": true, "other": true, "over": true,
	"please": true, "same": true, "should": true, "since": true, "some": true,
	"such": true, "than": true, "that": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "very": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "whitelist": true,
	"whitelisted": true, "will": true, "with": true, "would": true, "your": true,
}

// Tokens derives the match tokens of a note: lower-cased words of the
// characters [a-z0-9_.-], longer than three characters and not stop words,
// first MaxTokens in text order. Repeats are kept.
func Tokens(raw string) []string {
	words := strings.Fields(tokenSepRe.ReplaceAllString(strings.ToLower(raw), " "))
	tokens := []string{}
	for _, w := range words {
		if len(w) <= 3 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
		if len(tokens) == MaxTokens {
			break
		}
	}
	return tokens
}
