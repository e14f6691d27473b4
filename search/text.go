package search

import (
	"strings"
	"unicode"

	"github.com/poiesic/cortexsync/core"
)

var stopWords = makeSet(
	"the", "a", "an", "be", "is", "are", "was", "to", "of", "and", "or", "in",
	"into", "that", "have", "it", "for", "not", "on", "with", "as", "you", "do",
	"at", "this", "but", "by", "from",
)

func makeSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// significantWords lowercases text, splits it on anything that is not a
// letter or digit and drops stop words. Duplicates are kept.
func significantWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			words = append(words, f)
		}
	}
	return words
}

// verbatimMatch reports whether every query word occurs in the document text
// or its title. An empty query matches nothing.
func verbatimMatch(doc *core.IndexedDocument, queryWords []string) bool {
	if len(queryWords) == 0 {
		return false
	}
	words := significantWords(doc.Text)
	if title := doc.Metadata["title"]; title != "" {
		words = append(words, significantWords(title)...)
	}
	present := makeSet(words...)
	for _, w := range queryWords {
		if _, ok := present[w]; !ok {
			return false
		}
	}
	return true
}
