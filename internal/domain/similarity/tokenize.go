package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Tokenize case-folds text and splits it into word tokens.
// Anything other than a letter, digit or underscore separates tokens.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	folded := cases.Fold().String(text)
	return strings.FieldsFunc(folded, isSeparator)
}

// Fold returns the case-folded form of s, as used by Tokenize.
func Fold(s string) string {
	return cases.Fold().String(s)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

// terms tokenizes text and drops stopwords, for TF-IDF weighting.
func terms(text string) []string {
	tokens := Tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

var stopwords = toSet(
	"about", "above", "after", "again", "all", "also", "am", "an", "and", "another",
	"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "came", "can", "cannot", "come", "could", "did",
	"do", "does", "doing", "down", "during", "each", "few", "for", "from", "further",
	"get", "got", "had", "has", "have", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is",
	"it", "its", "itself", "just", "like", "make", "many", "me", "might", "more",
	"most", "much", "must", "my", "myself", "never", "no", "nor", "not", "now",
	"of", "off", "on", "once", "only", "or", "other", "our", "ours", "ourselves",
	"out", "over", "own", "said", "same", "see", "she", "should", "since", "so",
	"some", "still", "such", "take", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very", "was", "way", "we", "well", "were", "what",
	"when", "where", "which", "while", "who", "whom", "why", "will", "with", "would",
	"you", "your", "yours", "yourself", "yourselves", "a",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
