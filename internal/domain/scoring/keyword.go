package scoring

import (
	"strings"

	"github.com/okian/scribe/internal/domain/similarity"
)

// KeywordScore returns the fraction of keywords that appear as tokens of text.
//
// Matching is case-insensitive and per token, so a multi-word keyword such as
// "single sign on" never matches. An empty keyword list scores 0.
func KeywordScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	tokens := make(map[string]struct{})
	for _, t := range similarity.Tokenize(text) {
		tokens[t] = struct{}{}
	}
	matched := 0
	for _, k := range keywords {
		if _, ok := tokens[similarity.Fold(strings.TrimSpace(k))]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}
