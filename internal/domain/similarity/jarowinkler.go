package similarity

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// StringSimilarity returns the Jaro-Winkler similarity of a and b in [0, 1].
// Comparison is case-insensitive. Two empty strings are identical.
func StringSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	s := Finite(strutil.Similarity(a, b, jw))
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
