package similarity

import (
	"math"
)

// Vector maps a term to its TF-IDF weight.
type Vector map[string]float64

// Corpus holds TF-IDF statistics for a fixed set of documents.
type Corpus struct {
	freqs   []map[string]int // raw term counts per document
	docFreq map[string]int   // number of documents containing each term
	vectors []Vector
}

// NewCorpus builds a corpus over docs. Document i keeps index i.
//
// Weights follow tf * idf with idf = 1 + ln(N / (1 + df)), where tf is the raw
// count of the term in the document and df the number of documents that
// contain it. Stopwords are not weighted.
func NewCorpus(docs []string) *Corpus {
	c := &Corpus{
		freqs:   make([]map[string]int, len(docs)),
		docFreq: make(map[string]int),
		vectors: make([]Vector, len(docs)),
	}
	for i, d := range docs {
		counts := make(map[string]int)
		for _, t := range terms(d) {
			counts[t]++
		}
		c.freqs[i] = counts
		for t := range counts {
			c.docFreq[t]++
		}
	}
	for i, counts := range c.freqs {
		v := make(Vector, len(counts))
		for t, n := range counts {
			v[t] = float64(n) * c.IDF(t)
		}
		c.vectors[i] = v
	}
	return c
}

// Len returns the number of documents in the corpus.
func (c *Corpus) Len() int { return len(c.vectors) }

// IDF returns the inverse document frequency of term within the corpus.
func (c *Corpus) IDF(term string) float64 {
	n := float64(len(c.freqs))
	return 1 + math.Log(n/float64(1+c.docFreq[term]))
}

// Vector returns a copy of the TF-IDF vector of document i.
// Out of range indexes yield an empty vector.
func (c *Corpus) Vector(i int) Vector {
	if i < 0 || i >= len(c.vectors) {
		return Vector{}
	}
	out := make(Vector, len(c.vectors[i]))
	for t, w := range c.vectors[i] {
		out[t] = w
	}
	return out
}

// Similarity returns the cosine similarity between documents i and j.
func (c *Corpus) Similarity(i, j int) float64 {
	if i < 0 || i >= len(c.vectors) || j < 0 || j >= len(c.vectors) {
		return 0
	}
	return Cosine(c.vectors[i], c.vectors[j])
}

// Cosine returns the cosine similarity of two term vectors.
// It returns 0 when either vector has zero magnitude.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for t, wa := range a {
		magA += wa * wa
		if wb, ok := b[t]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		magB += wb * wb
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return Finite(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

// Finite returns x, or 0 when x is NaN or infinite.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
