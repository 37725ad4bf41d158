// Package similarity provides the lexical primitives used for relevance scoring:
// word tokenization, per-call TF-IDF corpora, cosine similarity over term
// vectors and a bounded Jaro-Winkler string similarity.
//
// Nothing in this package performs I/O or keeps state between calls. A Corpus
// is built once from the documents passed to NewCorpus and is read-only after
// that, so term statistics never leak from one batch into another.
package similarity
