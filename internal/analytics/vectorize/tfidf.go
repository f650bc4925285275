package vectorize

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyCorpus signals a fit over a corpus with no usable tokens.
var ErrEmptyCorpus = errors.New("empty corpus")

// TFIDF is a term-frequency / inverse-document-frequency vectorizer with an
// L2-normalized output space. The vocabulary is capped at MaxFeatures terms,
// kept by document frequency with a lexical tie-break so fitting is
// deterministic for a fixed input ordering.
type TFIDF struct {
	maxFeatures int
	vocab       map[string]int
	terms       []string
	idf         []float64
}

// NewTFIDF creates an unfitted vectorizer. maxFeatures <= 0 means unlimited.
func NewTFIDF(maxFeatures int) *TFIDF {
	return &TFIDF{maxFeatures: maxFeatures}
}

// Fit builds the vocabulary and smoothed IDF values from the corpus.
func (v *TFIDF) Fit(docs []string) error {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return ErrEmptyCorpus
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	// Highest document frequency first, lexical order on ties.
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// Dimension returns the fitted vocabulary size.
func (v *TFIDF) Dimension() int { return len(v.terms) }

// Terms returns the fitted vocabulary in index order.
func (v *TFIDF) Terms() []string { return v.terms }

// Transform vectorizes one document into the fitted space. Documents with no
// in-vocabulary tokens yield a zero vector.
func (v *TFIDF) Transform(doc string) []float64 {
	vec := make([]float64, len(v.terms))
	tf := make(map[int]int)
	total := 0
	for _, tok := range Tokenize(doc) {
		if idx, ok := v.vocab[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.idf[idx]
	}
	normalize(vec)
	return vec
}

// TransformAll vectorizes a batch of documents.
func (v *TFIDF) TransformAll(docs []string) [][]float64 {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

func normalize(vec []float64) {
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
