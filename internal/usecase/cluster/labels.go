package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/laborlens/laborlens/internal/analytics/vectorize"
	"github.com/laborlens/laborlens/internal/domain"
)

const (
	labelTerms        = 3
	labelMemberSample = 100
)

// deriveLabels names each cluster after the highest-weight terms of its mean
// TF-IDF vector, computed in the full vocabulary space so labels stay
// readable even when clustering ran on a reduced projection. Equal weights
// tie-break by lexical order.
func deriveLabels(
	category domain.Category, k int,
	distinct []string, clusterOfText map[string]int,
	tfidf *vectorize.TFIDF,
) []string {
	members := make([][]string, k)
	for _, text := range distinct {
		c := clusterOfText[text]
		if len(members[c]) < labelMemberSample {
			members[c] = append(members[c], text)
		}
	}

	terms := tfidf.Terms()
	labels := make([]string, k)
	for c := 0; c < k; c++ {
		if len(members[c]) == 0 {
			labels[c] = fmt.Sprintf("%s %d", category, c)
			continue
		}
		mean := make([]float64, tfidf.Dimension())
		for _, text := range members[c] {
			for j, x := range tfidf.Transform(text) {
				mean[j] += x
			}
		}
		top := topTerms(mean, terms, labelTerms)
		labels[c] = fmt.Sprintf("%s: %s", category, strings.Join(top, ", "))
	}
	return labels
}

// topTerms returns the n highest-weight terms, lexical order on equal
// weight.
func topTerms(weights []float64, terms []string, n int) []string {
	idx := make([]int, len(terms))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if weights[idx[a]] != weights[idx[b]] {
			return weights[idx[a]] > weights[idx[b]]
		}
		return terms[idx[a]] < terms[idx[b]]
	})
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		if weights[i] == 0 {
			break
		}
		out = append(out, terms[i])
	}
	if len(out) == 0 {
		out = append(out, "misc")
	}
	return out
}
