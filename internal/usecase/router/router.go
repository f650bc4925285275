// Package router classifies a natural-language query into an intent tag with
// extracted parameters. Classification is a pure function of the normalized
// query text and the static pattern and vocabulary tables, so it is fully
// unit-testable offline.
package router

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/laborlens/laborlens/internal/analytics/taskpattern"
	"github.com/laborlens/laborlens/internal/domain"
	"github.com/laborlens/laborlens/internal/domain/intent"
)

// Vocabulary is the known entity names of the active generation, used to
// resolve industry and occupation filters in query text.
type Vocabulary struct {
	Industries  []string
	Occupations []string
}

// Router classifies queries against static tables plus one generation's
// vocabulary.
type Router struct {
	industries  []vocabEntry
	occupations []vocabEntry
}

type vocabEntry struct {
	original   string
	normalized string
}

// New creates a router for the given vocabulary. Longer names are tried
// first so "health care support" wins over "health care".
func New(vocab Vocabulary) *Router {
	return &Router{
		industries:  buildVocab(vocab.Industries),
		occupations: buildVocab(vocab.Occupations),
	}
}

// Classify derives the intent of a query. Ambiguity, both pattern kinds
// matching or neither matching, resolves to hybrid rather than a silent
// guess.
func (rt *Router) Classify(queryText string) intent.Intent {
	text := domain.NormalizeTitle(queryText)

	params := intent.Params{
		Handler:     detectHandler(text),
		Industry:    matchVocab(text, rt.industries),
		Occupation:  matchVocab(text, rt.occupations),
		GroupBy:     detectGroupBy(text),
		WantsExport: containsAny(text, exportMarkers),
	}

	var compFamilies, semFamilies int
	for _, f := range families {
		if !containsAny(text, f.phrases) {
			continue
		}
		switch f.tag {
		case intent.Computational:
			compFamilies++
			if params.Verb == intent.VerbNone && f.verb != intent.VerbNone {
				params.Verb = f.verb
			}
		case intent.Semantic:
			semFamilies++
		}
	}

	var tag intent.Tag
	switch {
	case compFamilies > 0 && semFamilies == 0:
		tag = intent.Computational
	case semFamilies > 0 && compFamilies == 0:
		tag = intent.Semantic
	default:
		tag = intent.Hybrid
	}

	// A handler maps to a fixed computed-metric template; generic keyword,
	// verb, and limit extraction does not apply.
	if params.Handler == intent.HandlerNone {
		params.Limit = extractLimit(text)
		if params.Limit > 0 {
			params.Verb = intent.VerbTopN
		}
		params.Keyword = extractKeyword(text, params)
	} else {
		params.Verb = intent.VerbNone
	}

	out, err := intent.New(tag, params)
	if err != nil {
		// Static tables cannot produce invalid params; fall back to a bare
		// hybrid intent if they ever do.
		out, _ = intent.New(intent.Hybrid, intent.Params{})
	}
	return out
}

// detectHandler intercepts domain phrasings ahead of generic classification.
// Negated phrasings never trigger a handler.
func detectHandler(text string) intent.Handler {
	if containsAny(text, negations) {
		return intent.HandlerNone
	}
	if strings.Contains(text, "digital document") ||
		(taskpattern.HasActionVerb(text) && taskpattern.HasObjectKeyword(text)) {
		return intent.HandlerDigitalDocument
	}
	if containsAny(text, agentMarkers) && containsAny(text, savingsMarkers) {
		return intent.HandlerAgentSavings
	}
	return intent.HandlerNone
}

func detectGroupBy(text string) string {
	switch {
	case strings.Contains(text, "by occupation"), strings.Contains(text, "per occupation"):
		return "occupation"
	case strings.Contains(text, "by industry"), strings.Contains(text, "per industry"):
		return "industry"
	}
	return ""
}

func extractLimit(text string) int {
	for _, re := range topNPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		return n
	}
	return 0
}

// fillerWords are stripped before keyword extraction, along with every
// matched pattern phrase.
var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "for": {}, "to": {},
	"me": {}, "my": {}, "are": {}, "is": {}, "do": {}, "does": {}, "did": {},
	"what": {}, "which": {}, "who": {}, "give": {}, "show": {}, "list": {},
	"jobs": {}, "job": {}, "occupations": {}, "with": {}, "that": {},
	"require": {}, "requires": {}, "there": {}, "how": {}, "many": {},
}

// extractKeyword returns the residual content words of the query after
// pattern phrases, vocabulary matches, and filler are removed.
func extractKeyword(text string, params intent.Params) string {
	for _, re := range keywordStrippers {
		text = re.ReplaceAllString(text, " ")
	}
	for _, re := range topNPatterns {
		text = re.ReplaceAllString(text, " ")
	}
	text = stripName(text, params.Industry)
	text = stripName(text, params.Occupation)

	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, "?.,!;:\"'")
		if w == "" {
			continue
		}
		if _, skip := fillerWords[w]; skip {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// stripName removes a matched vocabulary name on word boundaries, so an
// inflected form the vocabulary did not match ("data analysts") stays in the
// keyword residue.
func stripName(text, name string) string {
	if name == "" {
		return text
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(domain.NormalizeTitle(name)) + `\b`)
	return re.ReplaceAllString(text, " ")
}

func buildVocab(names []string) []vocabEntry {
	entries := make([]vocabEntry, 0, len(names))
	for _, n := range names {
		norm := domain.NormalizeTitle(n)
		if norm == "" {
			continue
		}
		entries = append(entries, vocabEntry{original: n, normalized: norm})
	}
	// Longest first, then lexical for determinism.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && longerOrBefore(entries[j], entries[j-1]); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}

func longerOrBefore(a, b vocabEntry) bool {
	if len(a.normalized) != len(b.normalized) {
		return len(a.normalized) > len(b.normalized)
	}
	return a.normalized < b.normalized
}

func matchVocab(text string, entries []vocabEntry) string {
	for _, e := range entries {
		if strings.Contains(text, e.normalized) {
			return e.original
		}
	}
	return ""
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
