package router

import (
	"regexp"
	"strings"

	"github.com/laborlens/laborlens/internal/domain/intent"
)

// family is one pattern family. Match strength counts distinct families, not
// raw hits, so a repeated keyword cannot dominate classification.
type family struct {
	name    string
	tag     intent.Tag
	phrases []string
	verb    intent.Verb
}

// families is evaluated in order. Earlier entries win verb extraction when
// several computational families match.
var families = []family{
	{name: "count", tag: intent.Computational,
		phrases: []string{"how many", "count", "number of"}, verb: intent.VerbCount},
	{name: "sum", tag: intent.Computational,
		phrases: []string{"total", "sum", "overall"}, verb: intent.VerbSum},
	{name: "mean", tag: intent.Computational,
		phrases: []string{"average", "mean", "median"}, verb: intent.VerbMean},
	{name: "rank", tag: intent.Computational,
		phrases: []string{"top", "rank", "highest", "largest", "most", "least", "lowest"},
		verb:    intent.VerbTopN},
	{name: "share", tag: intent.Computational,
		phrases: []string{"percentage", "proportion", "share of"}, verb: intent.VerbCount},
	{name: "compare", tag: intent.Computational,
		phrases: []string{"compare", "comparison", "versus", " vs "}},
	{name: "groupby", tag: intent.Computational,
		phrases: []string{"group by", "grouped by", "by industry", "by occupation", "per industry", "per occupation"}},

	{name: "similar", tag: intent.Semantic,
		phrases: []string{"similar", "like ", "related", "resemble"}},
	{name: "explain", tag: intent.Semantic,
		phrases: []string{"explain", "describe", "what kind of"}},
	{name: "define", tag: intent.Semantic,
		phrases: []string{"what is", "what are", "tell me about"}},
	{name: "contrast", tag: intent.Semantic,
		phrases: []string{"difference between", "differ from", "how does"}},
}

// topNPatterns extract a numeric limit. First submatch is the number.
var topNPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btop\s+(\d+)\b`),
	regexp.MustCompile(`\btop-(\d+)\b`),
	regexp.MustCompile(`\b(\d+)\s+most\b`),
	regexp.MustCompile(`\b(\d+)\s+highest\b`),
	regexp.MustCompile(`\b(\d+)\s+largest\b`),
	regexp.MustCompile(`\bfirst\s+(\d+)\b`),
}

// negations guard special-handler detection: a negated phrasing must not
// trigger the handler's computed-metric template.
var negations = []string{
	"don't", "do not", "doesn't", "does not", "didn't", "did not",
	"not ", "without", "exclude", "excluding", "other than",
}

// exportMarkers flag a request for a tabular export.
var exportMarkers = []string{"csv", "export", "spreadsheet", "download", "as a table"}

// agentSavingsMarkers drive the ai-agent-savings handler: an agent mention
// plus a savings dimension.
var (
	agentMarkers   = []string{"ai agent", "ai agents", "automation", "automating", "automate"}
	savingsMarkers = []string{"savings", "save", "saved", "time", "cost", "hours", "value"}
)

// keywordStrippers remove matched pattern phrases during keyword extraction.
// Anchored on word boundaries so interior substrings survive: "laptop" keeps
// its "top", "likely" keeps its "like".
var keywordStrippers = buildKeywordStrippers()

func buildKeywordStrippers() []*regexp.Regexp {
	seen := make(map[string]struct{})
	var out []*regexp.Regexp
	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(p)+`\b`))
	}
	for _, f := range families {
		for _, p := range f.phrases {
			add(p)
		}
	}
	for _, m := range exportMarkers {
		add(m)
	}
	return out
}
