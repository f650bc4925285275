// Package intent holds the classification result for one incoming query.
// Intents are created fresh per query and never persisted.
package intent

import "fmt"

// Tag is the classified purpose of a query.
type Tag string

const (
	Semantic      Tag = "semantic"
	Computational Tag = "computational"
	Hybrid        Tag = "hybrid"
)

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	switch t {
	case Semantic, Computational, Hybrid:
		return true
	}
	return false
}

// Handler identifies a special-case domain handler that maps a query to a
// fixed computed-metric template instead of generic aggregation.
type Handler string

const (
	HandlerNone            Handler = ""
	HandlerDigitalDocument Handler = "digital-document"
	HandlerAgentSavings    Handler = "ai-agent-savings"
)

// Verb is an extracted aggregation verb.
type Verb string

const (
	VerbNone  Verb = ""
	VerbCount Verb = "count"
	VerbSum   Verb = "sum"
	VerbMean  Verb = "mean"
	VerbTopN  Verb = "top-n"
)

// Params carries the structured parameters extracted from the query text.
type Params struct {
	Keyword     string  // target entity/keyword
	Verb        Verb    // aggregation verb
	Limit       int     // top-N limit, 0 = unset
	Industry    string  // industry filter from the known vocabulary
	Occupation  string  // occupation filter
	GroupBy     string  // "industry" or "occupation"
	Handler     Handler // special-case handler
	WantsExport bool    // tabular export requested
}

// Intent is the immutable classification result for one query.
type Intent struct {
	tag    Tag
	params Params
}

// New validates and creates an Intent.
func New(tag Tag, params Params) (Intent, error) {
	if !tag.Valid() {
		return Intent{}, fmt.Errorf("unknown intent tag %q", tag)
	}
	if params.Limit < 0 {
		return Intent{}, fmt.Errorf("negative limit %d", params.Limit)
	}
	return Intent{tag: tag, params: params}, nil
}

// Tag returns the intent tag.
func (i Intent) Tag() Tag { return i.tag }

// Params returns the extracted parameters.
func (i Intent) Params() Params { return i.params }

// Handler returns the special-case handler id, HandlerNone when generic.
func (i Intent) Handler() Handler { return i.params.Handler }

// NeedsSemantic reports whether the intent requires vector search.
func (i Intent) NeedsSemantic() bool { return i.tag == Semantic || i.tag == Hybrid }

// NeedsComputational reports whether the intent requires aggregation lookup.
func (i Intent) NeedsComputational() bool { return i.tag == Computational || i.tag == Hybrid }
