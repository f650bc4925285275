// Package taskpattern detects task descriptions that describe digital
// document work: an action verb applied to a document-like object. The same
// vocabulary drives the aggregation builder (which tasks count toward the
// digital-document metric) and the query router's special-handler detection.
package taskpattern

import "strings"

var actionVerbs = []string{
	"create", "develop", "design", "prepare", "write", "produce",
	"generate", "build", "draft", "compose", "formulate",
}

var objectKeywords = []string{
	"document", "report", "spreadsheet", "file", "presentation",
	"drawing", "plan", "specification", "program", "model",
	"diagram", "chart", "graph", "blueprint", "schematic",
}

// MatchesDocumentWork reports whether the text pairs an action verb with a
// document-like object. Matching covers common verb inflections
// (creates/creating/created).
func MatchesDocumentWork(text string) bool {
	lower := strings.ToLower(text)
	return hasVerb(lower) && hasObject(lower)
}

// HasActionVerb reports whether the text contains any action verb.
func HasActionVerb(text string) bool { return hasVerb(strings.ToLower(text)) }

// HasObjectKeyword reports whether the text contains any object keyword.
func HasObjectKeyword(text string) bool { return hasObject(strings.ToLower(text)) }

func hasVerb(lower string) bool {
	for _, verb := range actionVerbs {
		stem := verb
		if strings.HasSuffix(verb, "e") {
			stem = verb[:len(verb)-1]
		}
		if strings.Contains(lower, verb) ||
			strings.Contains(lower, verb+"s") ||
			strings.Contains(lower, stem+"ing") ||
			strings.Contains(lower, stem+"ed") {
			return true
		}
	}
	return false
}

func hasObject(lower string) bool {
	for _, kw := range objectKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
