package router

import (
	"testing"

	"github.com/laborlens/laborlens/internal/domain/intent"
)

func testRouter() *Router {
	return New(Vocabulary{
		Industries:  []string{"Health Care", "Health Care Support", "Manufacturing"},
		Occupations: []string{"Registered Nurse", "Welder", "Data Analyst"},
	})
}

func TestClassify_DigitalDocumentCount(t *testing.T) {
	got := testRouter().Classify("How many jobs require creating digital documents?")

	if got.Tag() != intent.Computational {
		t.Fatalf("tag = %s, want computational", got.Tag())
	}
	if got.Handler() != intent.HandlerDigitalDocument {
		t.Fatalf("handler = %q, want digital-document", got.Handler())
	}
	p := got.Params()
	if p.Limit != 0 {
		t.Fatalf("limit = %d, want unset", p.Limit)
	}
	if p.Verb != intent.VerbNone {
		t.Fatalf("verb = %q, handler templates carry no verb", p.Verb)
	}
	if !got.NeedsComputational() || got.NeedsSemantic() {
		t.Fatal("computational intent must skip vector search")
	}
}

func TestClassify_SemanticSimilarity(t *testing.T) {
	got := testRouter().Classify("What jobs are similar to data analysts?")

	if got.Tag() != intent.Semantic {
		t.Fatalf("tag = %s, want semantic", got.Tag())
	}
	if got.Handler() != intent.HandlerNone {
		t.Fatalf("handler = %q, want none", got.Handler())
	}
	if kw := got.Params().Keyword; kw != "data analysts" {
		t.Fatalf("keyword = %q, want %q", kw, "data analysts")
	}
	if !got.NeedsSemantic() || got.NeedsComputational() {
		t.Fatal("semantic intent must skip aggregation")
	}
}

func TestClassify_NegationBlocksHandler(t *testing.T) {
	got := testRouter().Classify("How many jobs do not involve creating documents?")

	if got.Handler() != intent.HandlerNone {
		t.Fatalf("handler = %q, negated phrasing must not trigger it", got.Handler())
	}
	if got.Tag() != intent.Computational {
		t.Fatalf("tag = %s, want computational", got.Tag())
	}
}

func TestClassify_TopNLimit(t *testing.T) {
	got := testRouter().Classify("Show the top 5 industries by employment")

	p := got.Params()
	if p.Limit != 5 {
		t.Fatalf("limit = %d, want 5", p.Limit)
	}
	if p.Verb != intent.VerbTopN {
		t.Fatalf("verb = %q, want top-n", p.Verb)
	}
	if got.Tag() != intent.Computational {
		t.Fatalf("tag = %s, want computational", got.Tag())
	}
}

func TestClassify_IndustryVocabularyLongestMatch(t *testing.T) {
	got := testRouter().Classify("Total employment in Health Care Support")

	p := got.Params()
	if p.Industry != "Health Care Support" {
		t.Fatalf("industry = %q, the longer vocabulary entry must win", p.Industry)
	}
	if p.Verb != intent.VerbSum {
		t.Fatalf("verb = %q, want sum", p.Verb)
	}
}

func TestClassify_ExportRequest(t *testing.T) {
	got := testRouter().Classify("Export employment by industry for digital document jobs as csv")

	p := got.Params()
	if !p.WantsExport {
		t.Fatal("csv phrasing must set the export flag")
	}
	if p.GroupBy != "industry" {
		t.Fatalf("groupBy = %q, want industry", p.GroupBy)
	}
	if got.Handler() != intent.HandlerDigitalDocument {
		t.Fatalf("handler = %q, want digital-document", got.Handler())
	}
	if got.Tag() != intent.Computational {
		t.Fatalf("tag = %s, want computational", got.Tag())
	}
}

func TestClassify_AgentSavingsHandler(t *testing.T) {
	got := testRouter().Classify("How much time could AI agents save across industries?")

	if got.Handler() != intent.HandlerAgentSavings {
		t.Fatalf("handler = %q, want ai-agent-savings", got.Handler())
	}
}

func TestClassify_AmbiguityResolvesToHybrid(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"both pattern kinds", "Compare the average wage of jobs similar to welders"},
		{"neither pattern kind", "wages welders"},
		{"definition plus aggregate", "What is the average wage for registered nurses?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testRouter().Classify(tt.query)
			if got.Tag() != intent.Hybrid {
				t.Fatalf("tag = %s, want hybrid", got.Tag())
			}
			if !got.NeedsSemantic() || !got.NeedsComputational() {
				t.Fatal("hybrid intent must run both retrieval paths")
			}
		})
	}
}

func TestClassify_KeywordKeepsInteriorSubstrings(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		keyword string
	}{
		{"laptop keeps its top", "Show me jobs related to laptops", "laptops"},
		{"likely keeps its like", "Describe occupations likely automated by software", "likely automated by software"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testRouter().Classify(tt.query)
			if kw := got.Params().Keyword; kw != tt.keyword {
				t.Fatalf("keyword = %q, want %q", kw, tt.keyword)
			}
		})
	}
}

func TestClassify_OccupationFilter(t *testing.T) {
	got := testRouter().Classify("What is the average wage for registered nurses?")

	p := got.Params()
	if p.Occupation != "Registered Nurse" {
		t.Fatalf("occupation = %q, want Registered Nurse", p.Occupation)
	}
	if p.Verb != intent.VerbMean {
		t.Fatalf("verb = %q, want mean", p.Verb)
	}
}
