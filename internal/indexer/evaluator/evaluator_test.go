package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

const epsilon = 1e-9

func buildIndex(t *testing.T, docs []index.Document) *index.Index {
	t.Helper()
	ix, err := index.Build(context.Background(), docs, 1)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return ix
}

func corpus(n int) []index.Document {
	docs := make([]index.Document, n)
	for i := range docs {
		var tokens []string
		for j := 0; j < 3+i%5; j++ {
			tokens = append(tokens, fmt.Sprintf("w%d", (i+j*j)%17))
		}
		docs[i] = index.Document{Name: fmt.Sprintf("doc%d", i), Tokens: tokens}
	}
	return docs
}

func TestEvaluateScenario(t *testing.T) {
	ix := buildIndex(t, []index.Document{
		{Name: "d1", Tokens: []string{"a", "a", "b"}},
		{Name: "d2", Tokens: []string{"b", "c"}},
	})
	eval, err := Evaluate(context.Background(), ix, weighting.Smoothing, 2)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if eval.Formula != "smoothing" {
		t.Errorf("Formula = %q, want smoothing", eval.Formula)
	}
	wantIDF := map[string]float64{
		"a": math.Log10(3),
		"b": math.Log10(1.5),
		"c": math.Log10(3),
	}
	for term, want := range wantIDF {
		if got := eval.IDF[term]; math.Abs(got-want) > epsilon {
			t.Errorf("idf(%s) = %v, want %v", term, got, want)
		}
	}
	if math.Abs(eval.IDF["b"]-0.176) > 0.001 || math.Abs(eval.IDF["a"]-0.477) > 0.001 {
		t.Errorf("idf(a)=%v idf(b)=%v, want about 0.477 and 0.176", eval.IDF["a"], eval.IDF["b"])
	}

	a, b, c := wantIDF["a"], wantIDF["b"], wantIDF["c"]
	wantNorms := map[int]float64{
		0: a*a + (0.5*b)*(0.5*b),
		1: b*b + c*c,
	}
	for docID, want := range wantNorms {
		got, ok := eval.Norm(docID)
		if !ok {
			t.Fatalf("no norm for document %d", docID)
		}
		if math.Abs(got-want) > epsilon {
			t.Errorf("norm(%d) = %v, want %v", docID, got, want)
		}
	}
	if eval.DocumentCount != 2 {
		t.Errorf("DocumentCount = %d, want 2", eval.DocumentCount)
	}
}

func TestEvaluateMatchesDenseWeights(t *testing.T) {
	ix := buildIndex(t, corpus(80))
	dtm, ok := ix.DocumentTerms()
	if !ok {
		t.Fatal("document-term table missing")
	}
	for _, name := range weighting.FormulaNames() {
		t.Run(name, func(t *testing.T) {
			f, err := weighting.FormulaByName(name)
			if err != nil {
				t.Fatal(err)
			}
			eval, err := Evaluate(context.Background(), ix, f, 3)
			if err != nil {
				t.Fatalf("Evaluate() error: %v", err)
			}
			if eval.Formula != name {
				t.Errorf("Formula = %q, want %q", eval.Formula, name)
			}
			dense, err := TermWeights(dtm, f.IDF)
			if err != nil {
				t.Fatalf("TermWeights() error: %v", err)
			}
			for docID, name := range ix.Documents().Names() {
				got, _ := eval.Norm(docID)
				if want := dense.Norm(name); math.Abs(got-want) > 1e-9 {
					t.Errorf("norm(%s) = %v, dense = %v", name, got, want)
				}
			}
		})
	}
}

func TestEvaluateIndependentOfWorkers(t *testing.T) {
	ix := buildIndex(t, corpus(150))
	one, err := Evaluate(context.Background(), ix, weighting.Smoothing, 1)
	if err != nil {
		t.Fatal(err)
	}
	many, err := Evaluate(context.Background(), ix, weighting.Smoothing, 7)
	if err != nil {
		t.Fatal(err)
	}
	for term, v := range one.IDF {
		if many.IDF[term] != v {
			t.Errorf("idf(%s) differs: %v vs %v", term, v, many.IDF[term])
		}
	}
	if len(one.Norms) != len(many.Norms) {
		t.Fatalf("norm table sizes differ: %d vs %d", len(one.Norms), len(many.Norms))
	}
	for doc, v := range one.Norms {
		if math.Abs(many.Norms[doc]-v) > 1e-12 {
			t.Errorf("norm(%d) differs: %v vs %v", doc, v, many.Norms[doc])
		}
	}
}

func TestEvaluateEmptyIndex(t *testing.T) {
	ix := buildIndex(t, nil)
	eval, err := Evaluate(context.Background(), ix, weighting.Smoothing, 4)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if len(eval.IDF) != 0 || len(eval.Norms) != 0 {
		t.Errorf("empty index produced %d idf and %d norm entries", len(eval.IDF), len(eval.Norms))
	}
}

func TestEvaluateSkipsDocumentsWithoutPostings(t *testing.T) {
	ix := buildIndex(t, []index.Document{
		{Name: "blank"},
		{Name: "words", Tokens: []string{"x", "y"}},
	})
	eval, err := Evaluate(context.Background(), ix, weighting.Smoothing, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := eval.Norm(0); ok {
		t.Error("blank document has a norm entry")
	}
	if _, ok := eval.Norm(1); !ok {
		t.Error("document with postings has no norm entry")
	}
}

func TestEvaluateIDFErrors(t *testing.T) {
	parts := buildIndex(t, corpus(5)).Parts()
	ix, err := index.FromParts(parts)
	if err != nil {
		t.Fatal(err)
	}
	failing := func(df, n int) (float64, error) {
		return 0, fmt.Errorf("df %d: %w", df, apperrors.ErrUndefined)
	}
	if _, err := Evaluate(context.Background(), ix, weighting.Formula{Name: "failing", IDF: failing}, 2); !errors.Is(err, apperrors.ErrUndefined) {
		t.Errorf("Evaluate() error = %v, want ErrUndefined", err)
	}
	if _, err := Evaluate(context.Background(), ix, weighting.Formula{Name: "none"}, 2); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Evaluate(nil) error = %v, want ErrInvalidInput", err)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, buildIndex(t, corpus(20)), weighting.Smoothing, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Evaluate() error = %v, want context.Canceled", err)
	}
}
