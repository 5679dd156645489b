package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

func scenarioDocs() []Document {
	return []Document{
		{Name: "d1", Tokens: []string{"a", "a", "b"}},
		{Name: "d2", Tokens: []string{"b", "c"}},
	}
}

func mustBuild(t *testing.T, docs []Document) *Index {
	t.Helper()
	ix, err := Build(context.Background(), docs, 2)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return ix
}

// syntheticDocs produces a deterministic collection with overlapping
// vocabularies of varying document frequency.
func syntheticDocs(n int) []Document {
	docs := make([]Document, n)
	for i := 0; i < n; i++ {
		var tokens []string
		for j := 0; j <= i%7; j++ {
			for k := 0; k <= j%3; k++ {
				tokens = append(tokens, fmt.Sprintf("term%d", (i*j+k)%23))
			}
		}
		docs[i] = Document{Name: fmt.Sprintf("doc-%03d", i), Tokens: tokens}
	}
	return docs
}

func TestBuildScenario(t *testing.T) {
	ix := mustBuild(t, scenarioDocs())

	want := Parts{
		Terms: []TermEntry{
			{ID: 0, Term: "a", Head: 0},
			{ID: 1, Term: "b", Head: 2},
			{ID: 2, Term: "c", Head: 3},
		},
		Documents: []string{"d1", "d2"},
		Postings: []Posting{
			{TermID: 0, DocID: 0, Weight: 1, Prev: NoPosting},
			{TermID: 1, DocID: 0, Weight: 0.5, Prev: NoPosting},
			{TermID: 1, DocID: 1, Weight: 1, Prev: 1},
			{TermID: 2, DocID: 1, Weight: 1, Prev: NoPosting},
		},
	}
	if diff := cmp.Diff(want, ix.Parts()); diff != "" {
		t.Errorf("Parts() mismatch (-want +got):\n%s", diff)
	}

	df, err := ix.documentFrequency("b")
	if err != nil {
		t.Fatalf("documentFrequency(b) error: %v", err)
	}
	if df != 2 {
		t.Errorf("documentFrequency(b) = %d, want 2", df)
	}
	if df, _ := ix.documentFrequency("zzz"); df != 0 {
		t.Errorf("documentFrequency(zzz) = %d, want 0", df)
	}
}

func TestChainLengthEqualsDocumentFrequency(t *testing.T) {
	docs := syntheticDocs(120)
	ix := mustBuild(t, docs)

	want := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range doc.Tokens {
			if !seen[tok] {
				seen[tok] = true
				want[tok]++
			}
		}
	}
	if ix.Lexicon().Len() != len(want) {
		t.Fatalf("lexicon has %d terms, want %d", ix.Lexicon().Len(), len(want))
	}
	for term, wantDF := range want {
		entry, ok := ix.Lexicon().Lookup(term)
		if !ok {
			t.Fatalf("term %q missing from lexicon", term)
		}
		docsSeen := make(map[int]bool)
		df, err := ix.WalkTerm(entry.ID, func(p Posting) error {
			if docsSeen[p.DocID] {
				return fmt.Errorf("document %d visited twice", p.DocID)
			}
			docsSeen[p.DocID] = true
			return nil
		})
		if err != nil {
			t.Fatalf("WalkTerm(%q) error: %v", term, err)
		}
		if df != wantDF {
			t.Errorf("chain of %q has %d postings, want %d", term, df, wantDF)
		}
	}
}

func TestChainVisitsReverseInsertionOrder(t *testing.T) {
	ix := mustBuild(t, syntheticDocs(40))
	for _, entry := range ix.Lexicon().Entries() {
		last := len(ix.Postings())
		_, err := ix.Postings().Walk(entry.Head, func(ref int, _ Posting) error {
			if ref >= last {
				return fmt.Errorf("posting %d visited after %d", ref, last)
			}
			last = ref
			return nil
		})
		if err != nil {
			t.Fatalf("term %q: %v", entry.Term, err)
		}
	}
}

func TestMostFrequentTermWeighsOne(t *testing.T) {
	docs := syntheticDocs(60)
	ix := mustBuild(t, docs)
	maxWeight := make(map[int]float64)
	for _, p := range ix.Postings() {
		if p.Weight > maxWeight[p.DocID] {
			maxWeight[p.DocID] = p.Weight
		}
		if p.Weight <= 0 || p.Weight > 1 {
			t.Errorf("posting weight %v outside (0,1]", p.Weight)
		}
	}
	for id, w := range maxWeight {
		if w != 1.0 {
			t.Errorf("document %s max weight = %v, want 1", ix.Documents().Name(id), w)
		}
	}
}

func TestTermIDsFollowFirstSeenOrder(t *testing.T) {
	ix := mustBuild(t, []Document{
		{Name: "x", Tokens: []string{"q", "p", "q"}},
		{Name: "y", Tokens: []string{"r", "p"}},
	})
	var got []string
	for _, e := range ix.Lexicon().Entries() {
		got = append(got, e.Term)
	}
	if diff := cmp.Diff([]string{"q", "p", "r"}, got); diff != "" {
		t.Errorf("term order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDeterministicAcrossWorkers(t *testing.T) {
	docs := syntheticDocs(200)
	serial, err := Build(context.Background(), docs, 1)
	if err != nil {
		t.Fatalf("Build(workers=1) error: %v", err)
	}
	parallel, err := Build(context.Background(), docs, 8)
	if err != nil {
		t.Fatalf("Build(workers=8) error: %v", err)
	}
	if diff := cmp.Diff(serial.Parts(), parallel.Parts()); diff != "" {
		t.Errorf("parallel build differs (-serial +parallel):\n%s", diff)
	}
}

func TestEmptyDocumentRegistersWithoutPostings(t *testing.T) {
	ix := mustBuild(t, []Document{
		{Name: "empty"},
		{Name: "full", Tokens: []string{"a"}},
	})
	stats := ix.Stats()
	if stats.Documents != 2 || stats.Postings != 1 || stats.Terms != 1 {
		t.Errorf("Stats() = %+v, want 2 documents, 1 term, 1 posting", stats)
	}
	if id, ok := ix.Documents().ID("empty"); !ok || id != 0 {
		t.Errorf("ID(empty) = %d, %v; want 0, true", id, ok)
	}
}

func TestBuilderRejectsDuplicateWithoutSideEffects(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(Document{Name: "d1", Tokens: []string{"a", "b"}}); err != nil {
		t.Fatalf("Add(d1) error: %v", err)
	}
	err := b.Add(Document{Name: "d1", Tokens: []string{"c"}})
	if !errors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("duplicate Add error = %v, want ErrDocumentExists", err)
	}
	if err := b.Add(Document{Name: "", Tokens: []string{"c"}}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("unnamed Add error = %v, want ErrInvalidInput", err)
	}
	if err := b.Add(Document{Name: "d3", Tokens: []string{"c", ""}}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("empty token Add error = %v, want ErrInvalidInput", err)
	}
	if err := b.Add(Document{Name: "d2", Tokens: []string{"b"}}); err != nil {
		t.Fatalf("Add(d2) error: %v", err)
	}
	ix := b.Index()
	if diff := cmp.Diff([]string{"d1", "d2"}, ix.Documents().Names()); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ix.Lexicon().Lookup("c"); ok {
		t.Error("term from rejected document leaked into lexicon")
	}
	if err := b.Add(Document{Name: "late", Tokens: []string{"z"}}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Add after Index() error = %v, want ErrInvalidInput", err)
	}
}

func TestBuildDuplicateName(t *testing.T) {
	docs := append(scenarioDocs(), Document{Name: "d1", Tokens: []string{"x"}})
	_, err := Build(context.Background(), docs, 4)
	if !errors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("Build() error = %v, want ErrDocumentExists", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, syntheticDocs(10), 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("Build() error = %v, want context.Canceled", err)
	}
}

func TestFromPartsRoundTrip(t *testing.T) {
	ix := mustBuild(t, syntheticDocs(50))
	restored, err := FromParts(ix.Parts())
	if err != nil {
		t.Fatalf("FromParts() error: %v", err)
	}
	if diff := cmp.Diff(ix.Parts(), restored.Parts()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if _, ok := restored.DocumentTerms(); ok {
		t.Error("restored index should not carry a document-term table")
	}
}

func TestFromPartsDetectsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Parts)
	}{
		{"forward link", func(p *Parts) { p.Postings[1].Prev = 3 }},
		{"head out of range", func(p *Parts) { p.Terms[0].Head = 99 }},
		{"empty chain", func(p *Parts) { p.Terms[2].Head = NoPosting }},
		{"foreign posting", func(p *Parts) { p.Postings[2].TermID = 0 }},
		{"unknown document", func(p *Parts) { p.Postings[3].DocID = 7 }},
		{"orphan posting", func(p *Parts) { p.Terms[1].Head = 1 }},
		{"duplicate document", func(p *Parts) { p.Documents[1] = "d1" }},
		{"sparse term ids", func(p *Parts) { p.Terms[1].ID = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := mustBuild(t, scenarioDocs()).Parts()
			tt.mutate(&parts)
			if _, err := FromParts(parts); !errors.Is(err, apperrors.ErrCorruptIndex) {
				t.Errorf("FromParts() error = %v, want ErrCorruptIndex", err)
			}
		})
	}
}

func TestDocumentTermsAndInversion(t *testing.T) {
	ix := mustBuild(t, scenarioDocs())
	dtm, ok := ix.DocumentTerms()
	if !ok {
		t.Fatal("DocumentTerms() not available after build")
	}
	wantDTM := map[string]map[string]int{
		"d1": {"a": 2, "b": 1},
		"d2": {"b": 1, "c": 1},
	}
	if diff := cmp.Diff(wantDTM, dtm); diff != "" {
		t.Errorf("DocumentTerms() mismatch (-want +got):\n%s", diff)
	}
	wantTDM := map[string]map[string]int{
		"a": {"d1": 2},
		"b": {"d1": 1, "d2": 1},
		"c": {"d2": 1},
	}
	if diff := cmp.Diff(wantTDM, InvertDocumentTerms(dtm)); diff != "" {
		t.Errorf("InvertDocumentTerms() mismatch (-want +got):\n%s", diff)
	}
}
