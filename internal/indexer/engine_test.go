package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

var collection = []corpus.Document{
	{Name: "fruit", Body: "apple banana apple"},
	{Name: "mixed", Body: "banana cherry"},
	{Name: "stop", Body: "the and of"},
}

func newTestEngine(t *testing.T) (*Engine, *metrics.Metrics) {
	t.Helper()
	cfg := config.IndexerConfig{
		DataDir:      t.TempDir(),
		SnapshotName: "index.vss",
		IDF:          "smoothing",
		Workers:      2,
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	e, err := NewEngine(cfg, m)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return e, m
}

func TestEngineNotReady(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, _, err := e.Current(); !errors.Is(err, apperrors.ErrIndexNotReady) {
		t.Errorf("Current() error = %v, want ErrIndexNotReady", err)
	}
	if _, err := e.Save(); !errors.Is(err, apperrors.ErrIndexNotReady) {
		t.Errorf("Save() error = %v, want ErrIndexNotReady", err)
	}
	if got := e.Stats(); got.Ready {
		t.Errorf("Stats() = %+v, want not ready", got)
	}
}

func TestEngineBuild(t *testing.T) {
	e, m := newTestEngine(t)
	if err := e.Build(context.Background(), collection); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	ix, eval, err := e.Current()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"fruit", "mixed", "stop"}, ix.Documents().Names()); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
	// "stop" holds only stop words and contributes no postings.
	if _, ok := eval.Norm(2); ok {
		t.Error("stop-word document has a norm")
	}
	stats := e.Stats()
	if !stats.Ready || stats.Terms != 3 || stats.Postings != 4 || stats.Formula != "smoothing" {
		t.Errorf("Stats() = %+v", stats)
	}
	if got := testutil.ToFloat64(m.VocabularySize); got != 3 {
		t.Errorf("vocabulary gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("successful builds = %v, want 1", got)
	}
}

func TestEngineFailedBuildKeepsIndex(t *testing.T) {
	e, m := newTestEngine(t)
	if err := e.Build(context.Background(), collection); err != nil {
		t.Fatal(err)
	}
	dup := []corpus.Document{{Name: "a", Body: "kiwi"}, {Name: "a", Body: "lime"}}
	if err := e.Build(context.Background(), dup); !errors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("Build() error = %v, want ErrDocumentExists", err)
	}
	if got := e.Stats().Documents; got != 3 {
		t.Errorf("documents after failed build = %d, want 3", got)
	}
	if got := testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed builds = %v, want 1", got)
	}
}

func TestEngineSaveLoad(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Build(context.Background(), collection); err != nil {
		t.Fatal(err)
	}
	path, err := e.Save()
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	other, err := NewEngine(e.cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Load(""); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want, wantEval, _ := e.Current()
	got, gotEval, err := other.Current()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want.Parts(), got.Parts()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantEval, gotEval); diff != "" {
		t.Errorf("evaluation mismatch (-want +got):\n%s", diff)
	}
	replica, err := NewEngine(e.cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := replica.Load(path); err != nil {
		t.Fatal(err)
	}
	if g := other.Stats().Generation; g == 0 || g != replica.Stats().Generation {
		t.Errorf("generations of one snapshot = %d and %d, want equal and non-zero", g, replica.Stats().Generation)
	}
	if err := other.Load(path + ".missing"); err == nil {
		t.Error("Load() of a missing snapshot succeeded")
	}
	if !other.Stats().Ready {
		t.Error("failed Load() dropped the loaded index")
	}
}

func TestEngineReevaluate(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Build(context.Background(), collection); err != nil {
		t.Fatal(err)
	}
	ix, before, _ := e.Current()
	postings := ix.Parts().Postings
	generation := e.Stats().Generation

	if err := e.Reevaluate(context.Background(), "Raw"); err != nil {
		t.Fatalf("Reevaluate() error: %v", err)
	}
	ix2, after, _ := e.Current()
	if ix2 != ix {
		t.Error("Reevaluate() replaced the index")
	}
	if diff := cmp.Diff(postings, ix2.Parts().Postings); diff != "" {
		t.Errorf("posting store changed (-want +got):\n%s", diff)
	}
	if after.Formula != "raw" {
		t.Errorf("Formula = %q, want raw", after.Formula)
	}
	if e.Stats().Generation == generation {
		t.Error("Reevaluate() kept the index generation")
	}
	// banana is in 2 of 3 documents: smoothing log10(4/2) vs raw log10(3/2).
	if after.IDF["banana"] >= before.IDF["banana"] {
		t.Errorf("raw idf %v not below smoothing idf %v", after.IDF["banana"], before.IDF["banana"])
	}
	if err := e.Reevaluate(context.Background(), "bm25"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Reevaluate(bm25) error = %v, want ErrInvalidInput", err)
	}
}

func TestNewEngineRejectsUnknownFormula(t *testing.T) {
	_, err := NewEngine(config.IndexerConfig{DataDir: t.TempDir(), IDF: "bm25"}, nil)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("NewEngine() error = %v, want ErrInvalidInput", err)
	}
}
