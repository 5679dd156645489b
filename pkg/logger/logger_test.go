package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LoggingConfig{Level: "warn", Format: "JSON"}, "searcher")
	l.Info("dropped")
	l.Warn("kept", "terms", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want only the warn record: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "kept" || rec["service"] != "searcher" || rec["terms"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, config.LoggingConfig{Level: "debug", Format: "text"}, "").Debug("snapshot loaded")
	if got := buf.String(); !strings.Contains(got, "msg=\"snapshot loaded\"") || strings.Contains(got, "service=") {
		t.Errorf("text output = %q", got)
	}
}

func TestComponentAndRequestScope(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, config.LoggingConfig{Format: "json"}, "indexer"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	Component("index-builder", "workers", 4).Info("built")
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID() = %q", got)
	}
	FromContext(ctx).Info("searched")
	FromContext(context.Background()).Info("plain")

	dec := json.NewDecoder(&buf)
	var built, searched, plain map[string]any
	for _, rec := range []*map[string]any{&built, &searched, &plain} {
		if err := dec.Decode(rec); err != nil {
			t.Fatal(err)
		}
	}
	if built["component"] != "index-builder" || built["workers"] != float64(4) || built["service"] != "indexer" {
		t.Errorf("component record = %v", built)
	}
	if searched["request_id"] != "req-1" {
		t.Errorf("request record = %v", searched)
	}
	if _, ok := plain["request_id"]; ok {
		t.Errorf("plain record carries a request id: %v", plain)
	}
}
