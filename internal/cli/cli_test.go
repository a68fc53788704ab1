package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trafficmix/internal/report"
	"trafficmix/internal/runner"
	"trafficmix/internal/scenario"
	"trafficmix/internal/storage"
	"trafficmix/internal/target"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[----]"},
		{0.5, "[██--]"},
		{1, "[████]"},
		{3, "[████]"},
		{-1, "[----]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.pct, 4); got != tt.want {
			t.Errorf("progressBar(%.1f) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestPrintHeaderAndSummary(t *testing.T) {
	var buf bytes.Buffer
	printHeader(&buf, runner.Config{URL: "http://t", Mix: scenario.Happy(), NumUsers: 5, Seed: 3})
	printSummary(&buf, report.Summary{TotalRequests: 9, Success: 8, Fail: 1, P99Ms: 12.5})

	out := buf.String()
	for _, want := range []string{"http://t", "happy", "until interrupted", "Seed       : 3", "Requests Sent  : 9", "P99 : 12.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStartSavesAndExports(t *testing.T) {
	srv := httptest.NewServer(target.New(target.ServerConfig{Instant: true}, nil).Handler())
	defer srv.Close()

	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer store.Close()

	mix := scenario.Standard()
	mix.Pacing = scenario.Between(time.Millisecond, 5*time.Millisecond)
	cfg := runner.Config{
		URL:        srv.URL,
		Mix:        mix,
		NumUsers:   2,
		Duration:   300 * time.Millisecond,
		TimeoutSec: 5,
		Seed:       1,
		OutPrefix:  filepath.Join(dir, "out"),
	}
	if err := Start(context.Background(), cfg, store, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}

	items, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Mix != "standard" || items[0].TotalRequests == 0 {
		t.Errorf("unexpected history %+v", items)
	}
	for _, f := range []string{"out.csv", "out_summary.json"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("expected %s to exist: %v", f, err)
		}
	}
}
