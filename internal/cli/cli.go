package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"trafficmix/internal/report"
	"trafficmix/internal/runner"
	"trafficmix/internal/storage"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

// Start runs a headless load test, printing a progress line until the run
// ends, then the summary. The finished run is saved to store if non-nil.
func Start(ctx context.Context, cfg runner.Config, store *storage.Store, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	r, err := runner.NewRunner(cfg, nil, log)
	if err != nil {
		return err
	}
	printHeader(os.Stdout, r.Cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	startTime := time.Now()
	go func() { done <- r.Run(ctx) }()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			elapsed := time.Since(startTime)
			fmt.Println()
			if err != nil {
				return err
			}
			return finish(r, elapsed, store, log)
		case <-ticker.C:
			printProgress(r, time.Since(startTime), cfg.Duration)
		}
	}
}

func finish(r *runner.Runner, elapsed time.Duration, store *storage.Store, log *zap.Logger) error {
	summary := report.Build(r.Cfg, r.Stats, elapsed)
	printSummary(os.Stdout, summary)
	if err := report.WriteTable(os.Stdout, summary); err != nil {
		return err
	}

	if store != nil {
		if err := store.Save(summary); err != nil {
			log.Warn("failed to save run history", zap.Error(err))
		} else {
			fmt.Printf("\nRun saved as %s\n", summary.ID)
		}
	}

	if prefix := r.Cfg.OutPrefix; prefix != "" {
		fmt.Printf("\n💾 Generating reports with prefix: %s\n", prefix)
		if err := report.ExportAll(prefix, r.ResultsCopy(), summary); err != nil {
			return err
		}
		green.Printf("✅ Reports saved to %s.csv and %s_summary.json\n", prefix, prefix)
	}
	return nil
}

func printHeader(w io.Writer, cfg runner.Config) {
	bold.Fprintf(w, "\n🚀 STARTING TRAFFICMIX RUN\n")
	fmt.Fprintf(w, "======================================================================\n")
	fmt.Fprintf(w, "Target URL : %s\n", cfg.URL)
	fmt.Fprintf(w, "Mix        : %s (%s)\n", cfg.Mix.Name, cfg.Mix.Description)
	fmt.Fprintf(w, "Users      : %d (spawn %.1f/s)\n", cfg.NumUsers, cfg.SpawnRate)
	fmt.Fprintf(w, "Wait       : %s\n", cfg.Mix.Pacing)
	if cfg.Duration > 0 {
		fmt.Fprintf(w, "Duration   : %s\n", cfg.Duration)
	} else {
		fmt.Fprintf(w, "Duration   : until interrupted\n")
	}
	fmt.Fprintf(w, "Timeout    : %ds\n", cfg.TimeoutSec)
	fmt.Fprintf(w, "Seed       : %d\n", cfg.Seed)
	fmt.Fprintf(w, "======================================================================\n\n")
}

func printProgress(r *runner.Runner, elapsed, total time.Duration) {
	snap := r.Snapshot()
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(snap.Requests) / elapsed.Seconds()
	}

	pct := 0.0
	if total > 0 {
		pct = elapsed.Seconds() / total.Seconds()
	}

	fmt.Printf("\r%s %3.0f%% | %s | Users: %3d | Inf: %3d | RPS: %.1f | OK: %d | Err: %d",
		progressBar(pct, 20), min(pct, 1)*100,
		elapsed.Round(time.Second),
		snap.Users,
		snap.Inflight,
		rps,
		snap.Success,
		snap.Fail,
	)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(w io.Writer, s report.Summary) {
	bold.Fprintf(w, "\n📊 RUN RESULTS\n")
	fmt.Fprintf(w, "======================================================================\n")
	fmt.Fprintf(w, "Total Duration : %s\n", s.Elapsed.Round(time.Second))
	fmt.Fprintf(w, "Requests Sent  : %d\n", s.TotalRequests)
	green.Fprintf(w, "Success        : %d\n", s.Success)
	red.Fprintf(w, "Failures       : %d (%.2f%%)\n", s.Fail, s.ErrorRate)
	fmt.Fprintf(w, "Actual RPS     : %.2f\n", s.RPS)
	fmt.Fprintf(w, "\n⏱️  RESPONSE TIMES (ms)\n")
	fmt.Fprintf(w, "   P50 : %.2f\n", s.P50Ms)
	fmt.Fprintf(w, "   P90 : %.2f\n", s.P90Ms)
	fmt.Fprintf(w, "   P95 : %.2f\n", s.P95Ms)
	fmt.Fprintf(w, "   P99 : %.2f\n", s.P99Ms)
	fmt.Fprintf(w, "   Max : %.2f\n", s.MaxMs)
	fmt.Fprintf(w, "======================================================================\n\n")
}
