package report

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"trafficmix/internal/runner"
	"trafficmix/internal/stats"
)

// TaskRow compares a task's configured share against what was observed.
type TaskRow struct {
	stats.TaskSummary
	Path     string  `json:"path"`
	Weight   int     `json:"weight"`
	Expected float64 `json:"expected_share"`
	Observed float64 `json:"observed_share"`
}

type Summary struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	URL       string  `json:"url"`
	Mix       string  `json:"mix"`
	Users     int     `json:"users"`
	SpawnRate float64 `json:"spawn_rate"`
	Pacing    string  `json:"pacing"`
	Seed      int64   `json:"seed"`

	Elapsed       time.Duration `json:"elapsed"`
	TotalRequests uint64        `json:"total_requests"`
	Success       uint64        `json:"success"`
	Fail          uint64        `json:"fail"`
	Bytes         uint64        `json:"bytes"`
	RPS           float64       `json:"rps"`
	ErrorRate     float64       `json:"error_rate"`
	P50Ms         float64       `json:"p50_ms"`
	P90Ms         float64       `json:"p90_ms"`
	P95Ms         float64       `json:"p95_ms"`
	P99Ms         float64       `json:"p99_ms"`
	MaxMs         float64       `json:"max_ms"`

	Tasks  []TaskRow         `json:"tasks"`
	Errors map[string]uint64 `json:"errors,omitempty"`
}

// Build freezes the run's counters into a Summary, tasks in mix order.
func Build(cfg runner.Config, st *stats.Stats, elapsed time.Duration) Summary {
	s := Summary{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Timestamp:     time.Now(),
		URL:           cfg.URL,
		Mix:           cfg.Mix.Name,
		Users:         cfg.NumUsers,
		SpawnRate:     cfg.SpawnRate,
		Pacing:        cfg.Mix.Pacing.String(),
		Seed:          cfg.Seed,
		Elapsed:       elapsed,
		TotalRequests: atomic.LoadUint64(&st.Requests),
		Success:       atomic.LoadUint64(&st.Success),
		Fail:          atomic.LoadUint64(&st.Fail),
		Bytes:         atomic.LoadUint64(&st.Bytes),
		ErrorRate:     st.ErrorRate(),
		P50Ms:         st.GetP50(),
		P90Ms:         st.GetP90(),
		P95Ms:         st.GetP95(),
		P99Ms:         st.GetP99(),
		MaxMs:         st.Latency.MaxMs(),
		Errors:        st.GetErrorCounts(),
	}
	if elapsed > 0 {
		s.RPS = float64(s.TotalRequests) / elapsed.Seconds()
	}

	for _, t := range cfg.Mix.Tasks {
		row := TaskRow{
			TaskSummary: st.Task(t.Name),
			Path:        t.Path,
			Weight:      t.Weight,
			Expected:    cfg.Mix.Share(t.Name),
		}
		if s.TotalRequests > 0 {
			row.Observed = float64(row.Requests) / float64(s.TotalRequests)
		}
		s.Tasks = append(s.Tasks, row)
	}
	return s
}

// WriteTable renders the per-task breakdown followed by failure signatures.
func WriteTable(w io.Writer, s Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Task", "Path", "Weight", "Expected", "Observed", "Requests", "Fail", "P50 ms", "P90 ms", "P99 ms")
	for _, row := range s.Tasks {
		if err := table.Append(
			row.Name,
			row.Path,
			fmt.Sprintf("%d", row.Weight),
			fmt.Sprintf("%.2f%%", row.Expected*100),
			fmt.Sprintf("%.2f%%", row.Observed*100),
			fmt.Sprintf("%d", row.Requests),
			fmt.Sprintf("%d", row.Fail),
			fmt.Sprintf("%.1f", row.P50Ms),
			fmt.Sprintf("%.1f", row.P90Ms),
			fmt.Sprintf("%.1f", row.P99Ms),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(s.Errors) == 0 {
		return nil
	}

	type sig struct {
		text  string
		count uint64
	}
	sigs := make([]sig, 0, len(s.Errors))
	for text, count := range s.Errors {
		sigs = append(sigs, sig{text, count})
	}
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].count != sigs[j].count {
			return sigs[i].count > sigs[j].count
		}
		return sigs[i].text < sigs[j].text
	})

	errs := tablewriter.NewWriter(w)
	errs.Header("Count", "Failure")
	for _, sg := range sigs {
		if err := errs.Append(fmt.Sprintf("%d", sg.count), sg.text); err != nil {
			return err
		}
	}
	return errs.Render()
}
