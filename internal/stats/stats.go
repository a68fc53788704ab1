package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds real-time aggregated metrics for a run
type Stats struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64

	Latency *SafeHistogram

	mu     sync.Mutex
	tasks  map[string]*taskStats
	errors map[string]uint64
}

type taskStats struct {
	requests uint64
	fail     uint64
	latency  *SafeHistogram
}

// TaskSummary is a point-in-time view of one task's counters.
type TaskSummary struct {
	Name     string  `json:"name"`
	Requests uint64  `json:"requests"`
	Fail     uint64  `json:"fail"`
	P50Ms    float64 `json:"p50_ms"`
	P90Ms    float64 `json:"p90_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

func NewStats() *Stats {
	return &Stats{
		Latency: NewSafeHistogram(),
		tasks:   make(map[string]*taskStats),
		errors:  make(map[string]uint64),
	}
}

// Add records one completed iteration. errSig is empty for successes.
func (s *Stats) Add(task string, success bool, bytes int64, latency time.Duration, errSig string) {
	atomic.AddUint64(&s.Requests, 1)
	if success {
		atomic.AddUint64(&s.Success, 1)
	} else {
		atomic.AddUint64(&s.Fail, 1)
	}
	if bytes > 0 {
		atomic.AddUint64(&s.Bytes, uint64(bytes))
	}
	s.Latency.Record(latency)

	s.mu.Lock()
	ts, ok := s.tasks[task]
	if !ok {
		ts = &taskStats{latency: NewSafeHistogram()}
		s.tasks[task] = ts
	}
	ts.requests++
	if !success {
		ts.fail++
		if errSig != "" {
			s.errors[errSig]++
		}
	}
	s.mu.Unlock()

	ts.latency.Record(latency)
}

func (s *Stats) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&s.Requests)
	if reqs == 0 {
		return 0
	}
	fails := atomic.LoadUint64(&s.Fail)
	return (float64(fails) / float64(reqs)) * 100
}

func (s *Stats) GetP50() float64 { return s.Latency.QuantileMs(50) }
func (s *Stats) GetP90() float64 { return s.Latency.QuantileMs(90) }
func (s *Stats) GetP95() float64 { return s.Latency.QuantileMs(95) }
func (s *Stats) GetP99() float64 { return s.Latency.QuantileMs(99) }

// Task returns the counters for one task; unknown tasks report zeros.
func (s *Stats) Task(name string) TaskSummary {
	s.mu.Lock()
	ts, ok := s.tasks[name]
	var reqs, fail uint64
	if ok {
		reqs, fail = ts.requests, ts.fail
	}
	s.mu.Unlock()

	sum := TaskSummary{Name: name, Requests: reqs, Fail: fail}
	if ok {
		sum.P50Ms = ts.latency.QuantileMs(50)
		sum.P90Ms = ts.latency.QuantileMs(90)
		sum.P99Ms = ts.latency.QuantileMs(99)
	}
	return sum
}

// TaskCounts returns the number of executions per task.
func (s *Stats) TaskCounts() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.tasks))
	for name, ts := range s.tasks {
		out[name] = ts.requests
	}
	return out
}

func (s *Stats) GetErrorCounts() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}
