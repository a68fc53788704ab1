package runner

import (
	"strconv"
	"time"

	"trafficmix/internal/scenario"
)

type Config struct {
	URL        string
	Mix        scenario.Mix
	NumUsers   int
	SpawnRate  float64 // users started per second; <= 0 starts all at once
	Duration   time.Duration
	TimeoutSec int
	Seed       int64 // 0 picks a time-based seed, recorded back here
	Headers    map[string]string
	OutPrefix  string
}

// Outcome is the record of one iteration's request.
type Outcome struct {
	TimeStamp time.Time     `json:"timestamp"`
	Task      string        `json:"task"`
	Path      string        `json:"path"`
	Latency   time.Duration `json:"latency"`
	Status    int           `json:"status"`
	Success   bool          `json:"success"`
	Bytes     int64         `json:"bytes"`
	UserID    string        `json:"user_id"`
	Err       error         `json:"-"`
}

// ErrorSignature groups failures for the summary.
func (o Outcome) ErrorSignature() string {
	if o.Success {
		return ""
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return "HTTP " + strconv.Itoa(o.Status)
}

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64
	Inflight int64
	Users    int64

	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64

	Tasks map[string]uint64
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot
