package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"trafficmix/internal/scenario"
	"trafficmix/internal/stats"
)

type Runner struct {
	Cfg       Config
	Stats     *stats.Stats
	Requester Requester
	Results   []Outcome
	mu        sync.Mutex

	inflight int64
	users    int64

	log *zap.Logger

	// Event Channel
	Updates StatsUpdateChan
}

// NewRunner validates cfg and wires the HTTP requester. A nil updates
// channel gets a small internal buffer nobody reads.
func NewRunner(cfg Config, updates StatsUpdateChan, log *zap.Logger) (*Runner, error) {
	if err := cfg.Mix.Validate(); err != nil {
		return nil, err
	}
	if cfg.NumUsers <= 0 {
		return nil, fmt.Errorf("users must be positive, got %d", cfg.NumUsers)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if updates == nil {
		updates = make(StatsUpdateChan, 10)
	}

	headers, err := NewHeaderTemplates(cfg.Headers)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Cfg:       cfg,
		Stats:     stats.NewStats(),
		Requester: NewHTTPRequester(cfg.URL, time.Duration(cfg.TimeoutSec)*time.Second, headers),
		Updates:   updates,
		log:       log,
	}, nil
}

// StartTickLoop starts a goroutine that pushes stats updates
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

func (r *Runner) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Requests: atomic.LoadUint64(&r.Stats.Requests),
		Success:  atomic.LoadUint64(&r.Stats.Success),
		Fail:     atomic.LoadUint64(&r.Stats.Fail),
		Bytes:    atomic.LoadUint64(&r.Stats.Bytes),
		Inflight: atomic.LoadInt64(&r.inflight),
		Users:    atomic.LoadInt64(&r.users),
		P50Ms:    r.Stats.GetP50(),
		P90Ms:    r.Stats.GetP90(),
		P99Ms:    r.Stats.GetP99(),
		MaxMs:    r.Stats.Latency.MaxMs(),
		Tasks:    r.Stats.TaskCounts(),
	}
}

func (r *Runner) sendUpdate() {
	// Non-blocking send
	select {
	case r.Updates <- r.Snapshot():
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Run spawns the users and blocks until the configured duration elapses or
// ctx is cancelled. Reaching the duration stops new iterations and lets
// in-flight requests finish; cancelling ctx aborts them.
func (r *Runner) Run(ctx context.Context) error {
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	r.StartTickLoop(tickCtx, 200*time.Millisecond)

	var (
		stop   context.Context
		cancel context.CancelFunc
	)
	if r.Cfg.Duration > 0 {
		stop, cancel = context.WithTimeout(ctx, r.Cfg.Duration)
	} else {
		stop, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	limit := rate.Inf
	if r.Cfg.SpawnRate > 0 {
		limit = rate.Limit(r.Cfg.SpawnRate)
	}
	spawner := rate.NewLimiter(limit, 1)

	r.log.Info("run started",
		zap.String("url", r.Cfg.URL),
		zap.String("mix", r.Cfg.Mix.Name),
		zap.Int("users", r.Cfg.NumUsers),
		zap.Float64("spawn_rate", r.Cfg.SpawnRate),
		zap.Duration("duration", r.Cfg.Duration),
		zap.Int64("seed", r.Cfg.Seed),
	)

	var g errgroup.Group
	for i := 0; i < r.Cfg.NumUsers; i++ {
		if err := spawner.Wait(stop); err != nil {
			r.log.Debug("spawning stopped", zap.Int("spawned", i), zap.Error(err))
			break
		}
		u, err := r.newUser(ctx, i)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		atomic.AddInt64(&r.users, 1)
		g.Go(func() error {
			defer atomic.AddInt64(&r.users, -1)
			u.Loop(stop)
			return nil
		})
	}
	_ = g.Wait()

	r.sendUpdate()
	r.log.Info("run finished",
		zap.Uint64("requests", atomic.LoadUint64(&r.Stats.Requests)),
		zap.Uint64("fail", atomic.LoadUint64(&r.Stats.Fail)),
	)
	return nil
}

func (r *Runner) newUser(ctx context.Context, i int) (*User, error) {
	rnd := scenario.NewRand(r.Cfg.Seed, uint64(i))
	u, err := NewUser(uuid.New().String(), r.Cfg.Mix, rnd, r.counting(r.Requester))
	if err != nil {
		return nil, err
	}
	u.reqCtx = ctx
	u.OnOutcome = r.record
	return u, nil
}

func (r *Runner) record(out Outcome) {
	r.Stats.Add(out.Task, out.Success, out.Bytes, out.Latency, out.ErrorSignature())

	r.mu.Lock()
	r.Results = append(r.Results, out)
	r.mu.Unlock()
}

// ResultsCopy returns the outcomes recorded so far.
func (r *Runner) ResultsCopy() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.Results))
	copy(out, r.Results)
	return out
}

func (r *Runner) GetInflight() int64 {
	return atomic.LoadInt64(&r.inflight)
}

type requesterFunc func(ctx context.Context, userID string, task scenario.Task) Outcome

func (f requesterFunc) Do(ctx context.Context, userID string, task scenario.Task) Outcome {
	return f(ctx, userID, task)
}

func (r *Runner) counting(next Requester) Requester {
	return requesterFunc(func(ctx context.Context, userID string, task scenario.Task) Outcome {
		atomic.AddInt64(&r.inflight, 1)
		defer atomic.AddInt64(&r.inflight, -1)
		return next.Do(ctx, userID, task)
	})
}
