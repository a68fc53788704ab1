package scenario

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"
)

// NewRand returns a deterministic random stream. Users of the same run share
// the seed and differ by stream.
func NewRand(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// Picker draws tasks with probability weight/total, independently on every
// call. It is not safe for concurrent use; each user owns one.
type Picker struct {
	tasks []Task
	cum   []int
	total int
	rnd   *rand.Rand
}

func NewPicker(tasks []Task, rnd *rand.Rand) (*Picker, error) {
	p := &Picker{
		tasks: tasks,
		cum:   make([]int, len(tasks)),
		rnd:   rnd,
	}
	for i, t := range tasks {
		if t.Weight < 0 {
			return nil, fmt.Errorf("%w: task %q has negative weight %d", ErrInvalidMix, t.Name, t.Weight)
		}
		p.total += t.Weight
		p.cum[i] = p.total
	}
	if p.total == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidMix)
	}
	return p, nil
}

// Index returns the position of the next task in the table.
func (p *Picker) Index() int {
	// smallest i with cum[i] > n; zero-weight entries share their
	// predecessor's bound and are never the smallest
	n := p.rnd.IntN(p.total)
	return sort.SearchInts(p.cum, n+1)
}

func (p *Picker) Pick() Task {
	return p.tasks[p.Index()]
}

// Next draws a wait uniformly from [Min, Max] at millisecond resolution.
func (p Pacing) Next(rnd *rand.Rand) time.Duration {
	span := int64((p.Max - p.Min) / time.Millisecond)
	if span <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(rnd.Int64N(span+1))*time.Millisecond
}
