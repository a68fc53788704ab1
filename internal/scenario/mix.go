package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownMix = errors.New("unknown traffic mix")
	ErrInvalidMix = errors.New("invalid traffic mix")
)

// Task is one weighted endpoint a simulated user may hit.
type Task struct {
	Name   string `yaml:"name" json:"name"`
	Path   string `yaml:"path" json:"path"`
	Weight int    `yaml:"weight" json:"weight"`
}

// Mix is a named traffic profile: the ordered task table plus the wait
// policy applied between iterations.
type Mix struct {
	Name        string
	Description string
	Tasks       []Task
	Pacing      Pacing
}

// Validate reports the first structural problem with the mix.
func (m Mix) Validate() error {
	if len(m.Tasks) == 0 {
		return fmt.Errorf("%w: %q has no tasks", ErrInvalidMix, m.Name)
	}
	for _, t := range m.Tasks {
		if t.Weight < 0 {
			return fmt.Errorf("%w: task %q has negative weight %d", ErrInvalidMix, t.Name, t.Weight)
		}
		if !strings.HasPrefix(t.Path, "/") {
			return fmt.Errorf("%w: task %q path %q must start with /", ErrInvalidMix, t.Name, t.Path)
		}
	}
	if m.TotalWeight() <= 0 {
		return fmt.Errorf("%w: %q weights sum to zero", ErrInvalidMix, m.Name)
	}
	return m.Pacing.Validate()
}

func (m Mix) TotalWeight() int {
	total := 0
	for _, t := range m.Tasks {
		total += t.Weight
	}
	return total
}

// Share returns the expected long-run selection frequency of the named task.
func (m Mix) Share(name string) float64 {
	total := m.TotalWeight()
	if total == 0 {
		return 0
	}
	for _, t := range m.Tasks {
		if t.Name == name {
			return float64(t.Weight) / float64(total)
		}
	}
	return 0
}

// Pacing is the inclusive range a user waits between two iterations.
type Pacing struct {
	Min time.Duration
	Max time.Duration
}

func Between(min, max time.Duration) Pacing {
	return Pacing{Min: min, Max: max}
}

func (p Pacing) Validate() error {
	if p.Min < 0 {
		return fmt.Errorf("%w: negative wait %s", ErrInvalidMix, p.Min)
	}
	if p.Max < p.Min {
		return fmt.Errorf("%w: wait range %s-%s is inverted", ErrInvalidMix, p.Min, p.Max)
	}
	return nil
}

func (p Pacing) String() string {
	return fmt.Sprintf("%s-%s", p.Min, p.Max)
}
