package scenario

import (
	"errors"
	"math"
	"testing"
	"time"
)

func frequencies(t *testing.T, m Mix, seed int64, draws int) map[string]float64 {
	t.Helper()
	p, err := NewPicker(m.Tasks, NewRand(seed, 0))
	if err != nil {
		t.Fatalf("NewPicker: %v", err)
	}
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[p.Pick().Name]++
	}
	freq := make(map[string]float64, len(counts))
	for name, c := range counts {
		freq[name] = float64(c) / float64(draws)
	}
	return freq
}

func TestPickerConvergesToWeights(t *testing.T) {
	for _, m := range []Mix{Standard(), Happy()} {
		t.Run(m.Name, func(t *testing.T) {
			freq := frequencies(t, m, 42, 200000)
			for _, task := range m.Tasks {
				want := m.Share(task.Name)
				if got := freq[task.Name]; math.Abs(got-want) > 0.01 {
					t.Errorf("task %s: expected frequency %.4f, got %.4f", task.Name, want, got)
				}
			}
		})
	}
}

func TestPickerScenarios(t *testing.T) {
	tests := []struct {
		mix  Mix
		task string
		want float64
	}{
		{Standard(), "good", 10.0 / 32.0},
		{Happy(), "good", 90.0 / 109.0},
		{Happy(), "bad", 1.0 / 109.0},
	}
	for _, tt := range tests {
		if got := tt.mix.Share(tt.task); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s/%s: expected share %.4f, got %.4f", tt.mix.Name, tt.task, tt.want, got)
		}
		freq := frequencies(t, tt.mix, 7, 300000)
		if got := freq[tt.task]; math.Abs(got-tt.want) > 0.005 {
			t.Errorf("%s/%s: expected frequency ~%.4f, got %.4f", tt.mix.Name, tt.task, tt.want, got)
		}
	}
}

func TestPickerSkipsZeroWeight(t *testing.T) {
	tasks := []Task{
		{Name: "never-first", Path: "/a", Weight: 0},
		{Name: "always", Path: "/b", Weight: 3},
		{Name: "never-mid", Path: "/c", Weight: 0},
		{Name: "sometimes", Path: "/d", Weight: 1},
		{Name: "never-last", Path: "/e", Weight: 0},
	}
	p, err := NewPicker(tasks, NewRand(1, 0))
	if err != nil {
		t.Fatalf("NewPicker: %v", err)
	}
	for i := 0; i < 10000; i++ {
		switch name := p.Pick().Name; name {
		case "always", "sometimes":
		default:
			t.Fatalf("zero-weight task %s was selected", name)
		}
	}
}

func TestPickerSameSeedSameSequence(t *testing.T) {
	m := Standard()
	a, _ := NewPicker(m.Tasks, NewRand(99, 3))
	b, _ := NewPicker(m.Tasks, NewRand(99, 3))
	c, _ := NewPicker(m.Tasks, NewRand(99, 4))

	same := true
	for i := 0; i < 1000; i++ {
		x, y, z := a.Index(), b.Index(), c.Index()
		if x != y {
			t.Fatalf("draw %d: same seed diverged (%d vs %d)", i, x, y)
		}
		if x != z {
			same = false
		}
	}
	if same {
		t.Error("expected a different stream to produce a different sequence")
	}
}

func TestNewPickerRejectsBadWeights(t *testing.T) {
	if _, err := NewPicker([]Task{{Name: "a", Path: "/a", Weight: 0}}, NewRand(1, 0)); !errors.Is(err, ErrInvalidMix) {
		t.Errorf("expected ErrInvalidMix for zero total, got %v", err)
	}
	if _, err := NewPicker([]Task{{Name: "a", Path: "/a", Weight: -1}, {Name: "b", Path: "/b", Weight: 2}}, NewRand(1, 0)); !errors.Is(err, ErrInvalidMix) {
		t.Errorf("expected ErrInvalidMix for negative weight, got %v", err)
	}
	if _, err := NewPicker(nil, NewRand(1, 0)); !errors.Is(err, ErrInvalidMix) {
		t.Errorf("expected ErrInvalidMix for empty table, got %v", err)
	}
}

func TestPacingNextWithinRange(t *testing.T) {
	p := Between(1*time.Second, 5*time.Second)
	rnd := NewRand(5, 0)
	sawMin, sawMax := false, false
	for i := 0; i < 100000; i++ {
		d := p.Next(rnd)
		if d < p.Min || d > p.Max {
			t.Fatalf("wait %s outside %s", d, p)
		}
		if d == p.Min {
			sawMin = true
		}
		if d == p.Max {
			sawMax = true
		}
	}
	if !sawMin || !sawMax {
		t.Errorf("expected both bounds to be reachable (min=%v max=%v)", sawMin, sawMax)
	}
}

func TestPacingNextDegenerate(t *testing.T) {
	p := Between(2*time.Second, 2*time.Second)
	if d := p.Next(NewRand(1, 0)); d != 2*time.Second {
		t.Errorf("expected fixed wait 2s, got %s", d)
	}
	var zero Pacing
	if d := zero.Next(NewRand(1, 0)); d != 0 {
		t.Errorf("expected zero wait, got %s", d)
	}
}
