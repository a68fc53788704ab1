package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"trafficmix/internal/runner"
	"trafficmix/internal/scenario"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	r, err := runner.NewRunner(runner.Config{
		URL:      "http://localhost:8080",
		Mix:      scenario.Standard(),
		NumUsers: 2,
		Duration: 10 * time.Second,
		Seed:     1,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return NewModel(context.Background(), r, make(runner.StatsUpdateChan, 1))
}

func TestApplySnapshot(t *testing.T) {
	m := newTestModel(t)
	start := m.LastUpdate

	m.applySnapshot(runner.StatsSnapshot{
		Requests: 10,
		Fail:     2,
		P90Ms:    42,
		Tasks:    map[string]uint64{"good": 6, "not_found": 4},
	}, start.Add(time.Second))

	if m.LastReqs != 10 {
		t.Errorf("expected LastReqs 10, got %d", m.LastReqs)
	}
	if got := m.RpsLine.Data; len(got) != 1 || got[0] != 10 {
		t.Errorf("expected one RPS sample of 10, got %v", got)
	}
	if got := m.LatencyLine.Data; len(got) != 1 || got[0] != 42 {
		t.Errorf("expected one latency sample of 42, got %v", got)
	}

	rows := m.Tasks.Rows()
	if len(rows) != 7 {
		t.Fatalf("expected 7 task rows, got %d", len(rows))
	}
	if rows[0][0] != "good" || rows[0][2] != "31.2%" || rows[0][3] != "60.0%" || rows[0][4] != "6" {
		t.Errorf("unexpected good row %v", rows[0])
	}
}

func TestDoneQuits(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(doneMsg{})
	if !next.(Model).Done {
		t.Error("expected model to be marked done")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestQuitKeyCancelsRun(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	select {
	case <-m.ctx.Done():
	default:
		t.Error("expected q to cancel the run context")
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m.Stats = runner.StatsSnapshot{Requests: 5, Tasks: map[string]uint64{"good": 5}}
	m.refreshTasks()
	out := m.View()
	for _, want := range []string{"standard", "REQ: 5", "unpredictable", "stop run"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

// blockingRequester holds every request until its context is cancelled.
type blockingRequester struct{}

func (blockingRequester) Do(ctx context.Context, userID string, task scenario.Task) runner.Outcome {
	<-ctx.Done()
	return runner.Outcome{Task: task.Name, Path: task.Path, UserID: userID, Err: ctx.Err()}
}

func TestWaitReturnsAfterRunUnwinds(t *testing.T) {
	m := newTestModel(t)
	m.Runner.Requester = blockingRequester{}
	m.Start()

	deadline := time.Now().Add(2 * time.Second)
	for m.Runner.GetInflight() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.Runner.GetInflight() == 0 {
		t.Fatal("expected requests in flight before stopping")
	}

	m.Stop()
	done := make(chan error, 1)
	go func() { done <- m.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Stop")
	}

	snap := m.Runner.Snapshot()
	if snap.Inflight != 0 || snap.Users != 0 {
		t.Errorf("expected runner fully stopped, got inflight=%d users=%d", snap.Inflight, snap.Users)
	}
	if snap.Requests != snap.Fail || snap.Requests == 0 {
		t.Errorf("expected every aborted request recorded as a failure, got %+v", snap)
	}
}

func TestWaitForUpdateExitsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := waitForUpdate(ctx, make(runner.StatsUpdateChan))

	got := make(chan tea.Msg, 1)
	go func() { got <- cmd() }()
	cancel()

	select {
	case msg := <-got:
		if msg != nil {
			t.Errorf("expected nil message after cancel, got %T", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitForUpdate did not return after cancel")
	}
}

func TestDoneCancelsUpdateWait(t *testing.T) {
	m := newTestModel(t)
	m.Update(doneMsg{})
	select {
	case <-m.ctx.Done():
	default:
		t.Error("expected the model context to be cancelled once the run is done")
	}
}
