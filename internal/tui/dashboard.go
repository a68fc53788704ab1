package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trafficmix/internal/runner"
	"trafficmix/internal/tui/components"
	"trafficmix/internal/tui/styles"
)

type statsMsg runner.StatsSnapshot

type doneMsg struct{ err error }

// runState is shared by every copy of the model; err is written before done
// is closed.
type runState struct {
	done chan struct{}
	err  error
}

// Model is the live dashboard for one run. The caller starts the runner with
// Start; the program exits once the run finishes or the user quits.
type Model struct {
	Runner  *runner.Runner
	Updates runner.StatsUpdateChan

	ctx    context.Context
	cancel context.CancelFunc
	run    *runState

	Stats    runner.StatsSnapshot
	Progress progress.Model
	Tasks    table.Model

	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	StartTime  time.Time
	Elapsed    time.Duration
	LastUpdate time.Time
	LastReqs   uint64

	Done bool
	Err  error

	Width  int
	Height int
}

func NewModel(ctx context.Context, r *runner.Runner, updates runner.StatsUpdateChan) Model {
	ctx, cancel := context.WithCancel(ctx)

	tasks := table.New(
		table.WithColumns([]table.Column{
			{Title: "Task", Width: 14},
			{Title: "Path", Width: 12},
			{Title: "Expected", Width: 9},
			{Title: "Observed", Width: 9},
			{Title: "Requests", Width: 9},
		}),
		table.WithHeight(len(r.Cfg.Mix.Tasks)+1),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(false)
	ts.Selected = lipgloss.NewStyle()
	tasks.SetStyles(ts)

	m := Model{
		Runner:      r,
		Updates:     updates,
		ctx:         ctx,
		cancel:      cancel,
		run:         &runState{done: make(chan struct{})},
		Progress:    progress.New(progress.WithGradient("#7D56F4", "#04B575")),
		Tasks:       tasks,
		RpsLine:     components.NewSparkline(40, "RPS", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90 (ms)", styles.Warn),
		StartTime:   time.Now(),
		LastUpdate:  time.Now(),
	}
	m.refreshTasks()
	return m
}

// Start runs the load in the background. Call it once.
func (m Model) Start() {
	go func() {
		m.run.err = m.Runner.Run(m.ctx)
		close(m.run.done)
	}()
}

// Stop cancels the run; in-flight requests are aborted.
func (m Model) Stop() {
	m.cancel()
}

// Wait blocks until the runner has returned. Stats are final afterwards.
func (m Model) Wait() error {
	<-m.run.done
	return m.run.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForDone(m.run), waitForUpdate(m.ctx, m.Updates))
}

func waitForDone(run *runState) tea.Cmd {
	return func() tea.Msg {
		<-run.done
		return doneMsg{err: run.err}
	}
}

// waitForUpdate returns nil once ctx is done so the command goroutine does
// not outlive the program.
func waitForUpdate(ctx context.Context, sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-sub:
			return statsMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			if m.Done {
				return m, tea.Quit
			}
			// the runner returns promptly and doneMsg quits
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4
		half := max(msg.Width/2-6, 10)
		m.RpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case statsMsg:
		cmd := m.applySnapshot(runner.StatsSnapshot(msg), time.Now())
		return m, tea.Batch(cmd, waitForUpdate(m.ctx, m.Updates))

	case doneMsg:
		m.Done = true
		m.Err = msg.err
		m.cancel()
		m.Elapsed = time.Since(m.StartTime)
		m.Stats = m.Runner.Snapshot()
		m.refreshTasks()
		return m, tea.Quit

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applySnapshot(s runner.StatsSnapshot, now time.Time) tea.Cmd {
	dt := now.Sub(m.LastUpdate).Seconds()
	if dt < 0.01 {
		dt = 0.01
	}
	m.RpsLine.Add(float64(s.Requests-m.LastReqs) / dt)
	m.LatencyLine.Add(s.P90Ms)

	m.Stats = s
	m.LastReqs = s.Requests
	m.LastUpdate = now
	m.Elapsed = now.Sub(m.StartTime)
	m.refreshTasks()

	total := m.Runner.Cfg.Duration
	if total <= 0 {
		return nil
	}
	return m.Progress.SetPercent(min(float64(m.Elapsed)/float64(total), 1))
}

func (m *Model) refreshTasks() {
	mix := m.Runner.Cfg.Mix
	rows := make([]table.Row, 0, len(mix.Tasks))
	for _, t := range mix.Tasks {
		n := m.Stats.Tasks[t.Name]
		observed := 0.0
		if m.Stats.Requests > 0 {
			observed = float64(n) / float64(m.Stats.Requests) * 100
		}
		rows = append(rows, table.Row{
			t.Name,
			t.Path,
			fmt.Sprintf("%.1f%%", mix.Share(t.Name)*100),
			fmt.Sprintf("%.1f%%", observed),
			fmt.Sprintf("%d", n),
		})
	}
	m.Tasks.SetRows(rows)
}

func (m Model) View() string {
	s := strings.Builder{}
	cfg := m.Runner.Cfg

	s.WriteString(styles.Title.Render(fmt.Sprintf("🚦 trafficmix · %s", cfg.Mix.Name)))
	s.WriteString("\n")
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("%s | users %d | wait %s | seed %d | elapsed %s",
		cfg.URL, cfg.NumUsers, cfg.Mix.Pacing, cfg.Seed, m.Elapsed.Round(time.Second))))
	s.WriteString("\n\n")

	errRate := 0.0
	if m.Stats.Requests > 0 {
		errRate = float64(m.Stats.Fail) / float64(m.Stats.Requests) * 100
	}
	col1 := fmt.Sprintf("REQ: %d\nUSERS: %d", m.Stats.Requests, m.Stats.Users)
	col2 := fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, m.Stats.Fail)
	col3 := fmt.Sprintf("INF: %d\nKB: %d", m.Stats.Inflight, m.Stats.Bytes/1024)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(styles.ErrorRate(errRate).Render(col2)),
		styles.Box.Render(col3),
	))
	s.WriteString("\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n")

	s.WriteString(styles.Box.Render(fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.P50Ms, m.Stats.P90Ms, m.Stats.P99Ms, m.Stats.MaxMs,
	)))
	s.WriteString("\n")
	s.WriteString(styles.Box.Render(m.Tasks.View()))
	s.WriteString("\n\n")

	if cfg.Duration > 0 {
		s.WriteString(m.Progress.View())
		s.WriteString("\n")
	}
	if m.Done {
		s.WriteString(styles.Success.Render("Run complete"))
	} else {
		s.WriteString(styles.RenderKey("q", "stop run"))
	}
	s.WriteString("\n")
	return s.String()
}
