package components

import (
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

func TestSparklineWindow(t *testing.T) {
	s := NewSparkline(3, "rps", lipgloss.NewStyle())
	for _, v := range []float64{1, 2, 3, 4} {
		s.Add(v)
	}
	if len(s.Data) != 3 || s.Data[0] != 2 {
		t.Errorf("expected window [2 3 4], got %v", s.Data)
	}
}

func TestSparklineGraph(t *testing.T) {
	s := NewSparkline(4, "rps", lipgloss.NewStyle())
	s.Add(0)
	s.Add(8)
	g := s.Graph()
	if n := utf8.RuneCountInString(g); n != 4 {
		t.Fatalf("expected 4 cells, got %d (%q)", n, g)
	}
	runes := []rune(g)
	if runes[0] != ' ' || runes[1] != '█' {
		t.Errorf("expected zero then full block, got %q", g)
	}
}
