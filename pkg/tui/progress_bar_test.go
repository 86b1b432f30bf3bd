package tui

import "testing"

func TestProgressBar_Render(t *testing.T) {
	bar := NewProgressBar(10)

	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[░░░░░░░░░░] 0.0%"},
		{42.5, "[████░░░░░░] 42.5%"},
		{100, "[██████████] 100.0%"},
		{-5, "[░░░░░░░░░░] 0.0%"},
		{250, "[██████████] 100.0%"},
	}
	for _, tt := range tests {
		if got := bar.Render(tt.pct); got != tt.want {
			t.Errorf("Render(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}

	if got := NewProgressBar(0).Render(50); got != "[█████░░░░░] 50.0%" {
		t.Errorf("zero width should fall back to 10, got %q", got)
	}
}

func TestProgressBar_RenderVotes(t *testing.T) {
	bar := NewProgressBar(4)
	if got := bar.RenderVotes(50, 1204); got != "[██░░] 50.0% (1,204 votes)" {
		t.Errorf("RenderVotes = %q", got)
	}
}

func TestFormatVotes(t *testing.T) {
	tests := map[uint64]string{
		0:         "0 votes",
		1:         "1 vote",
		2:         "2 votes",
		1_000_000: "1,000,000 votes",
	}
	for n, want := range tests {
		if got := FormatVotes(n); got != want {
			t.Errorf("FormatVotes(%d) = %q, want %q", n, got, want)
		}
	}
}
