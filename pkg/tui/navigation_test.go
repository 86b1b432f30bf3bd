package tui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/salahayoub/votix/pkg/election"
)

func TestNavigation_SkipsAdminForVoters(t *testing.T) {
	m := connectedModel(election.StatusLive, false, 1)

	order := []PanelType{PanelCandidates, PanelVoter, PanelCommand, PanelStatus}
	for _, want := range order {
		m.NextPanel()
		if m.ActivePanel != want {
			t.Fatalf("NextPanel = %v, want %v", m.ActivePanel, want)
		}
	}

	m.PrevPanel()
	if m.ActivePanel != PanelCommand {
		t.Errorf("PrevPanel from Status = %v, want Command", m.ActivePanel)
	}
}

func TestNavigation_AdminVisibleToOwner(t *testing.T) {
	m := connectedModel(election.StatusLive, true, 1)
	if got := len(VisiblePanels(m)); got != PanelCount {
		t.Errorf("owner should see %d panels, got %d", PanelCount, got)
	}

	NavigateToPanel(m, PanelAdmin)
	if m.ActivePanel != PanelAdmin {
		t.Errorf("NavigateToPanel(Admin) = %v", m.ActivePanel)
	}

	// Losing ownership (account switch) moves focus back to a visible panel
	m.Snapshot.CallerIsAdmin = false
	m.clamp()
	if m.ActivePanel != PanelStatus {
		t.Errorf("hidden panel should lose focus, got %v", m.ActivePanel)
	}
	NavigateToPanel(m, PanelAdmin)
	if m.ActivePanel == PanelAdmin {
		t.Error("cannot navigate to a hidden panel")
	}
	NavigateToPanel(m, PanelType(42))
	if !IsValidPanel(m.ActivePanel) {
		t.Error("invalid panel must be ignored")
	}
}

func TestModel_MoveSelection(t *testing.T) {
	m := connectedModel(election.StatusLive, false, 0, 0, 0)

	m.MoveSelection(-1)
	if m.Selected != 2 {
		t.Errorf("up from the first candidate should wrap, got %d", m.Selected)
	}
	m.MoveSelection(1)
	if m.Selected != 0 {
		t.Errorf("down from the last candidate should wrap, got %d", m.Selected)
	}
	if c, ok := m.SelectedCandidate(); !ok || c.ID != 1 {
		t.Errorf("SelectedCandidate = %+v, %v", c, ok)
	}

	m.Selected = 2
	m.Snapshot.Candidates = m.Snapshot.Candidates[:1]
	m.clamp()
	if m.Selected != 0 {
		t.Errorf("selection should clamp to the shorter list, got %d", m.Selected)
	}

	empty := NewModel()
	empty.MoveSelection(1)
	if _, ok := empty.SelectedCandidate(); ok {
		t.Error("no candidate to select without a snapshot")
	}
}

func TestBuffer_DrawString(t *testing.T) {
	b := NewBuffer(6, 2)
	b.DrawString(1, 0, "ab█cdefg", CurrentStyles.Normal)

	want := []rune{' ', 'a', 'b', '█', 'c', 'd'}
	for x, r := range want {
		if b.Cells[0][x].Rune != r {
			t.Errorf("cell %d = %q, want %q", x, b.Cells[0][x].Rune, r)
		}
	}

	b.DrawString(0, 5, "out of range", CurrentStyles.Normal)
	b.FillRow(2, 1, CurrentStyles.Error)
	if b.Cells[1][2].Style != CurrentStyles.Error || b.Cells[1][1].Style == CurrentStyles.Error {
		t.Error("FillRow should only paint from the given column")
	}
}

func TestStyles(t *testing.T) {
	s := GetStyles(DefaultTheme)
	if s.NoticeStyle(election.NoticeSuccess) != s.Success || s.NoticeStyle(election.NoticeError) != s.Error {
		t.Error("notice styles should map to success and error")
	}
	if s.StatusStyle(election.StatusLive) == s.StatusStyle(election.StatusEnded) {
		t.Error("live and ended should look different")
	}
	if s.Winner == tcell.StyleDefault {
		t.Error("winner style should be set")
	}
}
