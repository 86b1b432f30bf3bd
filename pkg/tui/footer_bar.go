// Package tui provides footer bar rendering for the TUI dashboard.
package tui

import "github.com/salahayoub/votix/pkg/election"

// FooterBar renders the keyboard shortcuts footer.
type FooterBar struct {
	terminalWidth int
}

// NewFooterBar creates a footer bar renderer.
func NewFooterBar(width int) *FooterBar {
	return &FooterBar{
		terminalWidth: width,
	}
}

// SetWidth updates the terminal width for the footer bar.
func (f *FooterBar) SetWidth(width int) {
	f.terminalWidth = width
}

// Render outputs the shortcuts that apply to the model's current state.
// Terminals narrower than 80 columns get the abbreviated form.
func (f *FooterBar) Render(model *Model) string {
	full, short := f.shortcuts(model)
	if f.terminalWidth < 80 {
		return short
	}
	return full
}

func (f *FooterBar) shortcuts(model *Model) (string, string) {
	switch {
	case model.Prompt != nil:
		return "Enter: Unlock | Esc: Cancel",
			"Enter:Unlock Esc:Cancel"
	case model.Phase == election.PhaseSubmitting:
		return "Waiting for the transaction to be mined | q: Quit",
			"Mining... q:Quit"
	case model.Phase == election.PhaseConfirming:
		return "y/Enter: Confirm | n/Esc: Cancel",
			"y:Confirm n:Cancel"
	case !model.Connected():
		return "c: Connect Wallet | q: Quit",
			"c:Connect q:Quit"
	case model.ActivePanel == PanelCommand:
		return "Enter: Execute | Esc: Clear | Tab: Next Panel",
			"Enter:Exec Esc:Clear Tab:Panel"
	case model.ActivePanel == PanelCandidates:
		return "↑/↓: Select | v: Vote | Tab: Next Panel | r: Refresh | q: Quit",
			"↑↓:Sel v:Vote Tab:Panel r:Ref q:Quit"
	default:
		return "Tab: Next Panel | r: Refresh | c: Reconnect | q: Quit",
			"Tab:Panel r:Ref c:Conn q:Quit"
	}
}
