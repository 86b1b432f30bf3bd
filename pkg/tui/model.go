package tui

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/salahayoub/votix/pkg/election"
)

// PanelType identifies which panel has focus.
type PanelType int

const (
	PanelStatus PanelType = iota
	PanelCandidates
	PanelVoter
	PanelAdmin
	PanelCommand
)

// String returns a human-readable representation of the PanelType.
func (p PanelType) String() string {
	switch p {
	case PanelStatus:
		return "Election Status"
	case PanelCandidates:
		return "Candidates"
	case PanelVoter:
		return "Your Voting Status"
	case PanelAdmin:
		return "Admin Control Panel"
	case PanelCommand:
		return "Command"
	default:
		return "Unknown"
	}
}

// PanelCount is the total number of panels for navigation.
const PanelCount = 5

// PromptState is an open passphrase request.
type PromptState struct {
	Account common.Address
	Input   string

	reply chan promptReply
}

type promptReply struct {
	passphrase string
	err        error
}

// Model holds the application state for the TUI.
type Model struct {
	// Election state, copied from the view-model before each render
	Session  *election.Session
	Snapshot *election.Snapshot
	Phase    election.Phase
	Pending  *election.PendingAction
	Notice   *election.Notification
	Busy     bool
	Now      time.Time

	// UI state
	ActivePanel   PanelType
	Selected      int
	CommandInput  string
	CommandOutput string
	ErrorMessage  string
	Prompt        *PromptState

	// Configuration
	RefreshInterval time.Duration
	Width           int
}

// NewModel creates a new Model with default values.
func NewModel() *Model {
	return &Model{
		ActivePanel:     PanelStatus,
		RefreshInterval: 15 * time.Second,
		Width:           80,
		Now:             time.Now(),
	}
}

// Connected reports whether a wallet session exists.
func (m *Model) Connected() bool {
	return m.Session != nil
}

// IsAdmin reports whether the connected account owns the contract.
func (m *Model) IsAdmin() bool {
	return m.Snapshot != nil && m.Snapshot.CallerIsAdmin
}

// Candidates returns the candidates of the current snapshot.
func (m *Model) Candidates() []election.Candidate {
	if m.Snapshot == nil {
		return nil
	}
	return m.Snapshot.Candidates
}

// SelectedCandidate returns the highlighted candidate.
func (m *Model) SelectedCandidate() (election.Candidate, bool) {
	cands := m.Candidates()
	if m.Selected < 0 || m.Selected >= len(cands) {
		return election.Candidate{}, false
	}
	return cands[m.Selected], true
}

// MoveSelection moves the candidate highlight by delta, wrapping around.
func (m *Model) MoveSelection(delta int) {
	n := len(m.Candidates())
	if n == 0 {
		m.Selected = 0
		return
	}
	m.Selected = ((m.Selected+delta)%n + n) % n
}

// NextPanel moves focus to the next visible panel in circular order.
func (m *Model) NextPanel() {
	NavigateNext(m)
}

// PrevPanel moves focus to the previous visible panel in circular order.
func (m *Model) PrevPanel() {
	NavigatePrev(m)
}

// clamp keeps UI state consistent with a freshly synced snapshot.
func (m *Model) clamp() {
	if n := len(m.Candidates()); m.Selected >= n {
		m.Selected = 0
		if n > 0 {
			m.Selected = n - 1
		}
	}
	if !IsVisiblePanel(m, m.ActivePanel) {
		m.ActivePanel = PanelStatus
	}
}
