// Package tui provides panel renderers for the TUI dashboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/salahayoub/votix/pkg/election"
)

// StatusPanel renders the election status and countdown.
type StatusPanel struct{}

// NewStatusPanel creates a new StatusPanel.
func NewStatusPanel() *StatusPanel {
	return &StatusPanel{}
}

// Render outputs the status panel content.
// The countdown is only shown while voting is live.
func (p *StatusPanel) Render(snap *election.Snapshot, now time.Time) string {
	if snap == nil {
		return "Loading election state..."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status: %s\n", snap.Status))

	switch snap.Status {
	case election.StatusLive:
		sb.WriteString(fmt.Sprintf("Time Remaining: %s\n", NewCountdown(snap.VotingEndTime, now)))
		sb.WriteString(fmt.Sprintf("Closes at: %s\n", time.Unix(int64(snap.VotingEndTime), 0).Format(time.RFC1123)))
	case election.StatusEnded:
		sb.WriteString("Voting Has Ended\n")
	default:
		sb.WriteString("Voting Not Started\n")
	}
	sb.WriteString(fmt.Sprintf("Total: %s", FormatVotes(snap.TotalVotes())))

	return sb.String()
}

// CandidatesPanel renders the candidate list with vote shares.
type CandidatesPanel struct {
	bar *ProgressBar
}

// NewCandidatesPanel creates a new CandidatesPanel.
func NewCandidatesPanel() *CandidatesPanel {
	return &CandidatesPanel{bar: NewProgressBar(20)}
}

// Render outputs one entry per candidate. The selected candidate is marked
// when showSelection is set, and the winner is marked once voting has ended.
func (p *CandidatesPanel) Render(snap *election.Snapshot, selected int, showSelection bool) string {
	if snap == nil {
		return "No candidates loaded"
	}
	if len(snap.Candidates) == 0 {
		return "No candidates yet"
	}

	winner, hasWinner := snap.Winner()
	tied := hasWinner && len(election.Winners(snap.Candidates)) > 1
	_, shares := election.Tally(snap.Candidates)

	var sb strings.Builder
	for i, share := range shares {
		c := share.Candidate
		cursor := "  "
		if showSelection && i == selected {
			cursor = "> "
		}
		mark := ""
		if hasWinner && c.ID == winner.ID {
			mark = " [WINNER]"
			if tied {
				mark = " [WINNER, tied]"
			}
		}

		sb.WriteString(fmt.Sprintf("%s#%d %s%s\n", cursor, c.ID, c.Name, mark))
		sb.WriteString(fmt.Sprintf("    \"%s\"\n", c.Slogan))
		sb.WriteString(fmt.Sprintf("    %s\n", p.bar.RenderVotes(share.Percent, c.VoteCount)))
		if showSelection && i == selected {
			sb.WriteString(fmt.Sprintf("    %s\n", c.ImageURL))
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// VoterPanel renders the connected account's voting status.
type VoterPanel struct{}

// NewVoterPanel creates a new VoterPanel.
func NewVoterPanel() *VoterPanel {
	return &VoterPanel{}
}

// Render outputs the voter panel content.
func (p *VoterPanel) Render(snap *election.Snapshot) string {
	if snap == nil {
		return "No voter status available"
	}

	registered := "Not Registered"
	if snap.Voter.IsRegistered {
		registered = "Registered"
	}
	voted := "Not Voted"
	if snap.Voter.HasVoted {
		voted = "Voted"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s | %s\n", registered, voted))

	switch {
	case snap.Status != election.StatusLive:
	case snap.Voter.HasVoted:
		sb.WriteString("You Have Voted")
	case snap.Voter.CanVote():
		sb.WriteString("Select a candidate and press v to cast your vote")
	default:
		sb.WriteString("Ask the administrator to register your address")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// AdminPanel renders the owner-only controls.
type AdminPanel struct{}

// NewAdminPanel creates a new AdminPanel.
func NewAdminPanel() *AdminPanel {
	return &AdminPanel{}
}

// Render outputs the admin panel content.
// The actions are issued from the command panel.
func (p *AdminPanel) Render() string {
	return strings.Join([]string{
		"Register Voter:       register <0x...>",
		"Add Candidate:        add <name>",
		"Set Voting Duration:  period <minutes>",
		"Election Control:     start | end",
	}, "\n")
}

// CommandPanel renders the command input and output area.
type CommandPanel struct{}

// NewCommandPanel creates a new CommandPanel.
func NewCommandPanel() *CommandPanel {
	return &CommandPanel{}
}

// Render outputs the command panel content.
// Displays the current input, output, and any error messages.
func (p *CommandPanel) Render(input, output, errorMsg string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("> %s", input))

	if errorMsg != "" {
		sb.WriteString(fmt.Sprintf("\nError: %s", errorMsg))
	}

	if output != "" {
		sb.WriteString(fmt.Sprintf("\nOutput: %s", output))
	}

	return sb.String()
}

// ConfirmPanel renders the action awaiting confirmation.
type ConfirmPanel struct{}

// NewConfirmPanel creates a new ConfirmPanel.
func NewConfirmPanel() *ConfirmPanel {
	return &ConfirmPanel{}
}

// Render outputs the confirmation dialog content.
// While the transaction is in flight the choices are replaced by a loader.
func (p *ConfirmPanel) Render(pending *election.PendingAction, phase election.Phase) string {
	if pending == nil {
		return ""
	}
	if phase == election.PhaseSubmitting {
		return pending.ConfirmationText + "\n\n" + LoadingMessage
	}
	return pending.ConfirmationText + "\n\n[y] Confirm    [n] Cancel"
}

// PromptPanel renders the passphrase request.
type PromptPanel struct{}

// NewPromptPanel creates a new PromptPanel.
func NewPromptPanel() *PromptPanel {
	return &PromptPanel{}
}

// Render outputs the prompt with the input masked.
func (p *PromptPanel) Render(prompt *PromptState) string {
	if prompt == nil {
		return ""
	}
	return fmt.Sprintf("Unlock %s\nPassphrase: %s", prompt.Account.Hex(), strings.Repeat("*", len([]rune(prompt.Input))))
}

// LoadingMessage is shown while a request to the chain is in flight.
const LoadingMessage = "Communicating with the blockchain..."

// LandingPanel renders the welcome screen shown before a wallet is connected.
type LandingPanel struct{}

// NewLandingPanel creates a new LandingPanel.
func NewLandingPanel() *LandingPanel {
	return &LandingPanel{}
}

// Render outputs the landing content.
func (p *LandingPanel) Render(busy bool) string {
	var sb strings.Builder
	sb.WriteString("Welcome to Votix\n\n")
	sb.WriteString("A secure, transparent, and decentralized voting platform.\n")
	sb.WriteString("Connect your wallet to participate.\n\n")
	if busy {
		sb.WriteString(LoadingMessage)
	} else {
		sb.WriteString("Press c to connect your wallet")
	}
	return sb.String()
}
