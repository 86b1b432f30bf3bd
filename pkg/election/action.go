package election

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/salahayoub/votix/pkg/contract"
)

// ActionKind identifies a state-changing contract call.
type ActionKind int

const (
	ActionRegisterVoter ActionKind = iota
	ActionAddCandidate
	ActionSetVotingPeriod
	ActionStartVoting
	ActionEndVoting
	ActionCastVote
)

// String returns the contract method name.
func (k ActionKind) String() string {
	switch k {
	case ActionRegisterVoter:
		return "registerVoter"
	case ActionAddCandidate:
		return "addCandidate"
	case ActionSetVotingPeriod:
		return "setVotingPeriod"
	case ActionStartVoting:
		return "startVoting"
	case ActionEndVoting:
		return "endVoting"
	case ActionCastVote:
		return "castVote"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Admin reports whether the action is restricted to the contract owner.
func (k ActionKind) Admin() bool {
	return k != ActionCastVote
}

// Action is a closed variant: Kind selects which payload field is meaningful.
// Construct actions with the New* functions, which validate the payload.
type Action struct {
	Kind ActionKind

	Voter         common.Address // RegisterVoter
	CandidateName string         // AddCandidate
	Minutes       uint64         // SetVotingPeriod
	CandidateID   uint64         // CastVote
	candidateName string         // CastVote: display name captured at proposal time
}

// PendingAction is an action awaiting user confirmation.
type PendingAction struct {
	Title            string
	ConfirmationText string
	Action           Action
}

const (
	eligibilityMessage = "You are not eligible to vote or have already voted."
	adminConfirmation  = "This will send a transaction to the blockchain."
)

// Title returns the confirmation dialog title.
func (a Action) Title() string {
	switch a.Kind {
	case ActionRegisterVoter:
		return "Confirm Register Voter"
	case ActionAddCandidate:
		return "Confirm Add Candidate"
	case ActionSetVotingPeriod:
		return "Confirm Set Voting Period"
	case ActionStartVoting:
		return "Confirm Start Voting"
	case ActionEndVoting:
		return "Confirm End Voting"
	case ActionCastVote:
		return "Confirm Your Vote"
	default:
		return "Confirm"
	}
}

// ConfirmationText returns the body of the confirmation dialog.
func (a Action) ConfirmationText() string {
	if a.Kind == ActionCastVote {
		return fmt.Sprintf("You are voting for %s. This action is irreversible.", a.candidateName)
	}
	return adminConfirmation
}

// SuccessMessage returns the notification shown once the transaction is mined.
func (a Action) SuccessMessage() string {
	switch a.Kind {
	case ActionRegisterVoter:
		return "Voter registered."
	case ActionAddCandidate:
		return "Candidate added."
	case ActionSetVotingPeriod:
		return "Voting period set."
	case ActionStartVoting:
		return "Voting started!"
	case ActionEndVoting:
		return "Voting ended."
	case ActionCastVote:
		return "Your vote has been cast successfully!"
	default:
		return "Transaction confirmed."
	}
}

// Pending wraps a into a PendingAction.
func (a Action) Pending() *PendingAction {
	return &PendingAction{
		Title:            a.Title(),
		ConfirmationText: a.ConfirmationText(),
		Action:           a,
	}
}

// apply sends the action's single transaction through w.
func (a Action) apply(ctx context.Context, w contract.Writer) (*contract.Receipt, error) {
	switch a.Kind {
	case ActionRegisterVoter:
		return w.RegisterVoter(ctx, a.Voter)
	case ActionAddCandidate:
		return w.AddCandidate(ctx, a.CandidateName)
	case ActionSetVotingPeriod:
		return w.SetVotingPeriod(ctx, a.Minutes)
	case ActionStartVoting:
		return w.StartVoting(ctx)
	case ActionEndVoting:
		return w.EndVoting(ctx)
	case ActionCastVote:
		return w.CastVote(ctx, a.CandidateID)
	default:
		return nil, fmt.Errorf("unknown action kind %d", int(a.Kind))
	}
}

// NewRegisterVoter validates a 0x-prefixed hex address.
func NewRegisterVoter(address string) (Action, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) || !strings.HasPrefix(strings.ToLower(address), "0x") {
		return Action{}, newError(KindInvalidInput, ActionRegisterVoter.String(),
			fmt.Errorf("%q is not a 0x-prefixed hex address", address))
	}
	voter := common.HexToAddress(address)
	if voter == (common.Address{}) {
		return Action{}, newError(KindInvalidInput, ActionRegisterVoter.String(),
			errors.New("zero address cannot be registered"))
	}
	return Action{Kind: ActionRegisterVoter, Voter: voter}, nil
}

// NewAddCandidate validates a non-empty name.
func NewAddCandidate(name string) (Action, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Action{}, newError(KindInvalidInput, ActionAddCandidate.String(),
			errors.New("candidate name is empty"))
	}
	return Action{Kind: ActionAddCandidate, CandidateName: name}, nil
}

// NewSetVotingPeriod validates a positive duration in minutes.
func NewSetVotingPeriod(minutes uint64) (Action, error) {
	if minutes == 0 {
		return Action{}, newError(KindInvalidInput, ActionSetVotingPeriod.String(),
			errors.New("voting period must be at least one minute"))
	}
	return Action{Kind: ActionSetVotingPeriod, Minutes: minutes}, nil
}

// NewStartVoting returns the startVoting action.
func NewStartVoting() Action {
	return Action{Kind: ActionStartVoting}
}

// NewEndVoting returns the endVoting action.
func NewEndVoting() Action {
	return Action{Kind: ActionEndVoting}
}

// NewCastVote builds a vote for candidateID, gated on the snapshot's voter status.
// An ineligible voter gets KindLocalEligibility and no action; an unknown
// candidate gets KindInvalidInput.
func NewCastVote(snap *Snapshot, candidateID uint64) (*PendingAction, error) {
	op := ActionCastVote.String()
	if snap == nil {
		return nil, newError(KindNotConnected, op, nil)
	}
	if !snap.Voter.CanVote() {
		return nil, newError(KindLocalEligibility, op, nil)
	}
	c, ok := snap.Candidate(candidateID)
	if !ok {
		return nil, newError(KindInvalidInput, op, fmt.Errorf("no candidate with id %d", candidateID))
	}
	a := Action{Kind: ActionCastVote, CandidateID: c.ID, candidateName: c.Name}
	return a.Pending(), nil
}
