package election

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/salahayoub/votix/pkg/contract"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewCastVote_Eligibility(t *testing.T) {
	cands := []Candidate{{ID: 1, Name: "Elara Vance"}, {ID: 2, Name: "Kaelen Reed"}}

	t.Run("eligible", func(t *testing.T) {
		snap := &Snapshot{Candidates: cands, Voter: VoterStatus{IsRegistered: true}}
		p, err := NewCastVote(snap, 2)
		require.NoError(t, err)
		assert.Equal(t, "Confirm Your Vote", p.Title)
		assert.Equal(t, "You are voting for Kaelen Reed. This action is irreversible.", p.ConfirmationText)
		assert.Equal(t, ActionCastVote, p.Action.Kind)
		assert.Equal(t, uint64(2), p.Action.CandidateID)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		snap := &Snapshot{Candidates: cands, Voter: VoterStatus{IsRegistered: true}}
		p, err := NewCastVote(snap, 9)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("no snapshot", func(t *testing.T) {
		_, err := NewCastVote(nil, 1)
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestNewCastVote_OnlyWhenRegisteredAndNotVoted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		registered := rapid.Bool().Draw(t, "registered")
		voted := rapid.Bool().Draw(t, "voted")
		snap := &Snapshot{
			Candidates: []Candidate{{ID: 1, Name: "A"}},
			Voter:      VoterStatus{IsRegistered: registered, HasVoted: voted},
		}

		p, err := NewCastVote(snap, 1)
		eligible := registered && !voted
		if eligible && (err != nil || p == nil) {
			t.Fatalf("eligible voter rejected: %v", err)
		}
		if !eligible {
			if p != nil {
				t.Fatalf("ineligible voter got a pending action")
			}
			if !errors.Is(err, ErrLocalEligibilityViolation) {
				t.Fatalf("want LocalEligibilityViolation, got %v", err)
			}
			if Message(err) != "You are not eligible to vote or have already voted." {
				t.Fatalf("unexpected message %q", Message(err))
			}
		}
	})
}

func TestAdminActionValidation(t *testing.T) {
	_, err := NewRegisterVoter("0x1234")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewRegisterVoter("2000000000000000000000000000000000000002")
	assert.ErrorIs(t, err, ErrInvalidInput, "0x prefix is required")
	_, err = NewRegisterVoter("0x0000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrInvalidInput)

	a, err := NewRegisterVoter(" 0x2000000000000000000000000000000000000002 ")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x2000000000000000000000000000000000000002"), a.Voter)

	_, err = NewAddCandidate("   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	a, err = NewAddCandidate("  Seraphina Croft ")
	require.NoError(t, err)
	assert.Equal(t, "Seraphina Croft", a.CandidateName)

	_, err = NewSetVotingPeriod(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	a, err = NewSetVotingPeriod(60)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), a.Minutes)
}

func TestActionText(t *testing.T) {
	reg, _ := NewRegisterVoter("0x2000000000000000000000000000000000000002")
	add, _ := NewAddCandidate("Elara Vance")
	period, _ := NewSetVotingPeriod(5)

	tests := []struct {
		action  Action
		title   string
		success string
		method  string
	}{
		{reg, "Confirm Register Voter", "Voter registered.", "registerVoter"},
		{add, "Confirm Add Candidate", "Candidate added.", "addCandidate"},
		{period, "Confirm Set Voting Period", "Voting period set.", "setVotingPeriod"},
		{NewStartVoting(), "Confirm Start Voting", "Voting started!", "startVoting"},
		{NewEndVoting(), "Confirm End Voting", "Voting ended.", "endVoting"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			p := tt.action.Pending()
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, "This will send a transaction to the blockchain.", p.ConfirmationText)
			assert.Equal(t, tt.success, tt.action.SuccessMessage())
			assert.Equal(t, tt.method, tt.action.Kind.String())
			assert.True(t, tt.action.Kind.Admin())
		})
	}
	assert.False(t, ActionCastVote.Admin())
}

// recordingWriter captures which contract method an action invokes.
type recordingWriter struct {
	calls []string
}

func (w *recordingWriter) record(call string) (*contract.Receipt, error) {
	w.calls = append(w.calls, call)
	return &contract.Receipt{}, nil
}

func (w *recordingWriter) RegisterVoter(_ context.Context, v common.Address) (*contract.Receipt, error) {
	return w.record("registerVoter " + v.Hex())
}
func (w *recordingWriter) AddCandidate(_ context.Context, name string) (*contract.Receipt, error) {
	return w.record("addCandidate " + name)
}
func (w *recordingWriter) SetVotingPeriod(_ context.Context, m uint64) (*contract.Receipt, error) {
	return w.record(fmt.Sprintf("setVotingPeriod %d", m))
}
func (w *recordingWriter) StartVoting(context.Context) (*contract.Receipt, error) {
	return w.record("startVoting")
}
func (w *recordingWriter) EndVoting(context.Context) (*contract.Receipt, error) {
	return w.record("endVoting")
}
func (w *recordingWriter) CastVote(_ context.Context, id uint64) (*contract.Receipt, error) {
	return w.record(fmt.Sprintf("castVote %d", id))
}

func TestActionApply(t *testing.T) {
	w := &recordingWriter{}
	ctx := context.Background()
	voter := "0x2000000000000000000000000000000000000002"

	reg, _ := NewRegisterVoter(voter)
	add, _ := NewAddCandidate("Elara Vance")
	period, _ := NewSetVotingPeriod(60)
	vote, _ := NewCastVote(&Snapshot{
		Candidates: []Candidate{{ID: 3, Name: "Seraphina Croft"}},
		Voter:      VoterStatus{IsRegistered: true},
	}, 3)

	for _, a := range []Action{reg, add, period, NewStartVoting(), NewEndVoting(), vote.Action} {
		_, err := a.apply(ctx, w)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"registerVoter " + common.HexToAddress(voter).Hex(),
		"addCandidate Elara Vance",
		"setVotingPeriod 60",
		"startVoting",
		"endVoting",
		"castVote 3",
	}, w.calls)

	_, err := Action{Kind: ActionKind(99)}.apply(ctx, w)
	assert.Error(t, err)
}

func TestClassifyAndMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback Kind
		kind     Kind
		message  string
	}{
		{"no wallet", wallet.ErrNoWallet, KindReadFailed, KindWalletUnavailable,
			"No wallet found. Configure a keystore or private key."},
		{"declined", fmt.Errorf("unlock: %w", wallet.ErrDeclined), KindWalletUnavailable, KindUserRejected,
			"Request was rejected in the wallet."},
		{"external rejection", errors.New("MetaMask Tx Signature: User denied transaction signature."), KindTransactionFailed, KindUserRejected,
			"Request was rejected in the wallet."},
		{"no code", fmt.Errorf("call owner: %w", contract.ErrNoCode), KindReadFailed, KindContractUnreachable,
			"Contract not found. Check address and network."},
		{"revert", &contract.RevertError{Reason: contract.ReasonAlreadyVoted}, KindTransactionFailed, KindTransactionFailed,
			"Transaction failed: You have already voted"},
		{"failed receipt", &contract.TxError{Hash: common.HexToHash("0x01"), Err: contract.ErrTxFailed}, KindUnknown, KindTransactionFailed,
			"Transaction 0x0000…0001 failed."},
		{"read failure", errors.New("dial tcp: refused"), KindReadFailed, KindReadFailed,
			"Failed to load data from the blockchain."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classify("op", tt.err, tt.fallback)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.kind, KindOf(e))
			assert.ErrorIs(t, e, tt.err)
			assert.Equal(t, tt.message, Message(e))
		})
	}
}

func TestErrorIsSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindBusy, "castVote", nil))
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.False(t, errors.Is(err, ErrTransactionFailed))
	assert.Equal(t, "wrapped: castVote: a submission is already in flight", err.Error())

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindBusy, e.Kind)

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}
