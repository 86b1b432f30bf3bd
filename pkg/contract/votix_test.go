package contract

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dataError struct {
	msg  string
	data interface{}
}

func (e *dataError) Error() string          { return e.msg }
func (e *dataError) ErrorData() interface{} { return e.data }

// revertData encodes Error(string) the way the EVM returns it.
func revertData(t *testing.T, reason string) string {
	t.Helper()
	strType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strType}}.Pack(reason)
	require.NoError(t, err)
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return hexutil.Encode(append(selector, packed...))
}

func TestClassify(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, classify(nil))
	})

	t.Run("no code", func(t *testing.T) {
		err := classify(bind.ErrNoCode)
		assert.ErrorIs(t, err, ErrNoCode)
	})

	t.Run("structured revert data", func(t *testing.T) {
		raw := &dataError{msg: "execution reverted", data: revertData(t, ReasonAlreadyVoted)}
		err := classify(raw)

		var rerr *RevertError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, ReasonAlreadyVoted, rerr.Reason)
		assert.ErrorIs(t, err, ErrReverted)
	})

	t.Run("textual revert", func(t *testing.T) {
		err := classify(fmt.Errorf("estimate gas: execution reverted: %s", ReasonOnlyOwner))

		var rerr *RevertError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, ReasonOnlyOwner, rerr.Reason)
	})

	t.Run("bare revert", func(t *testing.T) {
		err := classify(errors.New("execution reverted"))

		var rerr *RevertError
		require.True(t, errors.As(err, &rerr))
		assert.Empty(t, rerr.Reason)
		assert.Equal(t, "execution reverted", rerr.Error())
	})

	t.Run("unrelated", func(t *testing.T) {
		in := errors.New("connection refused")
		err := classify(in)
		assert.Equal(t, in, err)
		assert.False(t, errors.Is(err, ErrReverted))
	})
}

func TestTxError(t *testing.T) {
	hash := common.HexToHash("0xabc")
	err := &TxError{Hash: hash, Err: ErrTxFailed}

	assert.ErrorIs(t, err, ErrTxFailed)
	assert.Contains(t, err.Error(), hash.Hex())
}

func TestParsedABI(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)

	for _, method := range []string{
		"owner", "getCandidates", "votingStarted", "votingEnded", "votingEndTime",
		"isRegistered", "hasVoted", "registerVoter", "addCandidate",
		"setVotingPeriod", "startVoting", "endVoting", "castVote",
	} {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "missing method %s", method)
	}
	for _, ev := range []string{"OwnerChanged", "Voted", "VoterRegistered", "VotingPeriodSet"} {
		_, ok := parsed.Events[ev]
		assert.True(t, ok, "missing event %s", ev)
	}
}

func TestWatcher_Decode(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)
	w := &Watcher{abi: parsed}

	uintType, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	voter := common.HexToAddress("0x2000000000000000000000000000000000000002")
	txHash := common.HexToHash("0x01")

	t.Run("voted", func(t *testing.T) {
		data, err := abi.Arguments{{Type: uintType}}.Pack(big.NewInt(3))
		require.NoError(t, err)

		ev, ok := w.decode(types.Log{
			Topics:      []common.Hash{parsed.Events["Voted"].ID, common.BytesToHash(voter.Bytes())},
			Data:        data,
			BlockNumber: 42,
			TxHash:      txHash,
		})
		require.True(t, ok)
		assert.Equal(t, Event{Kind: EventVoted, BlockNumber: 42, TxHash: txHash, Voter: voter, CandidateID: 3}, ev)
	})

	t.Run("voting period set", func(t *testing.T) {
		data, err := abi.Arguments{{Type: uintType}, {Type: uintType}}.Pack(big.NewInt(100), big.NewInt(3700))
		require.NoError(t, err)

		ev, ok := w.decode(types.Log{
			Topics: []common.Hash{parsed.Events["VotingPeriodSet"].ID},
			Data:   data,
		})
		require.True(t, ok)
		assert.Equal(t, EventVotingPeriodSet, ev.Kind)
		assert.Equal(t, uint64(100), ev.StartTime)
		assert.Equal(t, uint64(3700), ev.EndTime)
	})

	t.Run("voter registered", func(t *testing.T) {
		ev, ok := w.decode(types.Log{
			Topics: []common.Hash{parsed.Events["VoterRegistered"].ID, common.BytesToHash(voter.Bytes())},
		})
		require.True(t, ok)
		assert.Equal(t, EventVoterRegistered, ev.Kind)
		assert.Equal(t, voter, ev.Voter)
	})

	t.Run("skipped", func(t *testing.T) {
		_, ok := w.decode(types.Log{})
		assert.False(t, ok)

		_, ok = w.decode(types.Log{Topics: []common.Hash{common.HexToHash("0xdead")}})
		assert.False(t, ok)

		_, ok = w.decode(types.Log{
			Topics:  []common.Hash{parsed.Events["VoterRegistered"].ID, common.BytesToHash(voter.Bytes())},
			Removed: true,
		})
		assert.False(t, ok)
	})
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "Voted", EventVoted.String())
	assert.Equal(t, "VotingPeriodSet", EventVotingPeriodSet.String())
	assert.Equal(t, "Unknown", EventKind(42).String())
}
