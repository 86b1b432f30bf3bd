package contract

import (
	"context"
	"encoding/binary"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

// Revert reasons reported by the simulator. They follow the deployed contract.
const (
	ReasonOnlyOwner         = "Only the owner can perform this action"
	ReasonAlreadyRegistered = "Voter is already registered"
	ReasonNotRegistered     = "You are not registered to vote"
	ReasonAlreadyVoted      = "You have already voted"
	ReasonVotingNotActive   = "Voting is not active"
	ReasonVotingClosed      = "Voting period has ended"
	ReasonInvalidCandidate  = "Invalid candidate ID"
	ReasonAlreadyStarted    = "Voting has already started"
	ReasonNotStarted        = "Voting has not started"
	ReasonAlreadyEnded      = "Voting has already ended"
	ReasonPeriodNotSet      = "Voting period not set"
	ReasonEmptyName         = "Candidate name cannot be empty"
	ReasonZeroAddress       = "Invalid voter address"
)

// Memory is an in-process simulation of the Votix contract.
//
// Memory is safe for concurrent use by multiple goroutines. A sync.RWMutex
// protects all state:
//
//   - Reads acquire a read lock and may run concurrently
//   - Writes acquire the write lock, so transactions are applied one at a time
//     and each one is "mined" in its own block
type Memory struct {
	mu sync.RWMutex

	owner       common.Address
	candidates  []CandidateRecord
	registered  map[common.Address]bool
	voted       map[common.Address]bool
	started     bool
	ended       bool
	duration    uint64 // minutes
	startTime   uint64
	endTime     uint64
	blockNumber uint64

	now  func() time.Time
	feed event.Feed
}

// NewMemory creates a simulated contract deployed by owner.
func NewMemory(owner common.Address) *Memory {
	return &Memory{
		owner:      owner,
		registered: make(map[common.Address]bool),
		voted:      make(map[common.Address]bool),
		now:        time.Now,
	}
}

// SetClock overrides the time source used for the voting period.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// BlockNumber returns the number of the last simulated block.
func (m *Memory) BlockNumber() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blockNumber
}

// SubscribeEvents delivers every emitted event to sink.
func (m *Memory) SubscribeEvents(sink chan<- Event) event.Subscription {
	return m.feed.Subscribe(sink)
}

// As returns a binding that sends transactions from the given account.
func (m *Memory) As(from common.Address) Contract {
	return &memoryBinding{chain: m, from: from}
}

// ============================================================================
// Reads
// ============================================================================

func (m *Memory) readOwner(ctx context.Context) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner, nil
}

func (m *Memory) readCandidates(ctx context.Context) ([]CandidateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CandidateRecord, len(m.candidates))
	copy(out, m.candidates)
	return out, nil
}

func (m *Memory) readFlags(ctx context.Context) (started, ended bool, endTime uint64, err error) {
	if err := ctx.Err(); err != nil {
		return false, false, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started, m.ended, m.endTime, nil
}

func (m *Memory) readVoter(ctx context.Context, voter common.Address) (registered, voted bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered[voter], m.voted[voter], nil
}

// ============================================================================
// Writes
// ============================================================================

// mine applies fn under the write lock as a single transaction from sender.
// fn must run every check before mutating state; a non-empty reason reverts.
func (m *Memory) mine(ctx context.Context, from common.Address, method string, fn func(now uint64) (string, []Event)) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	reason, events := fn(uint64(m.now().Unix()))
	if reason != "" {
		m.mu.Unlock()
		return nil, &RevertError{Reason: reason}
	}
	m.blockNumber++
	block := m.blockNumber
	m.mu.Unlock()

	hash := simulatedTxHash(block, from, method)
	for _, ev := range events {
		ev.BlockNumber = block
		ev.TxHash = hash
		m.feed.Send(ev)
	}

	return &Receipt{TxHash: hash, BlockNumber: block, GasUsed: 21000}, nil
}

func (m *Memory) registerVoter(ctx context.Context, from, voter common.Address) (*Receipt, error) {
	return m.mine(ctx, from, "registerVoter", func(uint64) (string, []Event) {
		if from != m.owner {
			return ReasonOnlyOwner, nil
		}
		if voter == (common.Address{}) {
			return ReasonZeroAddress, nil
		}
		if m.registered[voter] {
			return ReasonAlreadyRegistered, nil
		}
		m.registered[voter] = true
		return "", []Event{{Kind: EventVoterRegistered, Voter: voter}}
	})
}

func (m *Memory) addCandidate(ctx context.Context, from common.Address, name string) (*Receipt, error) {
	return m.mine(ctx, from, "addCandidate", func(uint64) (string, []Event) {
		if from != m.owner {
			return ReasonOnlyOwner, nil
		}
		if strings.TrimSpace(name) == "" {
			return ReasonEmptyName, nil
		}
		if m.started {
			return ReasonAlreadyStarted, nil
		}
		id := uint64(len(m.candidates)) + 1
		m.candidates = append(m.candidates, CandidateRecord{ID: id, Name: name})
		return "", nil
	})
}

func (m *Memory) setVotingPeriod(ctx context.Context, from common.Address, minutes uint64) (*Receipt, error) {
	return m.mine(ctx, from, "setVotingPeriod", func(uint64) (string, []Event) {
		if from != m.owner {
			return ReasonOnlyOwner, nil
		}
		if m.started {
			return ReasonAlreadyStarted, nil
		}
		m.duration = minutes
		return "", nil
	})
}

func (m *Memory) startVoting(ctx context.Context, from common.Address) (*Receipt, error) {
	return m.mine(ctx, from, "startVoting", func(now uint64) (string, []Event) {
		if from != m.owner {
			return ReasonOnlyOwner, nil
		}
		if m.started {
			return ReasonAlreadyStarted, nil
		}
		if m.duration == 0 {
			return ReasonPeriodNotSet, nil
		}
		m.started = true
		m.startTime = now
		m.endTime = now + m.duration*60
		return "", []Event{{Kind: EventVotingPeriodSet, StartTime: m.startTime, EndTime: m.endTime}}
	})
}

func (m *Memory) endVoting(ctx context.Context, from common.Address) (*Receipt, error) {
	return m.mine(ctx, from, "endVoting", func(uint64) (string, []Event) {
		if from != m.owner {
			return ReasonOnlyOwner, nil
		}
		if !m.started {
			return ReasonNotStarted, nil
		}
		if m.ended {
			return ReasonAlreadyEnded, nil
		}
		m.ended = true
		return "", nil
	})
}

func (m *Memory) castVote(ctx context.Context, from common.Address, candidateID uint64) (*Receipt, error) {
	return m.mine(ctx, from, "castVote", func(now uint64) (string, []Event) {
		if !m.registered[from] {
			return ReasonNotRegistered, nil
		}
		if m.voted[from] {
			return ReasonAlreadyVoted, nil
		}
		if !m.started || m.ended {
			return ReasonVotingNotActive, nil
		}
		if now > m.endTime {
			return ReasonVotingClosed, nil
		}
		if candidateID == 0 || candidateID > uint64(len(m.candidates)) {
			return ReasonInvalidCandidate, nil
		}
		m.candidates[candidateID-1].VoteCount++
		m.voted[from] = true
		return "", []Event{{Kind: EventVoted, Voter: from, CandidateID: candidateID}}
	})
}

// simulatedTxHash derives a deterministic hash for a simulated transaction.
func simulatedTxHash(block uint64, from common.Address, method string) common.Hash {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], block)
	return crypto.Keccak256Hash(num[:], from.Bytes(), []byte(method))
}

// memoryBinding adapts Memory to Contract for a fixed sender.
type memoryBinding struct {
	chain *Memory
	from  common.Address
}

func (b *memoryBinding) Owner(ctx context.Context) (common.Address, error) {
	return b.chain.readOwner(ctx)
}

func (b *memoryBinding) GetCandidates(ctx context.Context) ([]CandidateRecord, error) {
	return b.chain.readCandidates(ctx)
}

func (b *memoryBinding) VotingStarted(ctx context.Context) (bool, error) {
	started, _, _, err := b.chain.readFlags(ctx)
	return started, err
}

func (b *memoryBinding) VotingEnded(ctx context.Context) (bool, error) {
	_, ended, _, err := b.chain.readFlags(ctx)
	return ended, err
}

func (b *memoryBinding) VotingEndTime(ctx context.Context) (uint64, error) {
	_, _, endTime, err := b.chain.readFlags(ctx)
	return endTime, err
}

func (b *memoryBinding) IsRegistered(ctx context.Context, voter common.Address) (bool, error) {
	registered, _, err := b.chain.readVoter(ctx, voter)
	return registered, err
}

func (b *memoryBinding) HasVoted(ctx context.Context, voter common.Address) (bool, error) {
	_, voted, err := b.chain.readVoter(ctx, voter)
	return voted, err
}

func (b *memoryBinding) RegisterVoter(ctx context.Context, voter common.Address) (*Receipt, error) {
	return b.chain.registerVoter(ctx, b.from, voter)
}

func (b *memoryBinding) AddCandidate(ctx context.Context, name string) (*Receipt, error) {
	return b.chain.addCandidate(ctx, b.from, name)
}

func (b *memoryBinding) SetVotingPeriod(ctx context.Context, minutes uint64) (*Receipt, error) {
	return b.chain.setVotingPeriod(ctx, b.from, minutes)
}

func (b *memoryBinding) StartVoting(ctx context.Context) (*Receipt, error) {
	return b.chain.startVoting(ctx, b.from)
}

func (b *memoryBinding) EndVoting(ctx context.Context) (*Receipt, error) {
	return b.chain.endVoting(ctx, b.from)
}

func (b *memoryBinding) CastVote(ctx context.Context, candidateID uint64) (*Receipt, error) {
	return b.chain.castVote(ctx, b.from, candidateID)
}
