// Package contract binds the Votix voting contract.
//
// The contract is the authority for every election rule: registration, the voting
// period, tallying and double-vote prevention. This package only exposes its fixed
// function and event surface, either against a real chain (Votix) or against an
// in-process simulator (Memory) that enforces the same rules.
package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Error types
var (
	// ErrNoCode is returned when the configured address holds no contract code.
	ErrNoCode = errors.New("no contract code at address")
	// ErrReverted is matched by every RevertError.
	ErrReverted = errors.New("execution reverted")
	// ErrTxFailed is returned when a mined transaction has a failed receipt status.
	ErrTxFailed = errors.New("transaction failed")
	// ErrReadOnly is returned when a write is attempted without a transactor.
	ErrReadOnly = errors.New("contract binding has no transactor")
)

// RevertError carries the revert reason reported by the contract.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrReverted.Error()
	}
	return ErrReverted.Error() + ": " + e.Reason
}

// Unwrap returns the underlying transport error, if any.
func (e *RevertError) Unwrap() error { return e.Err }

// Is reports whether target is ErrReverted.
func (e *RevertError) Is(target error) bool { return target == ErrReverted }

// TxError wraps a failure tied to a specific transaction hash.
type TxError struct {
	Hash common.Hash
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("tx %s: %v", e.Hash.Hex(), e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// CandidateRecord is one entry of getCandidates().
type CandidateRecord struct {
	ID        uint64
	Name      string
	VoteCount uint64
}

// Receipt summarizes a mined transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// Reader is the read-only surface of the contract.
type Reader interface {
	Owner(ctx context.Context) (common.Address, error)
	GetCandidates(ctx context.Context) ([]CandidateRecord, error)
	VotingStarted(ctx context.Context) (bool, error)
	VotingEnded(ctx context.Context) (bool, error)
	VotingEndTime(ctx context.Context) (uint64, error)
	IsRegistered(ctx context.Context, voter common.Address) (bool, error)
	HasVoted(ctx context.Context, voter common.Address) (bool, error)
}

// Writer is the state-changing surface of the contract.
// Every method sends exactly one transaction and blocks until it is mined.
type Writer interface {
	RegisterVoter(ctx context.Context, voter common.Address) (*Receipt, error)
	AddCandidate(ctx context.Context, name string) (*Receipt, error)
	SetVotingPeriod(ctx context.Context, minutes uint64) (*Receipt, error)
	StartVoting(ctx context.Context) (*Receipt, error)
	EndVoting(ctx context.Context) (*Receipt, error)
	CastVote(ctx context.Context, candidateID uint64) (*Receipt, error)
}

// Contract is a binding usable for both reads and writes.
type Contract interface {
	Reader
	Writer
}

// Deployer is implemented by bindings that can verify the contract is deployed.
type Deployer interface {
	EnsureDeployed(ctx context.Context) error
}

// EventKind identifies one of the contract's events.
type EventKind int

const (
	EventOwnerChanged EventKind = iota
	EventVoted
	EventVoterRegistered
	EventVotingPeriodSet
)

// String returns the Solidity event name.
func (k EventKind) String() string {
	switch k {
	case EventOwnerChanged:
		return "OwnerChanged"
	case EventVoted:
		return "Voted"
	case EventVoterRegistered:
		return "VoterRegistered"
	case EventVotingPeriodSet:
		return "VotingPeriodSet"
	default:
		return "Unknown"
	}
}

// Event is a decoded contract log.
type Event struct {
	Kind        EventKind
	BlockNumber uint64
	TxHash      common.Hash
	// Voter is set for Voted and VoterRegistered; the new owner for OwnerChanged.
	Voter       common.Address
	CandidateID uint64
	StartTime   uint64
	EndTime     uint64
}
