package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the chain access the binding needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Votix is a go-ethereum binding to a deployed Votix contract.
type Votix struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	bound   *bind.BoundContract
	opts    *bind.TransactOpts
}

// NewVotix creates a read-only binding at address.
// Use WithTransactor to obtain a binding that can send transactions.
func NewVotix(address common.Address, backend Backend) (*Votix, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	return &Votix{
		address: address,
		abi:     parsed,
		backend: backend,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (v *Votix) Address() common.Address {
	return v.address
}

// WithTransactor returns a copy of the binding that signs writes with opts.
func (v *Votix) WithTransactor(opts *bind.TransactOpts) *Votix {
	clone := *v
	clone.opts = opts
	return &clone
}

// EnsureDeployed checks that code exists at the contract address.
func (v *Votix) EnsureDeployed(ctx context.Context) error {
	code, err := v.backend.CodeAt(ctx, v.address, nil)
	if err != nil {
		return fmt.Errorf("read code at %s: %w", v.address.Hex(), err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%w: %s", ErrNoCode, v.address.Hex())
	}
	return nil
}

func (v *Votix) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := v.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, classify(err))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}
	return out, nil
}

func (v *Votix) callBool(ctx context.Context, method string, params ...interface{}) (bool, error) {
	out, err := v.call(ctx, method, params...)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (v *Votix) callUint(ctx context.Context, method string) (uint64, error) {
	out, err := v.call(ctx, method)
	if err != nil {
		return 0, err
	}
	n := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if n == nil {
		return 0, nil
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("call %s: value %s overflows uint64", method, n)
	}
	return n.Uint64(), nil
}

// Owner returns the contract owner (the election admin).
func (v *Votix) Owner(ctx context.Context) (common.Address, error) {
	out, err := v.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// candidateTuple mirrors the Candidate struct tuple; field names must match
// the ABI component names for abi.ConvertType.
type candidateTuple struct {
	Id        *big.Int
	Name      string
	VoteCount *big.Int
}

// GetCandidates returns all candidates in contract order.
func (v *Votix) GetCandidates(ctx context.Context) ([]CandidateRecord, error) {
	out, err := v.call(ctx, "getCandidates")
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]candidateTuple)).(*[]candidateTuple)
	records := make([]CandidateRecord, 0, len(raw))
	for _, c := range raw {
		records = append(records, CandidateRecord{
			ID:        bigToUint64(c.Id),
			Name:      c.Name,
			VoteCount: bigToUint64(c.VoteCount),
		})
	}
	return records, nil
}

// VotingStarted reports whether startVoting has been called.
func (v *Votix) VotingStarted(ctx context.Context) (bool, error) {
	return v.callBool(ctx, "votingStarted")
}

// VotingEnded reports whether endVoting has been called.
func (v *Votix) VotingEnded(ctx context.Context) (bool, error) {
	return v.callBool(ctx, "votingEnded")
}

// VotingEndTime returns the end of the voting period in epoch seconds.
func (v *Votix) VotingEndTime(ctx context.Context) (uint64, error) {
	return v.callUint(ctx, "votingEndTime")
}

// IsRegistered reports whether voter may vote.
func (v *Votix) IsRegistered(ctx context.Context, voter common.Address) (bool, error) {
	return v.callBool(ctx, "isRegistered", voter)
}

// HasVoted reports whether voter has already cast a vote.
func (v *Votix) HasVoted(ctx context.Context, voter common.Address) (bool, error) {
	return v.callBool(ctx, "hasVoted", voter)
}

// RegisterVoter registers voter. Admin only.
func (v *Votix) RegisterVoter(ctx context.Context, voter common.Address) (*Receipt, error) {
	return v.transact(ctx, "registerVoter", voter)
}

// AddCandidate adds a candidate. Admin only.
func (v *Votix) AddCandidate(ctx context.Context, name string) (*Receipt, error) {
	return v.transact(ctx, "addCandidate", name)
}

// SetVotingPeriod sets the voting duration in minutes. Admin only.
func (v *Votix) SetVotingPeriod(ctx context.Context, minutes uint64) (*Receipt, error) {
	return v.transact(ctx, "setVotingPeriod", new(big.Int).SetUint64(minutes))
}

// StartVoting opens the voting period. Admin only.
func (v *Votix) StartVoting(ctx context.Context) (*Receipt, error) {
	return v.transact(ctx, "startVoting")
}

// EndVoting closes the voting period. Admin only.
func (v *Votix) EndVoting(ctx context.Context) (*Receipt, error) {
	return v.transact(ctx, "endVoting")
}

// CastVote votes for candidateID as the transactor's account.
func (v *Votix) CastVote(ctx context.Context, candidateID uint64) (*Receipt, error) {
	return v.transact(ctx, "castVote", new(big.Int).SetUint64(candidateID))
}

// transact sends one transaction and waits until it is mined.
// There is no timeout beyond what ctx and the transport impose.
func (v *Votix) transact(ctx context.Context, method string, params ...interface{}) (*Receipt, error) {
	if v.opts == nil {
		return nil, ErrReadOnly
	}
	opts := *v.opts
	opts.Context = ctx

	tx, err := v.bound.Transact(&opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, classify(err))
	}

	receipt, err := bind.WaitMined(ctx, v.backend, tx)
	if err != nil {
		return nil, &TxError{Hash: tx.Hash(), Err: fmt.Errorf("wait mined: %w", err)}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &TxError{Hash: tx.Hash(), Err: ErrTxFailed}
	}

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	return &Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: block,
		GasUsed:     receipt.GasUsed,
	}, nil
}

// classify maps transport errors onto the package's error types.
// A structured revert payload is preferred over the textual message.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bind.ErrNoCode) {
		return fmt.Errorf("%w: %v", ErrNoCode, err)
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(hexData); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return &RevertError{Reason: reason, Err: err}
				}
			}
		}
	}

	return parseRevertMessage(err)
}

// parseRevertMessage extracts "X" from messages like "execution reverted: X".
func parseRevertMessage(err error) error {
	msg := err.Error()
	idx := strings.Index(msg, ErrReverted.Error())
	if idx < 0 {
		return err
	}
	reason := strings.TrimSpace(msg[idx+len(ErrReverted.Error()):])
	reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
	return &RevertError{Reason: reason, Err: err}
}

func bigToUint64(n *big.Int) uint64 {
	if n == nil || !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}
