package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// SimulatedChainID is the chain id reported by a Memory network.
const SimulatedChainID = 1337

// Signer hands out transaction signing options for the authorized account.
type Signer interface {
	Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// Network resolves the active chain and binds the contract for an account.
type Network interface {
	// ChainID returns the id of the chain currently served by the backend.
	ChainID(ctx context.Context) (*big.Int, error)

	// Bind returns a binding whose writes are sent from account and signed by signer.
	Bind(ctx context.Context, account common.Address, chainID *big.Int, signer Signer) (Contract, error)
}

// EthNetwork is a Network backed by a JSON-RPC node.
type EthNetwork struct {
	votix *Votix
}

// NewEthNetwork creates a network for the contract at address.
func NewEthNetwork(address common.Address, backend Backend) (*EthNetwork, error) {
	v, err := NewVotix(address, backend)
	if err != nil {
		return nil, err
	}
	return &EthNetwork{votix: v}, nil
}

// Votix returns the read-only binding.
func (n *EthNetwork) Votix() *Votix {
	return n.votix
}

// ChainID queries the node's chain id.
func (n *EthNetwork) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := n.votix.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	return id, nil
}

// Bind attaches a signer. Deployment is not checked here; the binding is a
// Deployer and the caller verifies it before the first read.
func (n *EthNetwork) Bind(ctx context.Context, account common.Address, chainID *big.Int, signer Signer) (Contract, error) {
	opts, err := signer.Transactor(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if opts.From != account {
		return nil, fmt.Errorf("signer account %s does not match %s", opts.From.Hex(), account.Hex())
	}
	return n.votix.WithTransactor(opts), nil
}

// ChainID reports SimulatedChainID.
func (m *Memory) ChainID(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return big.NewInt(SimulatedChainID), nil
}

// Bind returns a binding that sends transactions from account. The signer is
// not consulted; the simulator trusts the caller's account.
func (m *Memory) Bind(ctx context.Context, account common.Address, _ *big.Int, _ Signer) (Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.As(account), nil
}
