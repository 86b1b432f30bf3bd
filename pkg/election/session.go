package election

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/salahayoub/votix/pkg/contract"
	"github.com/sirupsen/logrus"
)

// SepoliaChainID is the chain the deployed contract lives on.
const SepoliaChainID = 11155111

// Session is an authorized account bound to the contract on one chain.
type Session struct {
	Account      common.Address
	ChainID      *big.Int
	WrongNetwork bool

	contract contract.Contract
	deployed atomic.Bool
}

func wrongNetworkMessage(expected *big.Int) string {
	if expected.Cmp(big.NewInt(SepoliaChainID)) == 0 {
		return "Please switch to the Sepolia test network."
	}
	return fmt.Sprintf("Please switch to the network with chain id %s.", expected)
}

// Connect authorizes an account with the wallet and binds the contract for it.
// A chain id different from the expected one produces a warning but still
// establishes the session. Whether the contract is deployed is first checked
// by Refresh, so a wrong network never prevents connecting.
func (vm *ViewModel) Connect(ctx context.Context) (*Session, error) {
	const op = "connect"

	if vm.opts.Wallet == nil {
		return nil, vm.fail(newError(KindWalletUnavailable, op, nil))
	}

	account, err := vm.opts.Wallet.RequestAccount(ctx)
	if err != nil {
		return nil, vm.fail(classify(op, err, KindWalletUnavailable))
	}

	chainID, err := vm.opts.Network.ChainID(ctx)
	if err != nil {
		return nil, vm.fail(classify(op, err, KindReadFailed))
	}

	expected := vm.opts.ExpectedChainID
	wrong := expected != nil && chainID.Cmp(expected) != 0

	log := vm.log.WithFields(logrus.Fields{"account": account.Hex(), "chain_id": chainID.String()})
	if wrong {
		log.WithField("expected_chain_id", expected.String()).Warn("connected to unexpected network")
		vm.notify(NoticeWarning, wrongNetworkMessage(expected))
	}

	binding, err := vm.opts.Network.Bind(ctx, account, chainID, vm.opts.Wallet)
	if err != nil {
		return nil, vm.fail(classify(op, err, KindReadFailed))
	}

	s := vm.install(account, chainID, wrong, binding)
	if !wrong {
		log.Info("wallet connected")
		vm.notify(NoticeSuccess, "Wallet connected successfully!")
	}

	vm.startWatching()
	return s, nil
}

// install replaces the session. The previous snapshot belongs to the old
// account and is discarded.
func (vm *ViewModel) install(account common.Address, chainID *big.Int, wrong bool, binding contract.Contract) *Session {
	vm.mu.Lock()
	s := &Session{
		Account:      account,
		ChainID:      chainID,
		WrongNetwork: wrong,
		contract:     binding,
	}
	vm.session = s
	vm.snapshot = nil
	vm.mu.Unlock()

	vm.signal()
	return s
}

// ensureDeployed verifies the contract once per session before its first read.
func (s *Session) ensureDeployed(ctx context.Context) error {
	d, ok := s.contract.(contract.Deployer)
	if !ok || s.deployed.Load() {
		return nil
	}
	if err := d.EnsureDeployed(ctx); err != nil {
		return err
	}
	s.deployed.Store(true)
	return nil
}

// dropSession forgets the session and its snapshot.
func (vm *ViewModel) dropSession() {
	vm.mu.Lock()
	vm.session = nil
	vm.snapshot = nil
	vm.mu.Unlock()

	vm.signal()
}
