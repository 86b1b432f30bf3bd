package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// KeystoreWallet is backed by a go-ethereum encrypted keystore directory.
// Authorization unlocks the selected account with a passphrase from the Prompter.
type KeystoreWallet struct {
	ks        *keystore.KeyStore
	preferred common.Address

	mu      sync.Mutex
	prompt  Prompter
	account *accounts.Account

	feed      event.Feed
	watchOnce sync.Once
	stop      chan struct{}
	closeOnce sync.Once
}

// NewKeystoreWallet opens the keystore at dir. preferred selects an account when
// the keystore holds several; the zero address picks the first one.
func NewKeystoreWallet(dir string, preferred common.Address, prompt Prompter) (*KeystoreWallet, error) {
	if dir == "" {
		return nil, ErrNoWallet
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: keystore %s does not exist", ErrNoWallet, dir)
		}
		return nil, fmt.Errorf("stat keystore %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: keystore %s is not a directory", ErrNoWallet, dir)
	}

	return &KeystoreWallet{
		ks:        keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		preferred: preferred,
		prompt:    prompt,
		stop:      make(chan struct{}),
	}, nil
}

// SetPrompter replaces the passphrase prompter.
func (w *KeystoreWallet) SetPrompter(p Prompter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompt = p
}

// RequestAccount unlocks the selected account.
// A declined prompt or a wrong passphrase is reported as ErrDeclined.
func (w *KeystoreWallet) RequestAccount(ctx context.Context) (common.Address, error) {
	accs := w.ks.Accounts()
	if len(accs) == 0 {
		return common.Address{}, fmt.Errorf("%w: keystore has no accounts", ErrNoWallet)
	}

	acc := accs[0]
	if w.preferred != (common.Address{}) {
		found := false
		for _, a := range accs {
			if a.Address == w.preferred {
				acc, found = a, true
				break
			}
		}
		if !found {
			return common.Address{}, fmt.Errorf("%w: account %s not in keystore", ErrNoWallet, w.preferred.Hex())
		}
	}

	w.mu.Lock()
	prompt := w.prompt
	w.mu.Unlock()
	if prompt == nil {
		return common.Address{}, fmt.Errorf("%w: no passphrase prompter", ErrDeclined)
	}

	pass, err := prompt.Passphrase(ctx, acc.Address)
	if err != nil {
		if errors.Is(err, ErrDeclined) {
			return common.Address{}, err
		}
		return common.Address{}, fmt.Errorf("read passphrase: %w", err)
	}

	if err := w.ks.Unlock(acc, pass); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return common.Address{}, fmt.Errorf("%w: %v", ErrDeclined, err)
		}
		return common.Address{}, fmt.Errorf("unlock %s: %w", acc.Address.Hex(), err)
	}

	w.mu.Lock()
	w.account = &acc
	w.mu.Unlock()
	return acc.Address, nil
}

// Transactor returns keystore-backed signing options for the unlocked account.
func (w *KeystoreWallet) Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	w.mu.Lock()
	acc := w.account
	w.mu.Unlock()
	if acc == nil {
		return nil, ErrNotAuthorized
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(w.ks, *acc, chainID)
	if err != nil {
		return nil, fmt.Errorf("keystore transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Subscribe reports keystore account additions and removals as AccountsChanged.
func (w *KeystoreWallet) Subscribe(sink chan<- Event) event.Subscription {
	sub := w.feed.Subscribe(sink)
	w.watchOnce.Do(func() { go w.watchKeystore() })
	return sub
}

// watchKeystore forwards keystore wallet arrivals and drops until Close.
func (w *KeystoreWallet) watchKeystore() {
	updates := make(chan accounts.WalletEvent, 8)
	sub := w.ks.Subscribe(updates)
	defer sub.Unsubscribe()

	for {
		select {
		case <-w.stop:
			return
		case <-sub.Err():
			return
		case ev := <-updates:
			if ev.Kind != accounts.WalletArrived && ev.Kind != accounts.WalletDropped {
				continue
			}
			accs := w.ks.Accounts()
			addrs := make([]common.Address, 0, len(accs))
			for _, a := range accs {
				addrs = append(addrs, a.Address)
			}
			w.feed.Send(Event{Kind: AccountsChanged, Accounts: addrs})
		}
	}
}

// Close locks the unlocked account and stops watching the keystore.
func (w *KeystoreWallet) Close() error {
	w.closeOnce.Do(func() { close(w.stop) })

	w.mu.Lock()
	acc := w.account
	w.account = nil
	w.mu.Unlock()

	if acc != nil {
		return w.ks.Lock(acc.Address)
	}
	return nil
}
