package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

// KeyWallet signs with a single raw private key. Intended for development chains.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	feed    event.Feed
}

// NewKeyWallet parses a hex-encoded secp256k1 private key, with or without 0x.
func NewKeyWallet(hexKey string) (*KeyWallet, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, ErrNoWallet
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewKeyWalletFromKey(key), nil
}

// NewKeyWalletFromKey wraps an existing private key.
func NewKeyWalletFromKey(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the wallet's only account.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

// RequestAccount returns the key's address. No user interaction is involved.
func (w *KeyWallet) RequestAccount(ctx context.Context) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	return w.address, nil
}

// Transactor returns keyed signing options for chainID.
func (w *KeyWallet) Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("keyed transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Subscribe registers sink for wallet events. A raw key never changes accounts,
// so events only arrive through SwitchKey.
func (w *KeyWallet) Subscribe(sink chan<- Event) event.Subscription {
	return w.feed.Subscribe(sink)
}

// SwitchKey replaces the signing key and announces the new account.
func (w *KeyWallet) SwitchKey(key *ecdsa.PrivateKey) {
	w.key = key
	w.address = crypto.PubkeyToAddress(key.PublicKey)
	w.feed.Send(Event{Kind: AccountsChanged, Accounts: []common.Address{w.address}})
}
