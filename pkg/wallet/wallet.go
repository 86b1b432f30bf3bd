// Package wallet provides the account authority used to sign Votix transactions.
//
// A Wallet plays the role a browser-injected provider plays for a web front end:
// it authorizes an account, hands out transaction signers, and reports account
// or network changes through an explicit subscription.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Error types
var (
	// ErrNoWallet is returned when no wallet is configured or it holds no accounts.
	ErrNoWallet = errors.New("no wallet available")
	// ErrDeclined is returned when the user refuses an authorization or signing request.
	ErrDeclined = errors.New("request declined by user")
	// ErrNotAuthorized is returned when a signer is requested before RequestAccount.
	ErrNotAuthorized = errors.New("wallet account not authorized")
)

// EventKind identifies a wallet notification.
type EventKind int

const (
	AccountsChanged EventKind = iota
	ChainChanged
)

// String returns a human-readable representation of the EventKind.
func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "AccountsChanged"
	case ChainChanged:
		return "ChainChanged"
	default:
		return "Unknown"
	}
}

// Event reports an account or network change detected outside the application.
type Event struct {
	Kind     EventKind
	Accounts []common.Address // AccountsChanged: available accounts, empty when all were removed
	ChainID  *big.Int         // ChainChanged: the new chain id
}

// Notifier delivers wallet events until the returned subscription is unsubscribed.
type Notifier interface {
	Subscribe(sink chan<- Event) event.Subscription
}

// Wallet authorizes accounts and signs transactions for them.
type Wallet interface {
	Notifier

	// RequestAccount asks for authorization and returns the active account.
	RequestAccount(ctx context.Context) (common.Address, error)

	// Transactor returns signing options for the authorized account on chainID.
	Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// Prompter asks the user for a passphrase.
// Implementations return ErrDeclined when the user cancels.
type Prompter interface {
	Passphrase(ctx context.Context, account common.Address) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, account common.Address) (string, error)

// Passphrase calls f.
func (f PrompterFunc) Passphrase(ctx context.Context, account common.Address) (string, error) {
	return f(ctx, account)
}
