package election

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/salahayoub/votix/pkg/contract"
	"github.com/salahayoub/votix/pkg/wallet"
)

// Kind classifies an election error.
type Kind int

const (
	KindUnknown Kind = iota
	KindWalletUnavailable
	KindUserRejected
	KindWrongNetwork
	KindContractUnreachable
	KindTransactionFailed
	KindLocalEligibility
	KindInvalidInput
	KindReadFailed
	KindNotConnected
	KindBusy
)

// Sentinel errors, one per Kind. Every *Error matches its kind's sentinel with errors.Is.
var (
	ErrWalletUnavailable         = errors.New("wallet unavailable")
	ErrUserRejected              = errors.New("request rejected by user")
	ErrWrongNetwork              = errors.New("wrong network")
	ErrContractUnreachable       = errors.New("contract unreachable")
	ErrTransactionFailed         = errors.New("transaction failed")
	ErrLocalEligibilityViolation = errors.New("not eligible to vote")
	ErrInvalidInput              = errors.New("invalid input")
	ErrReadFailed                = errors.New("failed to read contract state")
	ErrNotConnected              = errors.New("wallet not connected")
	ErrSubmissionInFlight        = errors.New("a submission is already in flight")
)

var kindSentinels = map[Kind]error{
	KindWalletUnavailable:   ErrWalletUnavailable,
	KindUserRejected:        ErrUserRejected,
	KindWrongNetwork:        ErrWrongNetwork,
	KindContractUnreachable: ErrContractUnreachable,
	KindTransactionFailed:   ErrTransactionFailed,
	KindLocalEligibility:    ErrLocalEligibilityViolation,
	KindInvalidInput:        ErrInvalidInput,
	KindReadFailed:          ErrReadFailed,
	KindNotConnected:        ErrNotConnected,
	KindBusy:                ErrSubmissionInFlight,
}

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindWalletUnavailable:
		return "WalletUnavailable"
	case KindUserRejected:
		return "UserRejected"
	case KindWrongNetwork:
		return "WrongNetwork"
	case KindContractUnreachable:
		return "ContractUnreachable"
	case KindTransactionFailed:
		return "TransactionFailed"
	case KindLocalEligibility:
		return "LocalEligibilityViolation"
	case KindInvalidInput:
		return "InvalidInput"
	case KindReadFailed:
		return "ReadFailed"
	case KindNotConnected:
		return "NotConnected"
	case KindBusy:
		return "Busy"
	default:
		return "Unknown"
	}
}

// Error is the structured error returned by view-model operations.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "connect" or "castVote"
	Err  error  // underlying cause; may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if s, ok := kindSentinels[e.Kind]; ok {
		b.WriteString(s.Error())
	} else {
		b.WriteString("error")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the first *Error in err's chain, or of a bare
// sentinel.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// classify maps lower-layer errors onto a Kind. fallback is used when nothing
// more specific applies.
func classify(op string, err error, fallback Kind) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	kind := fallback
	switch {
	case errors.Is(err, wallet.ErrNoWallet), errors.Is(err, wallet.ErrNotAuthorized):
		kind = KindWalletUnavailable
	case errors.Is(err, wallet.ErrDeclined), isUserRejection(err):
		kind = KindUserRejected
	case errors.Is(err, contract.ErrNoCode):
		kind = KindContractUnreachable
	case errors.Is(err, contract.ErrReverted), errors.Is(err, contract.ErrTxFailed):
		kind = KindTransactionFailed
	}
	return newError(kind, op, err)
}

// isUserRejection recognizes signer rejections reported as plain text by
// external signers (EIP-1193 code 4001 wording).
func isUserRejection(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

// Message returns the text shown to the user for err. A contract revert reason
// is preferred over generic wording.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var rerr *contract.RevertError
	if errors.As(err, &rerr) && rerr.Reason != "" {
		return "Transaction failed: " + rerr.Reason
	}

	switch KindOf(err) {
	case KindWalletUnavailable:
		return "No wallet found. Configure a keystore or private key."
	case KindUserRejected:
		return "Request was rejected in the wallet."
	case KindContractUnreachable:
		return "Contract not found. Check address and network."
	case KindReadFailed:
		return "Failed to load data from the blockchain."
	case KindLocalEligibility:
		return eligibilityMessage
	case KindNotConnected:
		return "Connect your wallet first."
	case KindBusy:
		return "Please wait for the current transaction to finish."
	case KindInvalidInput:
		var e *Error
		if errors.As(err, &e) && e.Err != nil {
			return fmt.Sprintf("Invalid input: %v", e.Err)
		}
		return "Invalid input."
	case KindTransactionFailed:
		var txErr *contract.TxError
		if errors.As(err, &txErr) {
			return fmt.Sprintf("Transaction %s failed.", shortHash(txErr.Hash.Hex()))
		}
		return "Transaction failed."
	}
	return "An unexpected error occurred."
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:6] + "…" + h[len(h)-4:]
}
