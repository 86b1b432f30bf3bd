package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// EventSource delivers decoded contract events.
// Both Memory and Watcher implement it.
type EventSource interface {
	SubscribeEvents(sink chan<- Event) event.Subscription
}

// Watcher polls new blocks for Votix logs and publishes them as Events.
// Polling keeps it usable over plain HTTP RPC endpoints.
type Watcher struct {
	backend  Backend
	address  common.Address
	abi      abi.ABI
	interval time.Duration

	feed event.Feed
	next uint64 // first block not yet scanned; 0 until the first poll
}

// NewWatcher creates a watcher for v's contract.
func NewWatcher(v *Votix, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 4 * time.Second
	}
	return &Watcher{
		backend:  v.backend,
		address:  v.address,
		abi:      v.abi,
		interval: interval,
	}
}

// SubscribeEvents delivers every decoded event to sink.
func (w *Watcher) SubscribeEvents(sink chan<- Event) event.Subscription {
	return w.feed.Subscribe(sink)
}

// Run polls until ctx is cancelled. Events mined before the first poll are skipped.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Poll errors are transient; the next tick retries from the same block.
			_ = w.Poll(ctx)
		}
	}
}

// Poll scans blocks mined since the previous poll.
func (w *Watcher) Poll(ctx context.Context) error {
	head, err := w.backend.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}
	if w.next == 0 {
		w.next = head + 1
		return nil
	}
	if head < w.next {
		return nil
	}

	logs, err := w.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(w.next),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{w.address},
	})
	if err != nil {
		return fmt.Errorf("filter logs %d-%d: %w", w.next, head, err)
	}

	for _, lg := range logs {
		ev, ok := w.decode(lg)
		if ok {
			w.feed.Send(ev)
		}
	}
	w.next = head + 1
	return nil
}

// decode converts a raw log into an Event. Unknown or malformed logs are skipped.
func (w *Watcher) decode(lg types.Log) (Event, bool) {
	if len(lg.Topics) == 0 || lg.Removed {
		return Event{}, false
	}

	ev := Event{BlockNumber: lg.BlockNumber, TxHash: lg.TxHash}
	topic := lg.Topics[0]

	switch topic {
	case w.abi.Events["OwnerChanged"].ID:
		if len(lg.Topics) < 3 {
			return Event{}, false
		}
		ev.Kind = EventOwnerChanged
		ev.Voter = common.BytesToAddress(lg.Topics[2].Bytes())

	case w.abi.Events["Voted"].ID:
		if len(lg.Topics) < 2 {
			return Event{}, false
		}
		values, err := w.abi.Unpack("Voted", lg.Data)
		if err != nil || len(values) != 1 {
			return Event{}, false
		}
		ev.Kind = EventVoted
		ev.Voter = common.BytesToAddress(lg.Topics[1].Bytes())
		ev.CandidateID = bigToUint64(*abi.ConvertType(values[0], new(*big.Int)).(**big.Int))

	case w.abi.Events["VoterRegistered"].ID:
		if len(lg.Topics) < 2 {
			return Event{}, false
		}
		ev.Kind = EventVoterRegistered
		ev.Voter = common.BytesToAddress(lg.Topics[1].Bytes())

	case w.abi.Events["VotingPeriodSet"].ID:
		values, err := w.abi.Unpack("VotingPeriodSet", lg.Data)
		if err != nil || len(values) != 2 {
			return Event{}, false
		}
		ev.Kind = EventVotingPeriodSet
		ev.StartTime = bigToUint64(*abi.ConvertType(values[0], new(*big.Int)).(**big.Int))
		ev.EndTime = bigToUint64(*abi.ConvertType(values[1], new(*big.Int)).(**big.Int))

	default:
		return Event{}, false
	}
	return ev, true
}
