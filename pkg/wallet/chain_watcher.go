package wallet

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
)

// ChainIDSource reports the chain id served by a node.
type ChainIDSource interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ChainWatcher polls a node and emits ChainChanged when its chain id changes.
type ChainWatcher struct {
	source   ChainIDSource
	interval time.Duration

	mu   sync.Mutex
	last *big.Int
	feed event.Feed
}

// NewChainWatcher creates a watcher polling source every interval.
func NewChainWatcher(source ChainIDSource, interval time.Duration) *ChainWatcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ChainWatcher{source: source, interval: interval}
}

// Subscribe registers sink for ChainChanged events.
func (w *ChainWatcher) Subscribe(sink chan<- Event) event.Subscription {
	return w.feed.Subscribe(sink)
}

// Run polls until ctx is cancelled.
func (w *ChainWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _ = w.Check(ctx)
		}
	}
}

// Check reads the chain id once. It reports true and emits an event when the id
// differs from the previous observation. The first observation only records.
func (w *ChainWatcher) Check(ctx context.Context) (bool, error) {
	id, err := w.source.ChainID(ctx)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	prev := w.last
	w.last = new(big.Int).Set(id)
	w.mu.Unlock()

	if prev == nil || prev.Cmp(id) == 0 {
		return false, nil
	}
	w.feed.Send(Event{Kind: ChainChanged, ChainID: new(big.Int).Set(id)})
	return true, nil
}
