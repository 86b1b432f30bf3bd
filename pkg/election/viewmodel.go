// Package election holds the client-side view of a Votix election.
//
// A ViewModel owns at most one Session (an authorized account bound to the
// contract) and the latest Snapshot read for it. Snapshots are immutable and are
// replaced wholesale by Refresh. Every state change goes through Submit, which
// sends exactly one transaction and refreshes once it is mined; nothing is
// applied to the snapshot optimistically.
//
// # Concurrency
//
// ViewModel is safe for concurrent use. Refreshes may overlap: each produces an
// independent snapshot and the most recently started refresh that completes is
// kept, so a slow read never overwrites a newer one. At most one submission is
// in flight at a time.
package election

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/salahayoub/votix/pkg/contract"
	"github.com/salahayoub/votix/pkg/logging"
	"github.com/salahayoub/votix/pkg/profile"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Phase is the action lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfirming
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseConfirming:
		return "Confirming"
	case PhaseSubmitting:
		return "Submitting"
	default:
		return "Idle"
	}
}

// Options configure a ViewModel. Wallet and Network are required.
type Options struct {
	Wallet  wallet.Wallet
	Network contract.Network

	// ExpectedChainID triggers a WrongNetwork warning on mismatch. Nil disables the check.
	ExpectedChainID *big.Int

	// Profiles enriches candidates with slogans and images. Nil uses defaults only.
	Profiles profile.Catalog

	// Notifiers are extra wallet event sources, e.g. a wallet.ChainWatcher.
	Notifiers []wallet.Notifier

	// Events, when set, triggers a refresh for every contract event not caused
	// by this view-model's own submission.
	Events contract.EventSource

	NotificationTTL time.Duration
	EventTimeout    time.Duration
	Logger          logrus.FieldLogger
	Clock           func() time.Time
}

// ViewModel is the election state container described in the package doc.
type ViewModel struct {
	opts Options
	log  logrus.FieldLogger

	mu         sync.RWMutex
	session    *Session
	snapshot   *Snapshot
	phase      Phase
	pending    *PendingAction
	notice     *Notification
	refreshSeq uint64 // last started refresh
	appliedSeq uint64 // refresh that produced snapshot
	lastTx     common.Hash

	updates chan struct{}

	scope          event.SubscriptionScope
	walletEvents   chan wallet.Event
	contractEvents chan contract.Event
	watchOnce      sync.Once
	quit           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

// New creates a disconnected ViewModel.
func New(opts Options) *ViewModel {
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = DefaultNotificationTTL
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 2 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logging.Log
	}

	return &ViewModel{
		opts:    opts,
		log:     log.WithField("component", "election"),
		updates: make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
}

// Updates signals after any observable state change. Signals coalesce, so a
// consumer should re-read all state on each receive.
func (vm *ViewModel) Updates() <-chan struct{} {
	return vm.updates
}

func (vm *ViewModel) signal() {
	select {
	case vm.updates <- struct{}{}:
	default:
	}
}

// Session returns the current session, or nil when disconnected.
func (vm *ViewModel) Session() *Session {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.session
}

// Snapshot returns the latest snapshot, or nil before the first refresh.
func (vm *ViewModel) Snapshot() *Snapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.snapshot
}

// Phase returns the lifecycle state.
func (vm *ViewModel) Phase() Phase {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.phase
}

// Pending returns the action being confirmed or submitted.
func (vm *ViewModel) Pending() *PendingAction {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.pending
}

// Notification returns the latest unexpired notification.
func (vm *ViewModel) Notification() (Notification, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.notice == nil || vm.notice.Expired(vm.opts.Clock(), vm.opts.NotificationTTL) {
		return Notification{}, false
	}
	return *vm.notice, true
}

// DismissNotification hides the current notification.
func (vm *ViewModel) DismissNotification() {
	vm.mu.Lock()
	vm.notice = nil
	vm.mu.Unlock()
	vm.signal()
}

func (vm *ViewModel) notify(kind NoticeKind, msg string) {
	vm.mu.Lock()
	vm.notice = &Notification{Kind: kind, Message: msg, CreatedAt: vm.opts.Clock()}
	vm.mu.Unlock()
	vm.signal()
}

// fail logs e, shows it as an error notification and returns it.
func (vm *ViewModel) fail(e *Error) error {
	entry := vm.log.WithFields(logrus.Fields{"op": e.Op, "kind": e.Kind.String()})
	if e.Err != nil {
		entry = entry.WithError(e.Err)
	}
	entry.Error("operation failed")
	vm.notify(NoticeError, Message(e))
	return e
}

// ============================================================================
// Refresh
// ============================================================================

// Refresh reads the election state for the current session and replaces the
// snapshot. On failure the previous snapshot is kept.
func (vm *ViewModel) Refresh(ctx context.Context) (*Snapshot, error) {
	const op = "refresh"

	vm.mu.Lock()
	s := vm.session
	if s == nil {
		vm.mu.Unlock()
		return nil, newError(KindNotConnected, op, nil)
	}
	vm.refreshSeq++
	seq := vm.refreshSeq
	vm.mu.Unlock()

	snap, err := vm.read(ctx, s)
	if err != nil {
		vm.mu.RLock()
		superseded := vm.session != s || seq < vm.appliedSeq
		vm.mu.RUnlock()
		if superseded {
			vm.log.WithError(err).WithField("seq", seq).Debug("ignoring failure of superseded refresh")
			return nil, classify(op, err, KindReadFailed)
		}
		return nil, vm.fail(classify(op, err, KindReadFailed))
	}

	vm.mu.Lock()
	switch {
	case vm.session != s:
		vm.mu.Unlock()
		vm.log.WithField("account", s.Account.Hex()).Debug("discarding refresh for previous session")
		return snap, nil
	case seq < vm.appliedSeq:
		vm.mu.Unlock()
		vm.log.WithField("seq", seq).Debug("discarding superseded refresh")
		return snap, nil
	}
	vm.snapshot = snap
	vm.appliedSeq = seq
	vm.mu.Unlock()

	vm.signal()
	vm.log.WithFields(logrus.Fields{
		"candidates": len(snap.Candidates),
		"status":     snap.Status.String(),
	}).Debug("snapshot refreshed")
	return snap, nil
}

// read performs all contract reads concurrently, after checking the contract
// is deployed on the session's first read.
func (vm *ViewModel) read(ctx context.Context, s *Session) (*Snapshot, error) {
	if err := s.ensureDeployed(ctx); err != nil {
		return nil, err
	}

	var (
		owner             common.Address
		records           []contract.CandidateRecord
		started, ended    bool
		endTime           uint64
		registered, voted bool
	)
	c := s.contract
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { owner, err = c.Owner(gctx); return })
	g.Go(func() (err error) { records, err = c.GetCandidates(gctx); return })
	g.Go(func() (err error) { started, err = c.VotingStarted(gctx); return })
	g.Go(func() (err error) { ended, err = c.VotingEnded(gctx); return })
	g.Go(func() (err error) { endTime, err = c.VotingEndTime(gctx); return })
	g.Go(func() (err error) { registered, err = c.IsRegistered(gctx, s.Account); return })
	g.Go(func() (err error) { voted, err = c.HasVoted(gctx, s.Account); return })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(records))
	for _, r := range records {
		p := profile.Resolve(vm.opts.Profiles, r.Name)
		candidates = append(candidates, Candidate{
			ID:        r.ID,
			Name:      r.Name,
			VoteCount: r.VoteCount,
			Slogan:    p.Slogan,
			ImageURL:  p.ImageURL,
		})
	}

	return &Snapshot{
		Account:       s.Account,
		Candidates:    candidates,
		Status:        DeriveStatus(started, ended),
		VotingEndTime: endTime,
		CallerIsAdmin: owner == s.Account,
		Voter:         VoterStatus{IsRegistered: registered, HasVoted: voted},
		FetchedAt:     vm.opts.Clock(),
	}, nil
}

// ============================================================================
// Actions
// ============================================================================

// ProposeVote builds a vote from the current snapshot and enters Confirming.
// An ineligible voter gets an error notification and nothing is proposed.
func (vm *ViewModel) ProposeVote(candidateID uint64) (*PendingAction, error) {
	p, err := NewCastVote(vm.Snapshot(), candidateID)
	if err != nil {
		var e *Error
		errors.As(err, &e)
		return nil, vm.fail(e)
	}
	if err := vm.Propose(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProposeAction enters Confirming for an admin action.
func (vm *ViewModel) ProposeAction(a Action) (*PendingAction, error) {
	p := a.Pending()
	if err := vm.Propose(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Propose moves Idle to Confirming with p awaiting confirmation.
func (vm *ViewModel) Propose(p *PendingAction) error {
	if p == nil {
		return newError(KindInvalidInput, "propose", errors.New("nil action"))
	}
	vm.mu.Lock()
	if vm.phase != PhaseIdle {
		vm.mu.Unlock()
		return newError(KindBusy, p.Action.Kind.String(), nil)
	}
	vm.phase = PhaseConfirming
	vm.pending = p
	vm.mu.Unlock()

	vm.signal()
	return nil
}

// Cancel abandons the action awaiting confirmation.
func (vm *ViewModel) Cancel() {
	vm.mu.Lock()
	if vm.phase != PhaseConfirming {
		vm.mu.Unlock()
		return
	}
	vm.phase = PhaseIdle
	vm.pending = nil
	vm.mu.Unlock()

	vm.signal()
}

// Confirm submits the action awaiting confirmation.
func (vm *ViewModel) Confirm(ctx context.Context) error {
	vm.mu.RLock()
	p, phase := vm.pending, vm.phase
	vm.mu.RUnlock()

	if phase != PhaseConfirming || p == nil {
		return newError(KindInvalidInput, "confirm", errors.New("no action awaiting confirmation"))
	}
	return vm.Submit(ctx, p)
}

// Submit sends p's transaction, waits for it to be mined and refreshes once.
// A second Submit while one is in flight returns ErrSubmissionInFlight without
// touching the contract.
func (vm *ViewModel) Submit(ctx context.Context, p *PendingAction) error {
	if p == nil {
		return newError(KindInvalidInput, "submit", errors.New("nil action"))
	}
	op := p.Action.Kind.String()

	vm.mu.Lock()
	if vm.phase == PhaseSubmitting {
		vm.mu.Unlock()
		return newError(KindBusy, op, nil)
	}
	s := vm.session
	if s == nil {
		vm.phase = PhaseIdle
		vm.pending = nil
		vm.mu.Unlock()
		return vm.fail(newError(KindNotConnected, op, nil))
	}
	vm.phase = PhaseSubmitting
	vm.pending = p
	vm.mu.Unlock()
	vm.signal()

	log := vm.log.WithFields(logrus.Fields{"op": op, "account": s.Account.Hex()})
	log.Info("submitting transaction")

	receipt, err := p.Action.apply(ctx, s.contract)

	vm.mu.Lock()
	vm.phase = PhaseIdle
	vm.pending = nil
	stale := vm.session == nil || vm.session.Account != s.Account
	if err == nil {
		vm.lastTx = receipt.TxHash
	}
	vm.mu.Unlock()
	vm.signal()

	if stale {
		log.WithError(err).Warn("ignoring outcome of submission for previous account")
		return nil
	}
	if err != nil {
		return vm.fail(classify(op, err, KindTransactionFailed))
	}

	log.WithFields(logrus.Fields{
		"tx":    receipt.TxHash.Hex(),
		"block": receipt.BlockNumber,
	}).Info("transaction mined")
	vm.notify(NoticeSuccess, p.Action.SuccessMessage())

	// Refresh failures notify on their own; the submission itself succeeded.
	_, _ = vm.Refresh(ctx)
	return nil
}

// ============================================================================
// Events
// ============================================================================

// startWatching subscribes to wallet and contract events once.
func (vm *ViewModel) startWatching() {
	vm.watchOnce.Do(func() {
		vm.walletEvents = make(chan wallet.Event, 16)
		vm.scope.Track(vm.opts.Wallet.Subscribe(vm.walletEvents))
		for _, n := range vm.opts.Notifiers {
			vm.scope.Track(n.Subscribe(vm.walletEvents))
		}
		if vm.opts.Events != nil {
			vm.contractEvents = make(chan contract.Event, 64)
			vm.scope.Track(vm.opts.Events.SubscribeEvents(vm.contractEvents))
		}

		vm.wg.Add(1)
		go vm.watch()
	})
}

func (vm *ViewModel) watch() {
	defer vm.wg.Done()
	for {
		select {
		case <-vm.quit:
			return
		case ev := <-vm.walletEvents:
			vm.handleWalletEvent(ev)
		case ev := <-vm.contractEvents:
			vm.handleContractEvent(ev)
		}
	}
}

func (vm *ViewModel) eventContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), vm.opts.EventTimeout)
	go func() {
		select {
		case <-vm.quit:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (vm *ViewModel) handleWalletEvent(ev wallet.Event) {
	s := vm.Session()
	if s == nil {
		return
	}
	log := vm.log.WithField("event", ev.Kind.String())

	switch ev.Kind {
	case wallet.ChainChanged:
		log.WithField("chain_id", ev.ChainID).Warn("network changed, session dropped")
		vm.dropSession()
		vm.notify(NoticeWarning, "Network changed. Reconnect to continue.")

	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			log.Warn("wallet disconnected, session dropped")
			vm.dropSession()
			vm.notify(NoticeWarning, "Wallet disconnected. Reconnect to continue.")
			return
		}
		for _, a := range ev.Accounts {
			if a == s.Account {
				return
			}
		}

		next := ev.Accounts[0]
		ctx, cancel := vm.eventContext()
		defer cancel()

		binding, err := vm.opts.Network.Bind(ctx, next, s.ChainID, vm.opts.Wallet)
		if err != nil {
			log.WithError(err).Warn("cannot bind new account, session dropped")
			vm.dropSession()
			vm.notify(NoticeWarning, "Wallet account changed. Reconnect to continue.")
			return
		}
		log.WithField("account", next.Hex()).Info("switched account")
		vm.install(next, s.ChainID, s.WrongNetwork, binding)
		_, _ = vm.Refresh(ctx)
	}
}

func (vm *ViewModel) handleContractEvent(ev contract.Event) {
	vm.mu.RLock()
	skip := vm.session == nil || vm.phase == PhaseSubmitting || ev.TxHash == vm.lastTx
	vm.mu.RUnlock()
	if skip {
		return
	}

	vm.log.WithFields(logrus.Fields{"event": ev.Kind.String(), "block": ev.BlockNumber}).Debug("contract event")
	ctx, cancel := vm.eventContext()
	defer cancel()
	_, _ = vm.Refresh(ctx)
}

// Close unsubscribes from all event sources and stops background work.
func (vm *ViewModel) Close() {
	vm.closeOnce.Do(func() {
		close(vm.quit)
		vm.scope.Close()
		vm.wg.Wait()
	})
}
