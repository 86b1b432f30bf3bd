// Package tui provides the main application controller for the TUI dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gdamore/tcell/v2"
	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/logging"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/sirupsen/logrus"
)

// KeyEvent represents a keyboard event.
type KeyEvent struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// Options configure an App.
type Options struct {
	// RefreshInterval re-reads the election state while connected. Zero disables polling.
	RefreshInterval time.Duration
	// OpTimeout bounds connect and refresh calls. Submissions wait for the
	// transaction to be mined and are only cancelled when the app stops.
	OpTimeout time.Duration
	Logger    logrus.FieldLogger
}

// App is the main TUI application controller.
type App struct {
	vm     *election.ViewModel
	model  *Model
	view   *View
	screen tcell.Screen
	log    logrus.FieldLogger

	// Channels
	stopChan chan struct{}
	keyChan  chan KeyEvent
	redraw   chan struct{}

	// Synchronization
	mu      sync.RWMutex
	running bool

	// Background operations
	ctx       context.Context
	cancel    context.CancelFunc
	ops       sync.WaitGroup
	inFlight  int
	opTimeout time.Duration

	// Key debouncing for Windows
	lastKeyTime time.Time
	lastKey     tcell.Key
	lastRune    rune
}

// NewApp creates a new TUI application driving vm.
func NewApp(vm *election.ViewModel, opts Options) *App {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 3 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = logging.Log
	}

	model := NewModel()
	model.RefreshInterval = opts.RefreshInterval

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		vm:        vm,
		model:     model,
		view:      NewView(),
		log:       log.WithField("component", "tui"),
		stopChan:  make(chan struct{}),
		keyChan:   make(chan KeyEvent, 10),
		redraw:    make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		opTimeout: opts.OpTimeout,
	}
}

// Run starts the TUI application main loop.
// It initializes the terminal, starts event handling, and runs the refresh loop.
// Returns an error if initialization fails or if an unrecoverable error occurs.
func (a *App) Run(parent context.Context) error {
	// Initialize screen
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}

	// Enable mouse support can cause issues on Windows, ensure it's disabled
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.DisableMouse()

	a.screen = screen
	a.screen.Clear()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Mark as running
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	// Create context for cancellation
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Start goroutines
	var wg sync.WaitGroup

	// Event polling goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.pollEvents(ctx)
	}()

	// Refresh loop goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.refreshLoop(ctx)
	}()

	// The countdown and notification expiry need a steady redraw
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	a.render()

	shutdown := func() error {
		cancel()
		a.cleanup()
		wg.Wait()
		return nil
	}

	// Main event loop
	for {
		select {
		case <-a.stopChan:
			return shutdown()

		case <-sigChan:
			return shutdown()

		case <-ctx.Done():
			return shutdown()

		case event := <-a.keyChan:
			if a.handleKeyEvent(event) {
				return shutdown()
			}
			a.render()

		case <-a.vm.Updates():
			a.render()

		case <-a.redraw:
			a.render()

		case <-ticker.C:
			a.render()
		}
	}
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		close(a.stopChan)
		a.running = false
	}
}

// cleanup cancels background operations and restores the terminal state.
// Finalizing the screen also unblocks pollEvents.
func (a *App) cleanup() {
	a.cancel()
	a.ops.Wait()
	if a.screen != nil {
		a.screen.Fini()
	}
}

// pollEvents polls for terminal events and sends them to the key channel.
func (a *App) pollEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}

			switch e := ev.(type) {
			case *tcell.EventKey:
				select {
				case a.keyChan <- KeyEvent{Key: e.Key(), Rune: e.Rune(), Mod: e.Modifiers()}:
				case <-ctx.Done():
					return
				}
			case *tcell.EventResize:
				a.screen.Sync()
				a.requestRedraw()
			}
		}
	}
}

// refreshLoop periodically re-reads the election state.
func (a *App) refreshLoop(ctx context.Context) {
	if a.model.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.model.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			if a.inFlight == 0 && a.vm.Phase() == election.PhaseIdle {
				a.refreshLocked()
			}
			a.mu.Unlock()
		}
	}
}

func (a *App) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

// startOp runs fn in the background under the app context, bounded by timeout
// when it is positive. The model shows a loader until every started operation
// has returned. Caller must hold a.mu.
func (a *App) startOp(name string, timeout time.Duration, fn func(ctx context.Context) error) {
	a.inFlight++
	a.model.Busy = true
	a.ops.Add(1)

	go func() {
		defer a.ops.Done()

		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(a.ctx, timeout)
		} else {
			ctx, cancel = context.WithCancel(a.ctx)
		}
		err := fn(ctx)
		cancel()

		if err != nil {
			a.log.WithError(err).WithField("op", name).Debug("operation returned an error")
		}

		a.mu.Lock()
		a.inFlight--
		a.model.Busy = a.inFlight > 0
		a.mu.Unlock()
		a.requestRedraw()
	}()
}

// connectLocked authorizes the wallet and loads the election state.
func (a *App) connectLocked() {
	a.startOp("connect", a.opTimeout, func(ctx context.Context) error {
		if _, err := a.vm.Connect(ctx); err != nil {
			return err
		}
		_, err := a.vm.Refresh(ctx)
		return err
	})
}

// refreshLocked re-reads the election state (caller must hold lock).
func (a *App) refreshLocked() {
	if a.vm.Session() == nil {
		return
	}
	a.startOp("refresh", a.opTimeout, func(ctx context.Context) error {
		_, err := a.vm.Refresh(ctx)
		return err
	})
}

// confirmLocked submits the pending action (caller must hold lock).
func (a *App) confirmLocked() {
	a.startOp("confirm", 0, a.vm.Confirm)
}

// syncLocked copies the view-model state into the model (caller must hold lock).
func (a *App) syncLocked() {
	a.model.Session = a.vm.Session()
	a.model.Snapshot = a.vm.Snapshot()
	a.model.Phase = a.vm.Phase()
	a.model.Pending = a.vm.Pending()
	a.model.Notice = nil
	if n, ok := a.vm.Notification(); ok {
		a.model.Notice = &n
	}
	a.model.Now = time.Now()
	a.model.clamp()
}

// render draws the current state to the screen.
func (a *App) render() {
	a.mu.Lock()
	a.syncLocked()
	if a.screen != nil {
		a.model.Width, _ = a.screen.Size()
	}
	lines := a.view.RenderLines(a.model)
	a.mu.Unlock()

	if a.screen == nil {
		return
	}

	width, height := a.screen.Size()
	buf := NewBuffer(width, height)
	for row, line := range lines {
		if row >= height {
			break
		}
		buf.FillRow(0, row, CurrentStyles.Normal)
		buf.DrawString(0, row, line.Text, line.Style)
	}
	buf.ApplyToScreen(a.screen, 0, 0)
	a.screen.Show()
}

// IsRunning returns whether the application is currently running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// GetModel returns the current model (for testing).
func (a *App) GetModel() *Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncLocked()
	return a.model
}

// Passphrase implements wallet.Prompter with an in-screen masked input.
// It blocks until the user submits or cancels, or ctx is done.
func (a *App) Passphrase(ctx context.Context, account common.Address) (string, error) {
	reply := make(chan promptReply, 1)
	prompt := &PromptState{Account: account, reply: reply}

	a.mu.Lock()
	a.model.Prompt = prompt
	a.mu.Unlock()
	a.requestRedraw()

	select {
	case r := <-reply:
		return r.passphrase, r.err
	case <-ctx.Done():
		a.mu.Lock()
		if a.model.Prompt == prompt {
			a.model.Prompt = nil
		}
		a.mu.Unlock()
		a.requestRedraw()
		return "", ctx.Err()
	}
}

// typing reports whether keys are going into a text field (caller must hold lock).
func (a *App) typing() bool {
	return a.model.Prompt != nil || a.model.ActivePanel == PanelCommand
}

// handleKeyEvent processes a keyboard event and updates the model.
// Returns true if the application should exit.
// Includes debouncing to handle Windows keyboard repeat issues where
// holding a key generates rapid duplicate events.
func (a *App) handleKeyEvent(event KeyEvent) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncLocked()

	// Debounce: ignore same key within 200ms to prevent keyboard repeat
	// from triggering multiple actions. Text entry is exempt.
	now := time.Now()
	if !a.typing() && now.Sub(a.lastKeyTime) < 200*time.Millisecond &&
		a.lastKey == event.Key && a.lastRune == event.Rune {
		return false
	}
	a.lastKeyTime = now
	a.lastKey = event.Key
	a.lastRune = event.Rune

	// Handle Ctrl+C for exit
	if event.Key == tcell.KeyCtrlC {
		return true
	}

	if a.model.Prompt != nil {
		a.handlePromptInput(event)
		return false
	}

	switch a.model.Phase {
	case election.PhaseConfirming:
		return a.handleConfirmInput(event)
	case election.PhaseSubmitting:
		// Only quitting is possible while a transaction is being mined
		return event.Rune == 'q'
	}

	// Handle 'q' for exit (only when not in command panel or input is empty)
	if event.Rune == 'q' && (a.model.ActivePanel != PanelCommand || a.model.CommandInput == "") {
		return true
	}

	// Handle Tab for next panel
	if event.Key == tcell.KeyTab {
		if event.Mod&tcell.ModShift != 0 {
			a.model.PrevPanel()
		} else {
			a.model.NextPanel()
		}
		return false
	}

	// Handle Shift+Tab (BackTab) for previous panel
	if event.Key == tcell.KeyBacktab {
		a.model.PrevPanel()
		return false
	}

	// Handle command panel input
	if a.model.ActivePanel == PanelCommand {
		return a.handleCommandInput(event)
	}

	switch {
	case event.Rune == 'c':
		a.connectLocked()
		return false
	case event.Rune == 'r':
		a.refreshLocked()
		return false
	case event.Key == tcell.KeyEscape && a.model.Notice != nil:
		a.vm.DismissNotification()
		return false
	}

	if a.model.ActivePanel == PanelCandidates {
		a.handleCandidatesInput(event)
	}

	return false
}

// handlePromptInput edits the passphrase field.
func (a *App) handlePromptInput(event KeyEvent) {
	p := a.model.Prompt
	switch event.Key {
	case tcell.KeyEnter:
		p.reply <- promptReply{passphrase: p.Input}
		a.model.Prompt = nil
	case tcell.KeyEscape:
		p.reply <- promptReply{err: wallet.ErrDeclined}
		a.model.Prompt = nil
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(p.Input); len(r) > 0 {
			p.Input = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		p.Input += string(event.Rune)
	}
}

// handleConfirmInput answers the confirmation dialog.
func (a *App) handleConfirmInput(event KeyEvent) bool {
	switch {
	case event.Rune == 'y' || event.Rune == 'Y' || event.Key == tcell.KeyEnter:
		a.confirmLocked()
	case event.Rune == 'n' || event.Rune == 'N' || event.Key == tcell.KeyEscape:
		a.vm.Cancel()
	case event.Rune == 'q':
		return true
	}
	return false
}

// handleCandidatesInput moves the selection and proposes votes.
func (a *App) handleCandidatesInput(event KeyEvent) {
	switch {
	case event.Key == tcell.KeyUp || event.Rune == 'k':
		a.model.MoveSelection(-1)
	case event.Key == tcell.KeyDown || event.Rune == 'j':
		a.model.MoveSelection(1)
	case event.Rune == 'v' || event.Key == tcell.KeyEnter:
		c, ok := a.model.SelectedCandidate()
		if !ok {
			return
		}
		if _, err := a.vm.ProposeVote(c.ID); err != nil {
			a.model.ErrorMessage = election.Message(err)
		}
	}
}

// handleCommandInput processes keyboard input for the command panel.
// Returns true if the application should exit.
func (a *App) handleCommandInput(event KeyEvent) bool {
	switch event.Key {
	case tcell.KeyEnter:
		a.executeCommand()
		return false

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		// Delete last character
		if len(a.model.CommandInput) > 0 {
			a.model.CommandInput = a.model.CommandInput[:len(a.model.CommandInput)-1]
		}
		return false

	case tcell.KeyEscape:
		// Clear input
		a.model.CommandInput = ""
		a.model.ErrorMessage = ""
		return false

	case tcell.KeyRune:
		a.model.CommandInput += string(event.Rune)
		return false
	}

	return false
}

// executeCommand parses and executes the current command input.
func (a *App) executeCommand() {
	input := a.model.CommandInput
	if input == "" {
		return
	}
	a.model.CommandInput = ""
	a.model.CommandOutput = ""
	a.model.ErrorMessage = ""

	cmd, err := ParseCommand(input)
	if err != nil {
		a.model.ErrorMessage = err.Error()
		return
	}

	if cmd.Type != CommandConnect && cmd.Type != CommandHelp && a.model.Session == nil {
		a.model.ErrorMessage = election.Message(election.ErrNotConnected)
		return
	}
	if cmd.Type.Admin() && !a.model.IsAdmin() {
		a.model.ErrorMessage = "Only the contract owner can run " + cmd.Type.String()
		return
	}

	switch cmd.Type {
	case CommandHelp:
		a.model.CommandOutput = HelpText
	case CommandConnect:
		a.connectLocked()
		a.model.CommandOutput = "Connecting..."
	case CommandRefresh:
		a.refreshLocked()
		a.model.CommandOutput = "Refreshing..."
	case CommandVote:
		if _, err := a.vm.ProposeVote(cmd.Number); err != nil {
			a.model.ErrorMessage = election.Message(err)
		}
	default:
		action, err := adminAction(cmd)
		if err == nil {
			_, err = a.vm.ProposeAction(action)
		}
		if err != nil {
			a.model.ErrorMessage = election.Message(err)
		}
	}
}

// adminAction builds the owner-only action for cmd.
func adminAction(cmd *Command) (election.Action, error) {
	switch cmd.Type {
	case CommandRegister:
		return election.NewRegisterVoter(cmd.Arg)
	case CommandAdd:
		return election.NewAddCandidate(cmd.Arg)
	case CommandPeriod:
		return election.NewSetVotingPeriod(cmd.Number)
	case CommandStart:
		return election.NewStartVoting(), nil
	case CommandEnd:
		return election.NewEndVoting(), nil
	default:
		return election.Action{}, errors.New("not an admin command: " + cmd.Type.String())
	}
}
