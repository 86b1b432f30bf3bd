package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/salahayoub/votix/pkg/contract"
	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/logging"
	"github.com/salahayoub/votix/pkg/profile"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// runtime is everything a command needs to talk to the election.
type runtime struct {
	cfg      *Config
	vm       *election.ViewModel
	profiles profile.Catalog

	// keystore is set when accounts come from a keystore directory, so the
	// TUI can take over passphrase prompts.
	keystore *wallet.KeystoreWallet

	// chain is set in simulate mode.
	chain *contract.Memory

	pollers []func(ctx context.Context) error
	closers []func() error
	log     logrus.FieldLogger
}

// wireRuntime builds the wallet, network and view-model described by cfg.
// prompt answers keystore passphrase requests; nil leaves the keystore without one.
func wireRuntime(ctx context.Context, cfg *Config, prompt wallet.Prompter) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	rt := &runtime{cfg: cfg, log: logging.Log.WithField("component", "runtime")}

	catalog, err := profile.Open(cfg.ProfilesDB)
	if err != nil {
		return nil, fmt.Errorf("open profile catalog: %w", err)
	}
	rt.profiles = catalog
	rt.closers = append(rt.closers, catalog.Close)

	opts := election.Options{
		ExpectedChainID: cfg.ExpectedChainID(),
		Profiles:        catalog,
		Logger:          logging.Log,
	}

	if cfg.Simulate {
		err = rt.wireSimulated(&opts)
	} else {
		err = rt.wireNetwork(ctx, &opts, prompt)
	}
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.vm = election.New(opts)
	return rt, nil
}

// wireSimulated runs against an in-memory contract owned by the configured key,
// or by a fresh key when none is set.
func (rt *runtime) wireSimulated(opts *election.Options) error {
	var (
		w   *wallet.KeyWallet
		err error
	)
	if rt.cfg.PrivateKey != "" {
		w, err = wallet.NewKeyWallet(rt.cfg.PrivateKey)
		if err != nil {
			return err
		}
	} else {
		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate simulator key: %w", err)
		}
		w = wallet.NewKeyWalletFromKey(key)
	}

	rt.chain = contract.NewMemory(w.Address())
	opts.Wallet = w
	opts.Network = rt.chain
	opts.Events = rt.chain

	rt.log.WithField("owner", w.Address().Hex()).Info("using simulated contract")
	return nil
}

// wireNetwork dials the RPC node and binds the deployed contract.
func (rt *runtime) wireNetwork(ctx context.Context, opts *election.Options, prompt wallet.Prompter) error {
	client, err := ethclient.DialContext(ctx, rt.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", election.ErrContractUnreachable, rt.cfg.RPCURL, err)
	}
	rt.closers = append(rt.closers, func() error { client.Close(); return nil })

	network, err := contract.NewEthNetwork(rt.cfg.Contract(), client)
	if err != nil {
		return fmt.Errorf("bind contract: %w", err)
	}
	watcher := contract.NewWatcher(network.Votix(), 0)
	chainWatcher := wallet.NewChainWatcher(client, 0)

	w, err := rt.openWallet(prompt)
	if err != nil {
		return err
	}

	opts.Wallet = w
	opts.Network = network
	opts.Events = watcher
	opts.Notifiers = []wallet.Notifier{chainWatcher}
	rt.pollers = append(rt.pollers, watcher.Run, chainWatcher.Run)

	rt.log.WithFields(logrus.Fields{
		"rpc":      rt.cfg.RPCURL,
		"contract": rt.cfg.Contract().Hex(),
	}).Info("using deployed contract")
	return nil
}

// openWallet prefers a raw private key over a keystore directory.
func (rt *runtime) openWallet(prompt wallet.Prompter) (wallet.Wallet, error) {
	if rt.cfg.PrivateKey != "" {
		return wallet.NewKeyWallet(rt.cfg.PrivateKey)
	}
	ks, err := wallet.NewKeystoreWallet(rt.cfg.Keystore, rt.cfg.PreferredAccount(), prompt)
	if err != nil {
		return nil, err
	}
	rt.keystore = ks
	rt.closers = append(rt.closers, ks.Close)
	return ks, nil
}

// defaultPrompter answers from configuration, falling back to the terminal.
func defaultPrompter(cfg *Config) wallet.Prompter {
	if cfg.Passphrase != "" {
		return wallet.StaticPrompter(cfg.Passphrase)
	}
	return wallet.NewTerminalPrompter()
}

// Start runs the chain pollers until ctx is cancelled. The returned function
// stops them and waits.
func (rt *runtime) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, poll := range rt.pollers {
		poll := poll
		g.Go(func() error { return poll(gctx) })
	}
	return func() {
		cancel()
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			rt.log.WithError(err).Warn("poller stopped")
		}
	}
}

// Close releases the view-model and everything it was built on.
func (rt *runtime) Close() error {
	if rt.vm != nil {
		rt.vm.Close()
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
