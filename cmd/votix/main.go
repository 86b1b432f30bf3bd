// Package main provides the votix command-line client.
// It wires the wallet, the contract binding and the election view-model
// together and exposes them as a terminal UI, one-shot commands and a
// headless status service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/logging"
	"github.com/salahayoub/votix/pkg/tui"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/spf13/cobra"
)

// annotationTUI marks commands that own the terminal, so logs go to a file.
const annotationTUI = "votix.tui"

// cli is the state shared by all commands of one invocation.
type cli struct {
	in  io.Reader
	out io.Writer

	envFile string
	yes     bool
	flags   Config // flag targets; copied over env values when set

	// environ replaces the process environment when non-nil.
	environ map[string]string
	// shared, when set, is used instead of wiring a runtime per command.
	shared *runtime

	cfg       *Config
	logCloser io.Closer
}

func main() {
	if err := execRootCmd(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		os.Exit(1)
	}
}

func execRootCmd(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{in: os.Stdin, out: os.Stdout}
	defer c.closeLog()

	root := newRootCmd(c)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// errorText prefers the user-facing message for election errors.
func errorText(err error) string {
	if election.KindOf(err) != election.KindUnknown {
		return election.Message(err)
	}
	return err.Error()
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "votix",
		Short:         "Client for the Votix on-chain election",
		Long:          "Votix connects a wallet to the Votix election contract. Without a subcommand it starts the terminal UI.",
		Annotations:   map[string]string{annotationTUI: "true"},
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context())
		},
	}
	rootCmd.SetIn(c.in)
	rootCmd.SetOut(c.out)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.envFile, "env-file", ".env", "Load environment variables from this file")
	pf.StringVar(&c.flags.RPCURL, "rpc-url", "", "JSON-RPC endpoint (VOTIX_RPC_URL)")
	pf.StringVar(&c.flags.ContractAddress, "contract", "", "Deployed Votix contract address (VOTIX_CONTRACT_ADDRESS)")
	pf.StringVar(&c.flags.Keystore, "keystore", "", "Keystore directory (VOTIX_KEYSTORE)")
	pf.StringVar(&c.flags.Account, "account", "", "Keystore account to use (VOTIX_ACCOUNT)")
	pf.StringVar(&c.flags.ProfilesDB, "profiles-db", "", "Candidate profile database (VOTIX_PROFILES_DB)")
	pf.StringVar(&c.flags.LogFile, "log-file", "", "Append logs to this file (VOTIX_LOG_FILE)")
	pf.StringVar(&c.flags.LogLevel, "log-level", "", "Log level (VOTIX_LOG_LEVEL)")
	pf.DurationVar(&c.flags.RefreshInterval, "refresh", 0, "Snapshot refresh interval (VOTIX_REFRESH_INTERVAL)")
	pf.BoolVar(&c.flags.Simulate, "simulate", false, "Use an in-memory contract instead of a node (VOTIX_SIMULATE)")
	pf.BoolVarP(&c.yes, "yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddCommand(
		newTUICmd(c),
		newStatusCmd(c),
		newVoteCmd(c),
		newRegisterCmd(c),
		newAddCandidateCmd(c),
		newSetPeriodCmd(c),
		newStartCmd(c),
		newEndCmd(c),
		newServeCmd(c),
		newProfilesCmd(c),
	)
	return rootCmd
}

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Start the terminal UI",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context())
		},
	}
}

// load resolves configuration for cmd: env file, environment, then flags.
func (c *cli) load(cmd *cobra.Command) error {
	if c.environ == nil {
		if err := LoadEnvFile(c.envFile, cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
	}

	cfg, err := ParseConfig(c.environ)
	if err != nil {
		return err
	}
	c.applyFlags(cmd, cfg)
	c.cfg = cfg

	opts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Stderr: cmd.ErrOrStderr()}
	if cmd.Annotations[annotationTUI] == "true" && cfg.LogFile == "" {
		// The terminal belongs to the UI.
		opts.Stderr = io.Discard
	}
	closer, err := logging.Bootstrap(opts)
	if err != nil {
		return err
	}
	c.logCloser = closer
	return nil
}

func (c *cli) applyFlags(cmd *cobra.Command, cfg *Config) {
	fl := cmd.Flags()
	set := func(name string, dst *string, src string) {
		if fl.Changed(name) {
			*dst = src
		}
	}
	set("rpc-url", &cfg.RPCURL, c.flags.RPCURL)
	set("contract", &cfg.ContractAddress, c.flags.ContractAddress)
	set("keystore", &cfg.Keystore, c.flags.Keystore)
	set("account", &cfg.Account, c.flags.Account)
	set("profiles-db", &cfg.ProfilesDB, c.flags.ProfilesDB)
	set("log-file", &cfg.LogFile, c.flags.LogFile)
	set("log-level", &cfg.LogLevel, c.flags.LogLevel)
	set("http-addr", &cfg.HTTPAddr, c.flags.HTTPAddr)
	set("grpc-addr", &cfg.GRPCAddr, c.flags.GRPCAddr)
	if fl.Changed("simulate") {
		cfg.Simulate = c.flags.Simulate
	}
	if fl.Changed("refresh") {
		cfg.RefreshInterval = c.flags.RefreshInterval
	}
}

func (c *cli) closeLog() {
	if c.logCloser != nil {
		c.logCloser.Close()
		c.logCloser = nil
	}
}

// wire returns the shared runtime or wires a new one. The release function
// closes only what was wired here.
func (c *cli) wire(ctx context.Context, tuiMode bool) (*runtime, func(), error) {
	if c.shared != nil {
		return c.shared, func() {}, nil
	}
	var prompt wallet.Prompter
	if !tuiMode {
		prompt = defaultPrompter(c.cfg)
	}
	rt, err := wireRuntime(ctx, c.cfg, prompt)
	if err != nil {
		return nil, nil, err
	}
	return rt, func() { rt.Close() }, nil
}

func (c *cli) runTUI(ctx context.Context) error {
	rt, release, err := c.wire(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	app := tui.NewApp(rt.vm, tui.Options{
		RefreshInterval: c.cfg.RefreshInterval,
		Logger:          logging.Log,
	})
	if rt.keystore != nil {
		rt.keystore.SetPrompter(app)
	}

	stop := rt.Start(ctx)
	defer stop()

	logging.Log.Info("starting terminal UI")
	return app.Run(ctx)
}
