package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/profile"
	"github.com/salahayoub/votix/pkg/tui"
	"github.com/salahayoub/votix/pkg/types"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/spf13/cobra"
)

// ============================================================================
// Read-only commands
// ============================================================================

func newStatusCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the election status, candidates and your voting status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.status(cmd.Context(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func (c *cli) status(ctx context.Context, asJSON bool) error {
	rt, release, err := c.wire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	snap, err := connect(ctx, rt.vm)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(types.NewStatusResponse(rt.vm.Session(), snap))
	}
	c.printSnapshot(snap)
	return nil
}

// connect authorizes the wallet and loads a first snapshot.
func connect(ctx context.Context, vm *election.ViewModel) (*election.Snapshot, error) {
	if vm.Session() == nil {
		if _, err := vm.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return vm.Refresh(ctx)
}

// printSnapshot reuses the terminal UI panels for plain output.
func (c *cli) printSnapshot(snap *election.Snapshot) {
	now := time.Now()
	fmt.Fprint(c.out, tui.RenderPanelWithBorder(tui.NewStatusPanel().Render(snap, now), tui.PanelStatus.String(), false))
	fmt.Fprint(c.out, tui.RenderPanelWithBorder(tui.NewCandidatesPanel().Render(snap, -1, false), tui.PanelCandidates.String(), false))
	fmt.Fprint(c.out, tui.RenderPanelWithBorder(tui.NewVoterPanel().Render(snap), tui.PanelVoter.String(), false))
	fmt.Fprintf(c.out, "Account %s, updated %s\n", snap.Account.Hex(), humanize.Time(snap.FetchedAt))
}

// ============================================================================
// Transactions
// ============================================================================

// proposer builds the pending action from the freshly loaded snapshot.
type proposer func(vm *election.ViewModel, snap *election.Snapshot) (*election.PendingAction, error)

func newVoteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <candidate-id>",
		Short: "Cast your vote for a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePositive(args[0])
			if err != nil {
				return err
			}
			return c.transact(cmd.Context(), func(vm *election.ViewModel, _ *election.Snapshot) (*election.PendingAction, error) {
				return vm.ProposeVote(id)
			})
		},
	}
}

func newRegisterCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "register <address>",
		Short: "Register a voter address (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := election.NewRegisterVoter(args[0])
			if err != nil {
				return err
			}
			return c.transact(cmd.Context(), adminProposer(a))
		},
	}
}

func newAddCandidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add-candidate <name>",
		Short: "Add a candidate before voting starts (owner only)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := election.NewAddCandidate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.transact(cmd.Context(), adminProposer(a))
		},
	}
}

func newSetPeriodCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set-period <minutes>",
		Short: "Set the voting duration in minutes (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := parsePositive(args[0])
			if err != nil {
				return err
			}
			a, err := election.NewSetVotingPeriod(minutes)
			if err != nil {
				return err
			}
			return c.transact(cmd.Context(), adminProposer(a))
		},
	}
}

func newStartCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start voting (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.transact(cmd.Context(), adminProposer(election.NewStartVoting()))
		},
	}
}

func newEndCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End voting (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.transact(cmd.Context(), adminProposer(election.NewEndVoting()))
		},
	}
}

// adminProposer refuses owner-only actions for other accounts before any
// transaction is attempted.
func adminProposer(a election.Action) proposer {
	return func(vm *election.ViewModel, snap *election.Snapshot) (*election.PendingAction, error) {
		if !snap.CallerIsAdmin {
			return nil, fmt.Errorf("only the contract owner can run %s", a.Kind)
		}
		return vm.ProposeAction(a)
	}
}

func parsePositive(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%q is not a positive number", s)
	}
	return n, nil
}

// transact connects, proposes, confirms on stdin unless --yes, then submits
// and reports the outcome.
func (c *cli) transact(ctx context.Context, propose proposer) error {
	rt, release, err := c.wire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	snap, err := connect(ctx, rt.vm)
	if err != nil {
		return err
	}

	p, err := propose(rt.vm, snap)
	if err != nil {
		return err
	}

	if !c.yes {
		fmt.Fprintf(c.out, "%s\n%s\n", p.Title, p.ConfirmationText)
		ok, err := wallet.ConfirmPrompt(c.in, c.out, "Continue?")
		if err != nil {
			rt.vm.Cancel()
			return err
		}
		if !ok {
			rt.vm.Cancel()
			fmt.Fprintln(c.out, "Cancelled.")
			return nil
		}
	}

	fmt.Fprintln(c.out, tui.LoadingMessage)
	if err := rt.vm.Confirm(ctx); err != nil {
		return err
	}
	if n, ok := rt.vm.Notification(); ok {
		fmt.Fprintln(c.out, n.Message)
	}
	return nil
}

// ============================================================================
// Profiles
// ============================================================================

func newProfilesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage candidate slogans and images",
	}
	cmd.AddCommand(newProfilesListCmd(c), newProfilesSetCmd(c))
	return cmd
}

func newProfilesListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored candidate profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := profile.Open(c.cfg.ProfilesDB)
			if err != nil {
				return err
			}
			defer catalog.Close()

			profiles, err := catalog.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSLOGAN\tIMAGE")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Slogan, p.ImageURL)
			}
			return tw.Flush()
		},
	}
}

func newProfilesSetCmd(c *cli) *cobra.Command {
	var slogan, image string
	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store the slogan and image shown for a candidate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := profile.Profile{Name: strings.Join(args, " "), Slogan: slogan, ImageURL: image}
			if p.ImageURL == "" {
				p.ImageURL = profile.FallbackImage(p.Name)
			}
			if err := p.Validate(); err != nil {
				return err
			}

			catalog, err := profile.Open(c.cfg.ProfilesDB)
			if err != nil {
				return err
			}
			defer catalog.Close()

			if err := catalog.Put(p); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved profile for %s.\n", p.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&slogan, "slogan", profile.DefaultSlogan, "Campaign slogan")
	cmd.Flags().StringVar(&image, "image", "", "Portrait image URL (defaults to a generated placeholder)")
	return cmd
}
