package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/logging"
	"github.com/salahayoub/votix/pkg/profile"
	"github.com/salahayoub/votix/pkg/types"
	"github.com/salahayoub/votix/pkg/wallet"
	"github.com/stretchr/testify/require"
)

// ownerKey is a well-known development key; never use it on a real network.
const ownerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func simEnviron() map[string]string {
	return map[string]string{
		"VOTIX_SIMULATE":    "true",
		"VOTIX_PRIVATE_KEY": ownerKey,
		"VOTIX_LOG_LEVEL":   "error",
	}
}

func ownerAddress(t *testing.T) common.Address {
	t.Helper()
	key, err := crypto.HexToECDSA(ownerKey)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey)
}

// newSimRuntime wires a simulated runtime owned by ownerKey.
func newSimRuntime(t *testing.T) *runtime {
	t.Helper()
	cfg, err := ParseConfig(simEnviron())
	require.NoError(t, err)
	rt, err := wireRuntime(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

// newTestCLI returns a cli whose commands share one simulated chain.
func newTestCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{environ: simEnviron(), shared: newSimRuntime(t)}
}

// run executes one command line, feeding stdin to confirmation prompts.
func run(c *cli, stdin string, args ...string) (string, error) {
	out := &bytes.Buffer{}
	c.in = strings.NewReader(stdin)
	c.out = out

	root := newRootCmd(c)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	c.closeLog()
	return out.String(), err
}

func TestCommands_ElectionLifecycle(t *testing.T) {
	c := newTestCLI(t)
	chain := c.shared.chain
	owner := ownerAddress(t).Hex()

	out, err := run(c, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Voting Not Started")
	require.Contains(t, out, "No candidates yet")

	out, err = run(c, "", "add-candidate", "--yes", "Elara", "Vance")
	require.NoError(t, err)
	require.Contains(t, out, "Candidate added.")
	_, err = run(c, "", "-y", "add-candidate", "Kaelen Reed")
	require.NoError(t, err)

	// Not registered yet: refused locally, nothing mined
	before := chain.BlockNumber()
	_, err = run(c, "", "vote", "--yes", "1")
	require.ErrorIs(t, err, election.ErrLocalEligibilityViolation)
	require.Equal(t, "You are not eligible to vote or have already voted.", errorText(err))
	require.Equal(t, before, chain.BlockNumber())

	// Declining the prompt sends nothing
	out, err = run(c, "n\n", "register", owner)
	require.NoError(t, err)
	require.Contains(t, out, "Confirm Register Voter")
	require.Contains(t, out, "Cancelled.")
	require.Equal(t, before, chain.BlockNumber())
	require.Equal(t, election.PhaseIdle, c.shared.vm.Phase())

	out, err = run(c, "y\n", "register", owner)
	require.NoError(t, err)
	require.Contains(t, out, "Voter registered.")

	_, err = run(c, "", "set-period", "-y", "60")
	require.NoError(t, err)
	out, err = run(c, "", "start", "-y")
	require.NoError(t, err)
	require.Contains(t, out, "Voting started!")

	out, err = run(c, "yes\n", "vote", "2")
	require.NoError(t, err)
	require.Contains(t, out, "You are voting for Kaelen Reed. This action is irreversible.")
	require.Contains(t, out, "Your vote has been cast successfully!")

	_, err = run(c, "", "vote", "-y", "2")
	require.ErrorIs(t, err, election.ErrLocalEligibilityViolation)

	out, err = run(c, "", "status", "--json")
	require.NoError(t, err)
	var resp types.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "Live", resp.Status)
	require.True(t, resp.Admin)
	require.True(t, resp.Voter.Voted)
	require.Len(t, resp.Candidates, 2)
	require.Equal(t, uint64(1), resp.Candidates[1].Votes)
	require.Equal(t, 100.0, resp.Candidates[1].Percent)
	require.Nil(t, resp.Winner)

	_, err = run(c, "", "end", "-y")
	require.NoError(t, err)
	out, err = run(c, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Voting Has Ended")
	require.Contains(t, out, "#2 Kaelen Reed [WINNER]")
}

func TestCommands_AdminRequiresOwner(t *testing.T) {
	owner := newSimRuntime(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	vm := election.New(election.Options{
		Wallet:   wallet.NewKeyWalletFromKey(key),
		Network:  owner.chain,
		Profiles: profile.NewMemoryStore(),
		Logger:   logging.Log,
	})
	t.Cleanup(vm.Close)
	c := &cli{environ: simEnviron(), shared: &runtime{vm: vm, chain: owner.chain, log: logging.Log}}

	before := owner.chain.BlockNumber()
	_, err = run(c, "", "start", "--yes")
	require.Error(t, err)
	require.Contains(t, err.Error(), "only the contract owner can run startVoting")
	require.Equal(t, before, owner.chain.BlockNumber())
}

func TestCommands_InvalidArguments(t *testing.T) {
	c := newTestCLI(t)

	_, err := run(c, "", "vote", "abc")
	require.ErrorContains(t, err, "not a positive number")

	_, err = run(c, "", "set-period", "0")
	require.ErrorContains(t, err, "not a positive number")

	_, err = run(c, "", "register", "0x12")
	require.ErrorIs(t, err, election.ErrInvalidInput)

	_, err = run(c, "", "vote")
	require.Error(t, err, "missing candidate id")

	_, err = run(c, "", "vote", "-y", "7")
	require.ErrorIs(t, err, election.ErrLocalEligibilityViolation, "eligibility is checked before the candidate id")
}

func TestCommands_FlagsOverrideEnvironment(t *testing.T) {
	c := &cli{environ: map[string]string{
		"VOTIX_CONTRACT_ADDRESS": placeholderAddress,
		"VOTIX_LOG_LEVEL":        "warn",
	}}

	_, err := run(c, "", "profiles", "list", "--contract", testContract, "--simulate", "--refresh", "1m")
	require.NoError(t, err)
	require.Equal(t, testContract, c.cfg.ContractAddress)
	require.True(t, c.cfg.Simulate)
	require.Equal(t, "warn", c.cfg.LogLevel, "unset flags keep the environment value")
	require.Equal(t, "1m0s", c.cfg.RefreshInterval.String())
}

func TestCommands_ConfigErrorsAreReported(t *testing.T) {
	c := &cli{environ: map[string]string{}}
	_, err := run(c, "", "status")
	require.Error(t, err)
	require.Contains(t, err.Error(), "configuration validation failed")
	require.Contains(t, err.Error(), "contract address is not configured")
}

func TestCommands_Profiles(t *testing.T) {
	db := filepath.Join(t.TempDir(), "profiles.db")
	c := &cli{environ: map[string]string{"VOTIX_PROFILES_DB": db}}

	out, err := run(c, "", "profiles", "list")
	require.NoError(t, err)
	require.Contains(t, out, "NAME")
	require.Contains(t, out, "Elara Vance")

	out, err = run(c, "", "profiles", "set", "--slogan", "Onward together.", "Nova", "Quinn")
	require.NoError(t, err)
	require.Contains(t, out, "Saved profile for Nova Quinn.")

	out, err = run(c, "", "profiles", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Nova Quinn")
	require.Contains(t, out, "Onward together.")

	_, err = run(c, "", "profiles", "set", "--image", "ftp://example.com/x.png", "Nova Quinn")
	require.ErrorIs(t, err, profile.ErrInvalidURL)
}

func TestErrorText(t *testing.T) {
	require.Equal(t, "Connect your wallet first.", errorText(election.ErrNotConnected))
	require.Equal(t, "boom", errorText(errors.New("boom")))
}
