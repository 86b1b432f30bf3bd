package wallet

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"
)

// TerminalPrompter reads a passphrase from a terminal without echo.
type TerminalPrompter struct {
	fd  int
	out io.Writer
}

// NewTerminalPrompter prompts on stdin, writing the prompt to stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{fd: int(os.Stdin.Fd()), out: os.Stderr}
}

// Passphrase prints a prompt and reads one line. An empty answer declines.
func (p *TerminalPrompter) Passphrase(ctx context.Context, account common.Address) (string, error) {
	if !term.IsTerminal(p.fd) {
		return "", fmt.Errorf("%w: stdin is not a terminal", ErrDeclined)
	}

	fmt.Fprintf(p.out, "Passphrase for %s: ", account.Hex())

	type result struct {
		pass []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		b, err := term.ReadPassword(p.fd)
		done <- result{b, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case r := <-done:
		fmt.Fprintln(p.out)
		if r.err != nil {
			return "", fmt.Errorf("read passphrase: %w", r.err)
		}
		if len(r.pass) == 0 {
			return "", ErrDeclined
		}
		return string(r.pass), nil
	}
}

// StaticPrompter always answers with the same passphrase.
type StaticPrompter string

// Passphrase returns the stored passphrase.
func (p StaticPrompter) Passphrase(ctx context.Context, _ common.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(p), nil
}

// ConfirmPrompt asks a yes/no question on r and w. Only "y" or "yes" confirm.
func ConfirmPrompt(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	var answer string
	if _, err := fmt.Fscanln(r, &answer); err != nil {
		if err == io.EOF || strings.Contains(err.Error(), "unexpected newline") {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
