// Package tui provides header bar rendering for the TUI dashboard.
package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
)

// Connection indicator symbols.
const (
	SymbolConnected    = "●"
	SymbolDisconnected = "○"
	SymbolWarning      = "⚠"

	SymbolConnectedASCII    = "*"
	SymbolDisconnectedASCII = "o"
	SymbolWarningASCII      = "!"
)

// HeaderBar renders the account and election overview header.
type HeaderBar struct {
	unicodeSupport bool
}

// NewHeaderBar creates a header bar renderer.
func NewHeaderBar() *HeaderBar {
	return &HeaderBar{unicodeSupport: true}
}

// NewHeaderBarWithCapabilities creates a header bar renderer with specified capabilities.
func NewHeaderBarWithCapabilities(unicodeSupport bool) *HeaderBar {
	return &HeaderBar{unicodeSupport: unicodeSupport}
}

// Render outputs the header bar content.
// Format: "Votix | ● 0x1234...abcd | Chain 11155111 | Live | updated 3 seconds ago"
// Before a wallet is connected it shows "Votix | ○ Not connected".
func (h *HeaderBar) Render(model *Model) string {
	if model == nil || model.Session == nil {
		return fmt.Sprintf("Votix | %s Not connected", h.symbol(SymbolDisconnected, SymbolDisconnectedASCII))
	}

	s := model.Session
	parts := []string{
		"Votix",
		fmt.Sprintf("%s %s", h.symbol(SymbolConnected, SymbolConnectedASCII), ShortAddress(s.Account)),
		fmt.Sprintf("Chain %s", s.ChainID),
	}
	if s.WrongNetwork {
		parts = append(parts, h.symbol(SymbolWarning, SymbolWarningASCII)+" wrong network")
	}
	if snap := model.Snapshot; snap != nil {
		if snap.CallerIsAdmin {
			parts = append(parts, "admin")
		}
		parts = append(parts, snap.Status.String())
		parts = append(parts, "updated "+humanize.RelTime(snap.FetchedAt, model.Now, "ago", "from now"))
	}

	return strings.Join(parts, " | ")
}

func (h *HeaderBar) symbol(unicode, ascii string) string {
	if h.unicodeSupport {
		return unicode
	}
	return ascii
}

// ShortAddress abbreviates an address as "0x1234...abcd".
func ShortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
