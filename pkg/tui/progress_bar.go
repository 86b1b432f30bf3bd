// Package tui provides progress bar rendering for vote share visualization.
package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ProgressBar renders a candidate's vote share as a visual bar.
type ProgressBar struct {
	width int
}

// NewProgressBar creates a progress bar renderer.
// width specifies the character width of the bar (excluding brackets and percentage).
func NewProgressBar(width int) *ProgressBar {
	if width < 1 {
		width = 10 // Default minimum width
	}
	return &ProgressBar{width: width}
}

// Render outputs a progress bar for the given percentage.
// Returns format: "[████░░░░░░] 42.5%"
func (p *ProgressBar) Render(percentage float64) string {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	filledCount := int(percentage / 100 * float64(p.width))
	emptyCount := p.width - filledCount

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strings.Repeat("█", filledCount))
	sb.WriteString(strings.Repeat("░", emptyCount))
	sb.WriteString("]")
	sb.WriteString(fmt.Sprintf(" %.1f%%", percentage))

	return sb.String()
}

// RenderVotes outputs the bar followed by the vote count.
// Returns format: "[████░░░░░░] 42.5% (1,204 votes)"
func (p *ProgressBar) RenderVotes(percentage float64, votes uint64) string {
	return fmt.Sprintf("%s (%s)", p.Render(percentage), FormatVotes(votes))
}

// FormatVotes formats a vote count with thousands separators.
func FormatVotes(votes uint64) string {
	if votes == 1 {
		return "1 vote"
	}
	return humanize.Comma(int64(votes)) + " votes"
}
