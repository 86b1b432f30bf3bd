// Package tui provides view rendering for the TUI dashboard.
package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"github.com/salahayoub/votix/pkg/election"
)

// BorderStyle defines the characters used for panel borders.
type BorderStyle struct {
	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string
	Horizontal  string
	Vertical    string
}

// NormalBorder is the default border style for unfocused panels.
// Uses single-line box drawing characters (┌─┐│└┘).
var NormalBorder = BorderStyle{
	TopLeft:     "┌",
	TopRight:    "┐",
	BottomLeft:  "└",
	BottomRight: "┘",
	Horizontal:  "─",
	Vertical:    "│",
}

// FocusedBorder is the border style for focused panels with distinct styling.
// Uses double-line box drawing characters (╔═╗║╚╝).
var FocusedBorder = BorderStyle{
	TopLeft:     "╔",
	TopRight:    "╗",
	BottomLeft:  "╚",
	BottomRight: "╝",
	Horizontal:  "═",
	Vertical:    "║",
}

// Line is one styled row of rendered output.
type Line struct {
	Text  string
	Style tcell.Style
}

// View handles rendering the model to the terminal.
type View struct {
	header *HeaderBar
	footer *FooterBar

	statusPanel     *StatusPanel
	candidatesPanel *CandidatesPanel
	voterPanel      *VoterPanel
	adminPanel      *AdminPanel
	commandPanel    *CommandPanel
	confirmPanel    *ConfirmPanel
	promptPanel     *PromptPanel
	landingPanel    *LandingPanel
}

// NewView creates a new View with all panel renderers initialized.
func NewView() *View {
	return &View{
		header:          NewHeaderBar(),
		footer:          NewFooterBar(80),
		statusPanel:     NewStatusPanel(),
		candidatesPanel: NewCandidatesPanel(),
		voterPanel:      NewVoterPanel(),
		adminPanel:      NewAdminPanel(),
		commandPanel:    NewCommandPanel(),
		confirmPanel:    NewConfirmPanel(),
		promptPanel:     NewPromptPanel(),
		landingPanel:    NewLandingPanel(),
	}
}

// textWidth is the number of terminal columns s occupies.
func textWidth(s string) int {
	return uniseg.StringWidth(s)
}

// RenderPanelWithBorder wraps panel content with a border.
// The border style depends on whether the panel has focus.
func RenderPanelWithBorder(content string, title string, focused bool) string {
	border := NormalBorder
	if focused {
		border = FocusedBorder
	}

	lines := strings.Split(content, "\n")

	// Find the maximum line width
	maxWidth := textWidth(title) + 4 // Minimum width to fit title
	for _, line := range lines {
		if w := textWidth(line); w > maxWidth {
			maxWidth = w
		}
	}

	// Add padding
	maxWidth += 2

	var sb strings.Builder

	// Top border with title
	sb.WriteString(border.TopLeft)
	titlePadding := (maxWidth - textWidth(title) - 2) / 2
	sb.WriteString(strings.Repeat(border.Horizontal, titlePadding))
	sb.WriteString(" ")
	sb.WriteString(title)
	sb.WriteString(" ")
	remainingPadding := maxWidth - titlePadding - textWidth(title) - 2
	sb.WriteString(strings.Repeat(border.Horizontal, remainingPadding))
	sb.WriteString(border.TopRight)
	sb.WriteString("\n")

	// Content lines
	for _, line := range lines {
		sb.WriteString(border.Vertical)
		sb.WriteString(" ")
		sb.WriteString(line)
		padding := maxWidth - textWidth(line) - 1
		if padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}
		sb.WriteString(border.Vertical)
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(border.BottomLeft)
	sb.WriteString(strings.Repeat(border.Horizontal, maxWidth))
	sb.WriteString(border.BottomRight)
	sb.WriteString("\n")

	return sb.String()
}

// RenderPanel renders a single panel with its content and border.
// The panel is highlighted if it has focus.
func (v *View) RenderPanel(panelType PanelType, model *Model) string {
	var content string

	switch panelType {
	case PanelStatus:
		content = v.statusPanel.Render(model.Snapshot, model.Now)
	case PanelCandidates:
		content = v.candidatesPanel.Render(model.Snapshot, model.Selected, model.ActivePanel == PanelCandidates)
	case PanelVoter:
		content = v.voterPanel.Render(model.Snapshot)
	case PanelAdmin:
		content = v.adminPanel.Render()
	case PanelCommand:
		content = v.commandPanel.Render(model.CommandInput, model.CommandOutput, model.ErrorMessage)
	default:
		content = "Unknown panel type"
	}

	focused := model.ActivePanel == panelType
	return RenderPanelWithBorder(content, panelType.String(), focused)
}

// RenderLines lays out the whole screen as styled rows.
// Order: header, notification, passphrase prompt or confirmation dialog,
// then either the landing screen or the visible panels, then the footer.
func (v *View) RenderLines(model *Model) []Line {
	styles := CurrentStyles
	var out []Line

	add := func(block string, style tcell.Style) {
		for _, l := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
			out = append(out, Line{Text: l, Style: style})
		}
	}

	add(v.header.Render(model), styles.Header)
	if n := model.Notice; n != nil {
		add(RenderNotification(*n), styles.NoticeStyle(n.Kind))
	}
	add("", styles.Normal)

	switch {
	case model.Prompt != nil:
		add(RenderPanelWithBorder(v.promptPanel.Render(model.Prompt), "Unlock Wallet", true), styles.BorderFocus)
		add("", styles.Normal)
	case model.Pending != nil:
		add(RenderPanelWithBorder(v.confirmPanel.Render(model.Pending, model.Phase), model.Pending.Title, true), styles.BorderFocus)
		add("", styles.Normal)
	}

	if !model.Connected() {
		add(RenderPanelWithBorder(v.landingPanel.Render(model.Busy), "Votix", false), styles.Normal)
	} else {
		for _, panel := range VisiblePanels(model) {
			style := styles.Normal
			switch {
			case model.ActivePanel == panel:
				style = styles.BorderFocus
			case panel == PanelStatus && model.Snapshot != nil:
				style = styles.StatusStyle(model.Snapshot.Status)
			case panel == PanelCandidates && model.Snapshot != nil && model.Snapshot.Status == election.StatusEnded:
				style = styles.Winner
			}
			add(v.RenderPanel(panel, model), style)
		}
		if model.Busy && model.Pending == nil {
			add(LoadingMessage, styles.Muted)
		}
	}

	add("", styles.Normal)
	v.footer.SetWidth(model.Width)
	add(v.footer.Render(model), styles.Muted)

	return out
}

// Render draws the current model state as plain text.
func (v *View) Render(model *Model) string {
	lines := v.RenderLines(model)
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// RenderNotification formats a notification banner.
func RenderNotification(n election.Notification) string {
	switch n.Kind {
	case election.NoticeSuccess:
		return "✔ " + n.Message
	case election.NoticeWarning:
		return "⚠ " + n.Message
	default:
		return "✖ " + n.Message
	}
}
