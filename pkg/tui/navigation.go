// Package tui provides navigation functions for the TUI dashboard.
package tui

// PanelOrder defines the circular navigation order of panels.
// Order: Status → Candidates → Voter → Admin → Command → Status
var PanelOrder = []PanelType{
	PanelStatus,
	PanelCandidates,
	PanelVoter,
	PanelAdmin,
	PanelCommand,
}

// VisiblePanels returns the panels shown for the model, in navigation order.
// The admin panel is only shown to the contract owner.
func VisiblePanels(model *Model) []PanelType {
	panels := make([]PanelType, 0, PanelCount)
	for _, p := range PanelOrder {
		if p == PanelAdmin && !model.IsAdmin() {
			continue
		}
		panels = append(panels, p)
	}
	return panels
}

// IsVisiblePanel returns true if the panel is shown for the model.
func IsVisiblePanel(model *Model, panel PanelType) bool {
	for _, p := range VisiblePanels(model) {
		if p == panel {
			return true
		}
	}
	return false
}

// NavigateNext moves the model's active panel to the next visible panel.
func NavigateNext(model *Model) {
	step(model, 1)
}

// NavigatePrev moves the model's active panel to the previous visible panel.
func NavigatePrev(model *Model) {
	step(model, -1)
}

func step(model *Model, delta int) {
	panels := VisiblePanels(model)
	idx := 0
	for i, p := range panels {
		if p == model.ActivePanel {
			idx = i
			break
		}
	}
	n := len(panels)
	model.ActivePanel = panels[((idx+delta)%n+n)%n]
}

// NavigateToPanel sets the model's active panel if it is visible.
func NavigateToPanel(model *Model, panel PanelType) {
	if IsValidPanel(panel) && IsVisiblePanel(model, panel) {
		model.ActivePanel = panel
	}
}

// IsValidPanel returns true if the panel type is valid.
func IsValidPanel(panel PanelType) bool {
	return panel >= 0 && panel < PanelType(PanelCount)
}
