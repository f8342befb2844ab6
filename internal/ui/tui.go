// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the workbench UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// PreviewTarget selects which buffer to audition
type PreviewTarget int

const (
	// PreviewOriginal plays the clean input audio
	PreviewOriginal PreviewTarget = iota
	// PreviewStego plays the embedded audio
	PreviewStego
)

// PreviewControl carries preview requests and the quit signal from
// the TUI to the app
type PreviewControl struct {
	Requests chan PreviewTarget
	Quit     chan struct{}
}

// NewPreviewControl creates a new preview control handler
func NewPreviewControl() *PreviewControl {
	return &PreviewControl{
		Requests: make(chan PreviewTarget, 4),
		Quit:     make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(previewCtrl *PreviewControl) Model {
	return Model{
		previewCtrl: previewCtrl,
	}
}

// Run starts the TUI
func Run(previewCtrl *PreviewControl) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(previewCtrl), tea.WithAltScreen())
	return p, nil
}
