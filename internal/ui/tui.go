// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg requests a new output volume
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg requests playback shutdown
type QuitMsg struct{}

// VolumeControl holds channels for volume control communication
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(info FileInfo, volCtrl *VolumeControl) Model {
	return Model{
		info:       info,
		volume:     100,
		volumeCtrl: volCtrl,
	}
}

// Run creates the TUI program
func Run(info FileInfo, volCtrl *VolumeControl) *tea.Program {
	return tea.NewProgram(NewModel(info, volCtrl), tea.WithAltScreen())
}
