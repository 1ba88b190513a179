// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Shows file details, sync regime and drift, with volume keys
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scummtools/robot-go/internal/player"
	"github.com/scummtools/robot-go/internal/sync"
	psync "github.com/scummtools/robot-go/pkg/sync"
)

const panelWidth = 54

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(panelWidth)
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// FileInfo describes the file being played
type FileInfo struct {
	Name       string
	Version    uint16
	FrameRate  int
	SampleRate int
	Stride     string
	Duration   float64
}

// Model represents the TUI state
type Model struct {
	info   FileInfo
	status player.Status
	seen   bool

	// Playback
	volume int
	muted  bool

	showDebug bool

	volumeCtrl *VolumeControl

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderPlayback())
	b.WriteString(m.renderControls())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("↑/↓:Volume  m:Mute  d:Debug  q:Quit"))

	return panelStyle.Render(b.String())
}

func (m Model) renderHeader() string {
	return titleStyle.Render("Robot Player") + "\n" +
		fmt.Sprintf("%s %s\n", labelStyle.Render("File:  "), truncate(m.info.Name, 42)) +
		fmt.Sprintf("%s v%d, %d fps, %d Hz mono, %s stride\n",
			labelStyle.Render("Format:"), m.info.Version, m.info.FrameRate, m.info.SampleRate, m.info.Stride)
}

func (m Model) renderPlayback() string {
	if !m.seen {
		return "\nWaiting for playback\n"
	}

	st := m.status
	progress := 0
	if st.FrameCount > 1 {
		progress = st.Frame * 100 / (st.FrameCount - 1)
	}

	state := "Playing"
	if st.Done {
		state = "Finished"
	}

	return fmt.Sprintf("\n%s %s\n", labelStyle.Render("State: "), state) +
		fmt.Sprintf("%s [%s] %d/%d\n", labelStyle.Render("Frame: "), renderBar(progress, 100, 20), st.Frame, st.FrameCount-1) +
		fmt.Sprintf("%s %s at %.0f fps\n", labelStyle.Render("Regime:"), regimeStyle(st.Regime).Render(st.Regime.String()), st.Rate) +
		fmt.Sprintf("%s %+.3fs (%s)\n", labelStyle.Render("Drift: "), st.Drift, qualityStyle(st.Quality).Render(st.Quality.String()))
}

func (m Model) renderControls() string {
	muteText := ""
	if m.muted {
		muteText = " (muted)"
	}
	return fmt.Sprintf("%s [%s] %d%%%s\n",
		labelStyle.Render("Volume:"), renderBar(m.volume, 100, 10), m.volume, muteText)
}

func (m Model) renderDebug() string {
	st := m.status
	return fmt.Sprintf("\nVideo: %.3fs  Audio: %.3fs\nUnderrun samples: %d\n",
		st.VideoTime, st.AudioTime, st.Underruns)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.sendVolume()
	case "down":
		m.volume = max(m.volume-5, 0)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.status = msg.Status
	m.seen = true
}

// StatusMsg carries one playback status update
type StatusMsg struct {
	player.Status
}

func regimeStyle(r psync.Regime) lipgloss.Style {
	switch r {
	case psync.RegimeNormal:
		return goodStyle
	default:
		return warnStyle
	}
}

func qualityStyle(q sync.Quality) lipgloss.Style {
	switch q {
	case sync.QualityGood:
		return goodStyle
	case sync.QualityDegraded:
		return warnStyle
	default:
		return badStyle
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
