// ABOUTME: Bubbletea model for the workbench TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

// innerWidth is the content width of the workbench box
const innerWidth = 56

// maxDiagnosticRows bounds the diagnostics table
const maxDiagnosticRows = 6

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverName string
	serverAddr string

	// Operation
	kind      string
	technique string
	carrier   string
	capacity  int
	duration  time.Duration
	message   string
	delay0    int
	delay1    int
	alpha     float64

	// Outcome
	jobID      string
	running    bool
	finished   bool
	durationMS int64
	snr        *float64
	found      *bool
	decoded    string
	errText    string

	// Diagnostics
	chunks          []stego.ChunkDiagnostic
	showDiagnostics bool

	// Preview
	preview     string
	previewCtrl *PreviewControl

	// Dimensions
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

	s := ""
	s += m.renderHeader()
	s += m.renderOperation()
	s += m.renderOutcome()

	if m.showDiagnostics {
		s += m.renderDiagnostics()
	}

	s += m.renderHelp()

	return s
}

// row renders one box line with padding
func row(s string) string {
	return fmt.Sprintf("│ %-*s │\n", innerWidth, truncate(s, innerWidth))
}

// rule renders a box divider
func rule() string {
	bar := ""
	for i := 0; i < innerWidth+2; i++ {
		bar += "─"
	}
	return "├" + bar + "┤\n"
}

// renderHeader renders connection status
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.serverName)
	}

	top := "┌─ Undertone Workbench "
	for len([]rune(top)) < innerWidth+3 {
		top += "─"
	}
	top += "┐\n"

	s := top
	s += row("Status: " + connStatus)
	if m.serverAddr != "" {
		s += row("Server: " + m.serverAddr)
	}
	s += rule()
	return s
}

// renderOperation renders the requested job
func (m Model) renderOperation() string {
	if m.kind == "" {
		return row("No operation")
	}

	s := row(fmt.Sprintf("Operation: %s/%s", m.kind, m.technique))
	if m.carrier != "" {
		s += row(fmt.Sprintf("Audio: %s (%s, %d chars capacity)",
			m.carrier, m.duration.Round(time.Millisecond), m.capacity))
	}
	if m.technique == "echo" {
		s += row(fmt.Sprintf("Echo: d0=%d d1=%d alpha=%.2f", m.delay0, m.delay1, m.alpha))
	}
	if m.kind == "encode" {
		s += row(fmt.Sprintf("Message: %q", m.message))
	}
	return s
}

// renderOutcome renders job progress and result
func (m Model) renderOutcome() string {
	s := row("")
	switch {
	case m.errText != "":
		s += row("Result: failed: " + m.errText)
	case m.running:
		s += row(fmt.Sprintf("Result: running (job %s)", shortID(m.jobID)))
	case !m.finished:
		s += row("Result: waiting")
	default:
		s += row(fmt.Sprintf("Result: done in %dms (job %s)", m.durationMS, shortID(m.jobID)))
		if m.snr != nil {
			s += row(fmt.Sprintf("SNR: %.1f dB", *m.snr))
		}
		if m.found != nil {
			if *m.found {
				s += row(fmt.Sprintf("Decoded: %q", m.decoded))
			} else {
				s += row("Decoded: " + stego.NoMessageFound)
			}
		}
	}
	if m.preview != "" {
		s += row("Preview: " + m.preview)
	}
	return s
}

// renderDiagnostics renders the echo correlation table
func (m Model) renderDiagnostics() string {
	s := rule()
	if len(m.chunks) == 0 {
		s += row("No chunk diagnostics")
		return s
	}

	s += row(fmt.Sprintf("Chunks (%d):", len(m.chunks)))
	rows := m.chunks
	if len(rows) > maxDiagnosticRows {
		rows = rows[:maxDiagnosticRows]
	}
	for _, c := range rows {
		s += row(fmt.Sprintf("  %3d  d0=%.3g  d1=%.3g  bit=%d", c.Chunk, c.Corr0, c.Corr1, c.Bit))
	}
	if rest := len(m.chunks) - len(rows); rest > 0 {
		s += row(fmt.Sprintf("  ... %d more", rest))
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	s := rule()
	s += row("o:Original  s:Stego  d:Diagnostics  q:Quit")

	bottom := "└"
	for i := 0; i < innerWidth+2; i++ {
		bottom += "─"
	}
	bottom += "┘\n"
	return s + bottom
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.signalQuit()
		return m, tea.Quit
	case "o":
		m.requestPreview(PreviewOriginal)
	case "s":
		m.requestPreview(PreviewStego)
	case "d":
		m.showDiagnostics = !m.showDiagnostics
	}

	return m, nil
}

// signalQuit tells the app the user is leaving
func (m Model) signalQuit() {
	if m.previewCtrl == nil {
		return
	}
	select {
	case m.previewCtrl.Quit <- struct{}{}:
	default:
	}
}

// requestPreview asks the app to play a buffer
func (m Model) requestPreview(target PreviewTarget) {
	if m.previewCtrl == nil {
		return
	}
	select {
	case m.previewCtrl.Requests <- target:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.ServerAddr != "" {
		m.serverAddr = msg.ServerAddr
	}
	if msg.Kind != "" {
		m.kind = msg.Kind
		m.technique = msg.Technique
	}
	if msg.Carrier != "" {
		m.carrier = msg.Carrier
		m.capacity = msg.Capacity
		m.duration = msg.Duration
	}
	if msg.Message != "" {
		m.message = msg.Message
	}
	if msg.Delay0 != 0 {
		m.delay0 = msg.Delay0
		m.delay1 = msg.Delay1
		m.alpha = msg.Alpha
	}
	if msg.JobID != "" {
		m.jobID = msg.JobID
	}
	if msg.Running != nil {
		m.running = *msg.Running
		if !m.running {
			m.finished = true
		}
	}
	if msg.DurationMS != 0 {
		m.durationMS = msg.DurationMS
	}
	if msg.SNR != nil {
		m.snr = msg.SNR
	}
	if msg.Found != nil {
		m.found = msg.Found
		m.decoded = msg.Decoded
	}
	if msg.Chunks != nil {
		m.chunks = msg.Chunks
	}
	if msg.Err != "" {
		m.errText = msg.Err
	}
	if msg.Preview != "" {
		m.preview = msg.Preview
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Connected  *bool
	ServerName string
	ServerAddr string
	Kind       string
	Technique  string
	Carrier    string
	Capacity   int
	Duration   time.Duration
	Message    string
	Delay0     int
	Delay1     int
	Alpha      float64
	JobID      string
	Running    *bool
	DurationMS int64
	SNR        *float64
	Found      *bool
	Decoded    string
	Chunks     []stego.ChunkDiagnostic
	Err        string
	Preview    string
}

// Utility functions
func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
