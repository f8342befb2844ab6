// ABOUTME: Server TUI for displaying subscribers and recent jobs
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxJobsShown bounds the job list on the dashboard
const maxJobsShown = 8

// ServerTUI manages the server TUI
type ServerTUI struct {
	program  *tea.Program
	updates  chan ServerStatus
	quitChan chan struct{} // Signal to stop the server

	mu     sync.Mutex
	closed bool
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name        string
	Port        int
	Subscribers []SubscriberInfo
	Jobs        []JobRecord
	Completed   int
	Failed      int
}

// SubscriberInfo holds subscriber information for display
type SubscriberInfo struct {
	Name   string
	ID     string
	Joined time.Time
}

// tuiModel is the bubbletea model for server TUI
type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{} // Channel to signal server stop
}

type tickMsg time.Time
type statusMsg ServerStatus

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tickEvery(),
	)
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			// Signal the server to stop
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220"))

	// Build the view
	var b strings.Builder

	// Title
	b.WriteString(titleStyle.Render("Undertone Server"))
	b.WriteString("\n\n")

	// Server info
	b.WriteString(headerStyle.Render("Server: "))
	b.WriteString(valueStyle.Render(m.status.Name))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Port: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.status.Port)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Uptime: "))
	uptime := time.Since(m.startTime).Round(time.Second)
	b.WriteString(valueStyle.Render(uptime.String()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Jobs: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d completed, %d failed",
		m.status.Completed, m.status.Failed)))
	b.WriteString("\n\n")

	// Connected subscribers
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Subscribers (%d)", len(m.status.Subscribers))))
	b.WriteString("\n\n")

	if len(m.status.Subscribers) == 0 {
		b.WriteString(valueStyle.Render("  No subscribers connected"))
		b.WriteString("\n")
	} else {
		for _, sub := range m.status.Subscribers {
			connected := time.Since(sub.Joined).Round(time.Second)
			b.WriteString(fmt.Sprintf("  • %s", sub.Name))
			b.WriteString(valueStyle.Render(fmt.Sprintf(" (connected %s)", connected)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	// Recent jobs
	b.WriteString(sectionStyle.Render("Recent Jobs"))
	b.WriteString("\n\n")

	jobs := m.status.Jobs
	if len(jobs) > maxJobsShown {
		jobs = jobs[:maxJobsShown]
	}
	if len(jobs) == 0 {
		b.WriteString(valueStyle.Render("  No jobs yet"))
		b.WriteString("\n")
	} else {
		for _, job := range jobs {
			b.WriteString(fmt.Sprintf("  %s ", shortID(job.ID)))
			b.WriteString(headerStyle.Render(fmt.Sprintf("%s/%s", job.Kind, job.Technique)))
			b.WriteString(valueStyle.Render(fmt.Sprintf(" %s %s",
				job.Duration.Round(time.Millisecond), jobOutcome(job))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// jobOutcome renders the result column for a job line
func jobOutcome(job JobRecord) string {
	switch {
	case job.Err != "":
		return "failed: " + job.Err
	case job.HasSNR:
		return fmt.Sprintf("snr %.1f dB", job.SNR)
	case job.HasFound && job.Found:
		return "message found"
	case job.HasFound:
		return "no message"
	default:
		return "done"
	}
}

// shortID shortens a uuid for display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewServerTUI creates a new server TUI
func NewServerTUI(serverName string, port int) *ServerTUI {
	t := &ServerTUI{
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
	}
	t.updates <- ServerStatus{Name: serverName, Port: port}
	return t
}

// Start runs the TUI until the program exits
func (t *ServerTUI) Start() error {
	m := tuiModel{
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	// Start listening for updates in a goroutine
	go func() {
		for status := range t.updates {
			if t.program != nil {
				t.program.Send(statusMsg(status))
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *ServerTUI) Update(status ServerStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop stops the TUI
func (t *ServerTUI) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true

	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
