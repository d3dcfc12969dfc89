// Package tui renders a terminal UI for batch file transfers: a progress
// bar for the running file, per-file outcome lines, and cancel keys.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JamesMighty/honeywell-task/client"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	sentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	canceledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

const (
	defaultBarWidth = 50
	maxBarWidth     = 60
)

// canceler is the slice of the transfer client the key bindings drive.
type canceler interface {
	CancelTransfer()
	CancelAll()
}

// ProgressMsg snapshots the running transfer after a chunk was sent.
type ProgressMsg struct {
	CurrentFile string
	FileSize    int64
	SizeSent    int64
	Current     int
	Total       int
	Status      string
}

// FileDoneMsg reports the outcome of one batch entry.
type FileDoneMsg struct {
	Result client.FileResult
}

// BatchDoneMsg ends the program once every entry has been handled.
type BatchDoneMsg struct {
	Err error
}

// Model is the bubbletea model for a transfer batch.
type Model struct {
	client canceler
	bar    progress.Model

	total   int
	current ProgressMsg
	started bool
	results []client.FileResult
	note    string

	done     bool
	quitting bool
	err      error
	width    int
}

// New creates a model for a batch of total entries driven through c.
func New(c canceler, total int) Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = defaultBarWidth

	return Model{
		client: c,
		bar:    bar,
		total:  total,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 6; w > 0 {
			if w > maxBarWidth {
				w = maxBarWidth
			}
			m.bar.Width = w
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			m.client.CancelTransfer()
			m.note = "canceling current file"
		case "a":
			m.client.CancelAll()
			m.note = "canceling remaining transfers"
		case "q", "ctrl+c":
			m.client.CancelAll()
			m.quitting = true
			return m, tea.Quit
		}

	case ProgressMsg:
		m.current = msg
		m.started = true

	case FileDoneMsg:
		m.results = append(m.results, msg.Result)
		m.note = ""

	case BatchDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Sending files (%d/%d)", len(m.results), m.total)))
	sb.WriteString("\n")

	switch {
	case m.done:
		if m.err != nil {
			sb.WriteString(errStyle.Render(m.err.Error()))
		} else {
			sb.WriteString("All transfers finished.")
		}
		sb.WriteString("\n")
	case m.quitting:
		sb.WriteString(noteStyle.Render("canceling remaining transfers"))
		sb.WriteString("\n")
	case m.started:
		sb.WriteString(fileStyle.Render(m.current.CurrentFile))
		sb.WriteString("\n")
		sb.WriteString(m.bar.ViewAs(m.percent()))
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render(m.current.Status))
		sb.WriteString("\n")
	default:
		sb.WriteString(statusStyle.Render("connecting..."))
		sb.WriteString("\n")
	}

	if m.note != "" && !m.done && !m.quitting {
		sb.WriteString(noteStyle.Render(m.note))
		sb.WriteString("\n")
	}

	if len(m.results) > 0 {
		sb.WriteString("\n")
		for _, r := range m.results {
			sb.WriteString(renderResult(r))
			sb.WriteString("\n")
		}
	}

	if !m.done {
		sb.WriteString(helpStyle.Render("c: cancel file • a: cancel batch • q: quit"))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) percent() float64 {
	if m.current.FileSize <= 0 {
		return 1
	}
	p := float64(m.current.SizeSent) / float64(m.current.FileSize)
	if p > 1 {
		p = 1
	}
	return p
}

func renderResult(r client.FileResult) string {
	switch r.Status {
	case client.FileSent:
		return sentStyle.Render(r.String())
	case client.FileCanceled:
		return canceledStyle.Render(r.String())
	case client.FileSkipped:
		return skippedStyle.Render(r.String())
	default:
		return failedStyle.Render(r.String())
	}
}

// Run drives a whole batch through the UI: it starts the transfers in the
// background, feeds their progress into the program, and returns the
// per-file outcomes once the batch ends or the user quits.
func Run(c *client.Client, host string, port int, entries []client.FileEntry) ([]client.FileResult, error) {
	p := tea.NewProgram(New(c, len(entries)))

	c.OnProgress(func(tp *client.TransferProgress) {
		p.Send(ProgressMsg{
			CurrentFile: tp.CurrentFile,
			FileSize:    tp.FileSize,
			SizeSent:    tp.SizeSent,
			Current:     tp.CurrentFileCount,
			Total:       tp.FileCount,
			Status:      tp.String(),
		})
	})

	type outcome struct {
		results []client.FileResult
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := c.SendFiles(host, port, entries, func(r client.FileResult) {
			p.Send(FileDoneMsg{Result: r})
		})
		done <- outcome{results: results, err: err}
		p.Send(BatchDoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		return nil, err
	}
	out := <-done
	return out.results, out.err
}
