package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesMighty/honeywell-task/client"
)

type fakeCanceler struct {
	transfer bool
	all      bool
}

func (f *fakeCanceler) CancelTransfer() { f.transfer = true }
func (f *fakeCanceler) CancelAll()      { f.all = true }

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestNewModel(t *testing.T) {
	m := New(&fakeCanceler{}, 3)
	assert.Equal(t, 3, m.total)
	assert.False(t, m.done)
	assert.Contains(t, m.View(), "Sending files (0/3)")
	assert.Contains(t, m.View(), "connecting...")
}

func TestCancelFileKey(t *testing.T) {
	fake := &fakeCanceler{}
	m := New(fake, 1)

	m, cmd := update(t, m, keyMsg("c"))
	assert.Nil(t, cmd)
	assert.True(t, fake.transfer)
	assert.False(t, fake.all)
	assert.Contains(t, m.View(), "canceling current file")
}

func TestCancelBatchKey(t *testing.T) {
	fake := &fakeCanceler{}
	m := New(fake, 2)

	m, cmd := update(t, m, keyMsg("a"))
	assert.Nil(t, cmd)
	assert.True(t, fake.all)
	assert.Contains(t, m.View(), "canceling remaining transfers")
}

func TestQuitKeysCancelEverything(t *testing.T) {
	for _, msg := range []tea.Msg{keyMsg("q"), tea.KeyMsg{Type: tea.KeyCtrlC}} {
		fake := &fakeCanceler{}
		m := New(fake, 2)

		m, cmd := update(t, m, msg)
		assert.True(t, fake.all)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.True(t, m.quitting)
	}
}

func TestProgressUpdatesView(t *testing.T) {
	m := New(&fakeCanceler{}, 1)

	m, cmd := update(t, m, ProgressMsg{
		CurrentFile: "/tmp/payload.bin",
		FileSize:    1024,
		SizeSent:    512,
		Total:       1,
		Status:      "(0/1) files - /tmp/payload.bin [512.00 B/1.00 KiB, 3s/3s, 170 B/s]",
	})
	assert.Nil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "/tmp/payload.bin")
	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "170 B/s")
}

func TestFileOutcomesAccumulate(t *testing.T) {
	m := New(&fakeCanceler{}, 2)

	m, _ = update(t, m, FileDoneMsg{Result: client.FileResult{
		Entry:  client.FileEntry{Src: "/tmp/a.txt", Dest: "in/a.txt"},
		Status: client.FileSent,
	}})
	m, _ = update(t, m, FileDoneMsg{Result: client.FileResult{
		Entry:  client.FileEntry{Src: "/tmp/b.txt", Dest: "in/b.txt"},
		Status: client.FileCanceled,
	}})

	view := m.View()
	assert.Contains(t, view, "Sending files (2/2)")
	assert.Contains(t, view, "SENT: /tmp/a.txt -> in/a.txt")
	assert.Contains(t, view, "CANCELED: /tmp/b.txt -> in/b.txt")
}

func TestBatchDoneQuits(t *testing.T) {
	m := New(&fakeCanceler{}, 1)

	m, cmd := update(t, m, BatchDoneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "All transfers finished")
	assert.NotContains(t, m.View(), "cancel batch")
}

func TestBatchDoneShowsError(t *testing.T) {
	m := New(&fakeCanceler{}, 1)

	m, _ = update(t, m, BatchDoneMsg{Err: errors.New("connection refused")})
	assert.Contains(t, m.View(), "connection refused")
}

func TestWindowSizeClampsBarWidth(t *testing.T) {
	m := New(&fakeCanceler{}, 1)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, maxBarWidth, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 40})
	assert.Equal(t, 14, m.bar.Width)
}

func TestPercentHandlesZeroSize(t *testing.T) {
	m := New(&fakeCanceler{}, 1)
	m, _ = update(t, m, ProgressMsg{FileSize: 0, SizeSent: 0})
	assert.Equal(t, 1.0, m.percent())

	m, _ = update(t, m, ProgressMsg{FileSize: 100, SizeSent: 250})
	assert.Equal(t, 1.0, m.percent())
}
