package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// cartSaver is the part of the ledger a session needs when it ends.
type cartSaver interface {
	Close(ctx context.Context) error
	UnsavedChanges() int
	LastPersistError() error
}

type cartSavedMsg struct {
	err error
}

// saveProgress closes the ledger while reporting how many cart changes are
// still waiting for the writer.
type saveProgress struct {
	ctx    context.Context
	saver  cartSaver
	dot    spinner.Model
	result error
	saved  bool
}

func newSaveProgress(ctx context.Context, saver cartSaver) saveProgress {
	return saveProgress{
		ctx:   ctx,
		saver: saver,
		dot: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
	}
}

// closeLedger drains the writer. A drained writer can still have failed its
// last write, which LastPersistError reports.
func (p saveProgress) closeLedger() tea.Msg {
	if err := p.saver.Close(p.ctx); err != nil {
		return cartSavedMsg{err: err}
	}

	return cartSavedMsg{err: p.saver.LastPersistError()}
}

func (p saveProgress) Init() tea.Cmd {
	return tea.Batch(p.dot.Tick, p.closeLedger)
}

func (p saveProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cartSavedMsg:
		p.saved = true
		p.result = msg.err
		return p, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.dot, cmd = p.dot.Update(msg)
		return p, cmd
	}

	return p, nil
}

func (p saveProgress) View() string {
	if p.saved {
		return ""
	}

	return p.dot.View() + " " + saveLabel(p.saver.UnsavedChanges())
}

func saveLabel(unsaved int) string {
	switch unsaved {
	case 0:
		return "Saving cart..."
	case 1:
		return "Saving cart (1 change pending)..."
	default:
		return fmt.Sprintf("Saving cart (%d changes pending)...", unsaved)
	}
}

// saveCart ends a cart session: it closes saver behind a spinner on out and
// returns the close error or the last write failure.
func saveCart(ctx context.Context, out io.Writer, saver cartSaver) error {
	if ctx == nil {
		ctx = context.Background()
	}

	final, err := tea.NewProgram(
		newSaveProgress(ctx, saver),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithContext(ctx),
	).Run()
	if err != nil {
		return err
	}

	progress, ok := final.(saveProgress)
	if !ok {
		return fmt.Errorf("unexpected final save model type %T", final)
	}

	return progress.result
}
