package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/JonMunkholm/tablekit/internal/core"
	tea "github.com/charmbracelet/bubbletea"
)

// CommandTimeout bounds a single file import or export.
var CommandTimeout = 2 * time.Minute

type DoneMsg string
type ErrMsg struct{ Err error }

func (e ErrMsg) Error() string { return e.Err.Error() }

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), CommandTimeout)
}

func failed(err error) tea.Msg {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrMsg{Err: fmt.Errorf("operation timed out after %v", CommandTimeout)}
	}
	return ErrMsg{Err: err}
}

// importCmd replaces the table with the CSV file at path.
func (m *Model) importCmd(path string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()

		f, err := os.Open(path)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("open %s: %w", path, err)}
		}
		defer f.Close()

		summary, err := svc.Import(ctx, f)
		if err != nil {
			return failed(err)
		}
		msg := fmt.Sprintf("Imported %d rows from %s", summary.Rows, path)
		if n := len(summary.AddedColumns); n > 0 {
			msg += fmt.Sprintf(" (%d new columns)", n)
		}
		return DoneMsg(msg)
	}
}

// exportCmd writes every record's visible columns to path.
func (m *Model) exportCmd(path string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()

		f, err := os.Create(path)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("create %s: %w", path, err)}
		}
		rows, err := svc.Export(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return failed(err)
		}
		return DoneMsg(fmt.Sprintf("Exported %d rows to %s", rows, path))
	}
}

func (m *Model) toggleColumnCmd(key string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		cols, err := svc.ToggleColumn(context.Background(), key)
		if err != nil {
			return ErrMsg{Err: err}
		}
		state := "hidden"
		if i := cols.Index(key); i >= 0 && cols[i].Visible {
			state = "shown"
		}
		return DoneMsg(fmt.Sprintf("Column %s %s", key, state))
	}
}

func (m *Model) resetColumnsCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if _, err := svc.ResetColumns(context.Background()); err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg("Columns reset")
	}
}

func (m *Model) pageSizeCmd(n int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		svc.SetPageSize(n)
		return DoneMsg(fmt.Sprintf("Showing %d rows per page", n))
	}
}

func (m *Model) saveCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		n, err := svc.SaveEdits(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg(fmt.Sprintf("Saved %d rows", n))
	}
}

func (m *Model) cancelCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		svc.CancelEdits(context.Background())
		return DoneMsg("Edits discarded")
	}
}

// errorText renders err the way the web UI does.
func errorText(err error) string {
	if text := core.FormatUserError(err); text != "" && core.IsUserFacing(err) {
		return text
	}
	return err.Error()
}
