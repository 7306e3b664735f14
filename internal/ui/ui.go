// Package ui is the terminal front end: avatar, conversation and input.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"elisa/internal/convo"
	"elisa/internal/turn"
)

// TUI owns the bubbletea program and forwards controller notifications to
// it.
type TUI struct {
	program *tea.Program
}

var _ turn.View = (*TUI)(nil)

func New(m Model, opts ...tea.ProgramOption) *TUI {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &TUI{program: tea.NewProgram(m, opts...)}
}

// Run blocks until the user quits or ctx is cancelled.
func (t *TUI) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		t.program.Quit()
	}()

	if _, err := t.program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (t *TUI) PhaseChanged(p turn.Phase)  { t.program.Send(phaseMsg(p)) }
func (t *TUI) EntryAdded(e convo.Entry)   { t.program.Send(entryMsg(e)) }
func (t *TUI) Countdown(remaining int)    { t.program.Send(countdownMsg(remaining)) }
func (t *TUI) Cleared()                   { t.program.Send(clearedMsg{}) }
func (t *TUI) RecordEnabled(enabled bool) { t.program.Send(recordMsg(enabled)) }
