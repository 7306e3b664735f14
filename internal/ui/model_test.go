package ui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elisa/internal/avatar"
	"elisa/internal/convo"
	"elisa/internal/turn"
)

type fakeActions struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeActions) add(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeActions) Record()            { f.add("record") }
func (f *fakeActions) Submit(text string) { f.add("submit " + text) }
func (f *fakeActions) Clear()             { f.add("clear") }
func (f *fakeActions) Close()             { f.add("close") }

func newModel(t *testing.T) (Model, *fakeActions) {
	t.Helper()
	a := &fakeActions{}
	set := avatar.Set{Idle: avatar.Placeholder(), Active: avatar.Placeholder()}
	m := NewModel(a, set, "ELISA", SpanishLabels)
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}), a
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// run executes cmd the way the runtime would, ignoring ticks and blinks.
func run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		if seq, ok := msg.(tea.BatchMsg); ok {
			for _, c := range seq {
				run(c)
			}
		}
	}
}

func TestModel_SubmitTypedText(t *testing.T) {
	m, a := newModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hola elisa")})
	assert.Equal(t, "hola elisa", m.input.Value())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)
	assert.Equal(t, []string{"submit hola elisa"}, a.calls)
	assert.Empty(t, next.(Model).input.Value())

	// blank input is not sent
	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_RecordOnlyWhenEnabled(t *testing.T) {
	m, a := newModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	run(cmd)
	assert.Equal(t, []string{"record"}, a.calls)

	m = update(t, m, recordMsg(false))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
	assert.Len(t, a.calls, 1)
}

func TestModel_ClearAndQuit(t *testing.T) {
	m, a := newModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	run(cmd)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	assert.Equal(t, []string{"clear", "close"}, a.calls)
}

func TestModel_EntriesAndClear(t *testing.T) {
	m, _ := newModel(t)

	m = update(t, m, entryMsg(convo.NewEntry(convo.User, "me llamo Ana")))
	m = update(t, m, entryMsg(convo.NewEntry(convo.Assistant, "¡Mucho gusto, Ana!")))

	chat := m.renderChat()
	assert.Contains(t, chat, "Tú:")
	assert.Contains(t, chat, "me llamo Ana")
	assert.Contains(t, chat, "ELISA:")
	assert.True(t, m.viewport.AtBottom())

	m = update(t, m, clearedMsg{})
	assert.Empty(t, m.entries)
	m = update(t, m, clearedMsg{})
	assert.Empty(t, m.renderChat())
}

func TestModel_PhaseAndCountdown(t *testing.T) {
	m, _ := newModel(t)

	m = update(t, m, phaseMsg(turn.Recording))
	m = update(t, m, countdownMsg(12))
	assert.Equal(t, avatar.Active, m.mood)
	assert.Equal(t, "Grabando... 12s", m.status())
	assert.True(t, strings.Contains(m.View(), "Grabando... 12s"))

	m = update(t, m, phaseMsg(turn.Speaking))
	assert.Equal(t, avatar.Active, m.mood)
	assert.Equal(t, "Hablando...", m.status())

	gen := m.gen
	m = update(t, m, phaseMsg(turn.Idle))
	assert.Equal(t, avatar.Idle, m.mood)
	assert.Empty(t, m.status())
	assert.Greater(t, m.gen, gen)

	// ticks from the previous clip are ignored
	before := m.frame
	m = update(t, m, frameMsg{gen: gen})
	assert.Equal(t, before, m.frame)
}
