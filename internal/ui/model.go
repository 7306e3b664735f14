package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"elisa/internal/avatar"
	"elisa/internal/convo"
	"elisa/internal/turn"
)

const (
	avatarCols = 30
	avatarRows = 25
)

// Actions are the user requests the screen can make.
type Actions interface {
	Record()
	Submit(text string)
	Clear()
	Close()
}

// Labels are the on-screen strings.
type Labels struct {
	Record      string
	Recording   string
	Thinking    string
	Speaking    string
	Close       string
	Placeholder string
	User        string
}

var (
	SpanishLabels = Labels{
		Record:      "Grabar audio",
		Recording:   "Grabando... %ds",
		Thinking:    "Pensando...",
		Speaking:    "Hablando...",
		Close:       "Cerrar",
		Placeholder: "Escribe tu mensaje...",
		User:        "Tú",
	}
	EnglishLabels = Labels{
		Record:      "Record audio",
		Recording:   "Recording... %ds",
		Thinking:    "Thinking...",
		Speaking:    "Speaking...",
		Close:       "Close",
		Placeholder: "Type your message...",
		User:        "You",
	}
)

type (
	phaseMsg     turn.Phase
	entryMsg     convo.Entry
	countdownMsg int
	clearedMsg   struct{}
	recordMsg    bool
	frameMsg     struct{ gen int }
)

type Model struct {
	width  int
	height int
	ready  bool

	entries  []convo.Entry
	viewport viewport.Model
	input    textinput.Model
	keys     KeyMap

	phase         turn.Phase
	remaining     int
	recordEnabled bool

	avatars avatar.Set
	mood    avatar.Mood
	frame   int
	gen     int

	assistant string
	labels    Labels
	actions   Actions
}

func NewModel(actions Actions, avatars avatar.Set, assistant string, labels Labels) Model {
	ti := textinput.New()
	ti.Placeholder = labels.Placeholder
	ti.CharLimit = 1024
	ti.Focus()

	vp := viewport.New(60, 20)
	// arrows and letters belong to the input line
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return Model{
		viewport:      vp,
		input:         ti,
		keys:          DefaultKeyMap,
		recordEnabled: true,
		avatars:       avatars,
		assistant:     assistant,
		labels:        labels,
		actions:       actions,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.nextFrame())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, func() tea.Msg {
				m.actions.Close()
				return tea.Quit()
			}

		case key.Matches(msg, m.keys.Record):
			if !m.recordEnabled {
				return m, nil
			}
			return m, m.do(m.actions.Record)

		case key.Matches(msg, m.keys.Clear):
			return m, m.do(m.actions.Clear)

		case key.Matches(msg, m.keys.Send):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.do(func() { m.actions.Submit(text) })
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m = m.resize()

	case phaseMsg:
		m.phase = turn.Phase(msg)
		mood := avatar.Idle
		if m.phase != turn.Idle {
			mood = avatar.Active
		}
		if mood != m.mood {
			// restart the animation loop on the new clip
			m.mood, m.frame = mood, 0
			m.gen++
			cmds = append(cmds, m.nextFrame())
		}

	case entryMsg:
		m.entries = append(m.entries, convo.Entry(msg))
		m.viewport.SetContent(m.renderChat())
		m.viewport.GotoBottom()

	case countdownMsg:
		m.remaining = int(msg)

	case clearedMsg:
		m.entries = nil
		m.viewport.SetContent("")
		m.viewport.GotoTop()

	case recordMsg:
		m.recordEnabled = bool(msg)

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.frame++
		return m, m.nextFrame()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// do runs f off the update loop; the controller may be busy notifying us.
func (m Model) do(f func()) tea.Cmd {
	return func() tea.Msg {
		f()
		return nil
	}
}

func (m Model) nextFrame() tea.Cmd {
	clip := m.avatars.For(m.mood)
	if clip == nil || clip.Len() < 2 {
		return nil
	}
	gen := m.gen
	return tea.Tick(clip.Delay(m.frame), func(time.Time) tea.Msg {
		return frameMsg{gen: gen}
	})
}

func (m Model) resize() Model {
	chatWidth := max(20, m.width-avatarCols-6)
	chatHeight := max(5, m.height-8)

	m.viewport.Width = chatWidth
	m.viewport.Height = chatHeight
	m.input.Width = max(10, m.width-6)
	m.viewport.SetContent(m.renderChat())
	return m
}

func (m Model) renderChat() string {
	width := max(10, m.viewport.Width)
	sep := SeparatorStyle.Render(strings.Repeat("─", width))

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n" + sep + "\n")
		}
		prefix := AssistantStyle.Render(m.assistant + ":")
		if e.Speaker == convo.User {
			prefix = UserStyle.Render(m.labels.User + ":")
		}
		b.WriteString(lipgloss.NewStyle().Width(width).Render(prefix + " " + e.Text))
	}
	return b.String()
}

func (m Model) status() string {
	switch m.phase {
	case turn.Recording:
		return fmt.Sprintf(m.labels.Recording, m.remaining)
	case turn.Thinking:
		return m.labels.Thinking
	case turn.Speaking:
		return m.labels.Speaking
	default:
		return ""
	}
}

func (m Model) View() string {
	if !m.ready {
		return "..."
	}

	var face string
	if clip := m.avatars.For(m.mood); clip != nil && clip.Len() > 0 {
		face = avatar.Render(clip.Frame(m.frame), avatarCols, avatarRows)
	}

	record := RecordOnStyle.Render("ctrl+r " + m.labels.Record)
	if !m.recordEnabled {
		record = RecordOffStyle.Render(m.status())
	}

	top := TitleStyle.Render(m.assistant) + " " + StatusStyle.Render(m.status())
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		AvatarStyle.Render(face),
		ChatStyle.Render(m.viewport.View()),
	)
	buttons := lipgloss.JoinHorizontal(lipgloss.Left, record, " ", CloseStyle.Render("esc "+m.labels.Close))

	return lipgloss.JoinVertical(lipgloss.Left, top, body, InputStyle.Render(m.input.View()), buttons)
}
