// Package dialogue produces assistant replies: it captures the user's name,
// builds prompts for the language model and detects spoken commands.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

const DefaultMaxWords = 50

// Session is the per-process conversational state. It is owned by the turn
// controller; the engine only ever reads a copy of it.
type Session struct {
	AssistantName string
	UserName      string
}

// SetUserName stores name unless a name is already known.
func (s *Session) SetUserName(name string) bool {
	if s.UserName != "" || name == "" {
		return false
	}
	s.UserName = name
	return true
}

// Reply is the outcome of one Respond call.
type Reply struct {
	Text string

	// CapturedName is non-empty when this turn introduced the user's name; the
	// owner of the Session applies it.
	CapturedName string

	// Degraded reports that the model failed and Text is the apology.
	Degraded bool
}

// Completer is the language-model boundary: one prompt in, one reply out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Engine struct {
	llm      Completer
	locale   Locale
	maxWords int
	timeout  time.Duration
}

func NewEngine(llm Completer, locale Locale, maxWords int, timeout time.Duration) *Engine {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Engine{llm: llm, locale: locale, maxWords: maxWords, timeout: timeout}
}

func (e *Engine) Locale() Locale { return e.locale }

// Welcome is the assistant's opening line.
func (e *Engine) Welcome(sess Session) string {
	return fmt.Sprintf(e.locale.Welcome, sess.AssistantName)
}

// Respond answers text. While the session has no user name, a name
// introduction is answered with a fixed greeting without calling the model.
// Model failures yield the locale's apology.
func (e *Engine) Respond(ctx context.Context, text string, sess Session) Reply {
	if sess.UserName == "" {
		if name, ok := e.locale.ExtractName(text); ok {
			log.Info("User name detected", "name", name)
			return Reply{
				Text:         fmt.Sprintf(e.locale.Greeting, name),
				CapturedName: name,
			}
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	prompt := e.Prompt(text, sess)
	log.Debug("Prompt", "data", prompt)

	out, err := e.llm.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		log.Error("Failed to generate reply", "err", err)
		return Reply{Text: e.locale.Apology, Degraded: true}
	}

	return Reply{Text: out}
}

// Prompt embeds persona, user and the word cap around text.
func (e *Engine) Prompt(text string, sess Session) string {
	user := e.locale.AnonUser
	if sess.UserName != "" {
		user = fmt.Sprintf(e.locale.NamedUser, sess.UserName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, e.locale.Persona, sess.AssistantName)
	b.WriteString(" ")
	b.WriteString(user)
	b.WriteString(" ")
	b.WriteString(text)
	b.WriteString("\n")
	fmt.Fprintf(&b, e.locale.Instruction, e.maxWords)
	return b.String()
}
