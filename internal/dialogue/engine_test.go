package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newEngine(llm Completer) *Engine {
	return NewEngine(llm, Spanish, 50, time.Second)
}

func TestRespond_CapturesNameWithoutModel(t *testing.T) {
	llm := &fakeLLM{reply: "no debería usarse"}
	e := newEngine(llm)
	sess := Session{AssistantName: "ELISA"}

	r := e.Respond(context.Background(), "me llamo Ana", sess)

	assert.Equal(t, "Ana", r.CapturedName)
	assert.Equal(t, "¡Mucho gusto, Ana! ¿En qué puedo ayudarte hoy?", r.Text)
	assert.False(t, r.Degraded)
	assert.Zero(t, llm.calls)
}

func TestExtractName_Triggers(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"me llamo ana maría", "Ana María", true},
		{"Hola, mi nombre es Pedro.", "Pedro", true},
		{"yo soy luis", "Luis", true},
		{"Me llamo   JUAN  ", "Juan", true},
		{"quiero leche de soya", "", false},
		{"soy", "", false},
		{"me llamo x", "", false},
		{"qué hora es", "", false},
		// "me llamo" outranks "soy" regardless of position
		{"soy feliz, me llamo eva", "Eva", true},
	}
	for _, tt := range tests {
		got, ok := Spanish.ExtractName(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	got, ok := English.ExtractName("Well, my name is john smith")
	assert.True(t, ok)
	assert.Equal(t, "John Smith", got)
}

func TestExtractName_TypographicApostrophe(t *testing.T) {
	for _, in := range []string{"I’m called Rosa.", "I'm called Rosa."} {
		got, ok := English.ExtractName(in)
		assert.True(t, ok, "input %q", in)
		assert.Equal(t, "Rosa", got, "input %q", in)
	}
}

func TestExtractName_UncompiledLocale(t *testing.T) {
	l := Locale{Tag: Spanish.Tag, NameTriggers: []string{"llámame"}}

	got, ok := l.ExtractName("Llámame Iris")
	assert.True(t, ok)
	assert.Equal(t, "Iris", got)
}

func TestRespond_NameIsNotRecapturedOnceKnown(t *testing.T) {
	llm := &fakeLLM{reply: "Claro."}
	e := newEngine(llm)
	sess := Session{AssistantName: "ELISA"}

	r := e.Respond(context.Background(), "me llamo Ana", sess)
	require.True(t, sess.SetUserName(r.CapturedName))

	r = e.Respond(context.Background(), "me llamo Beatriz", sess)
	assert.Empty(t, r.CapturedName)
	assert.Equal(t, "Claro.", r.Text)
	assert.Equal(t, 1, llm.calls)

	assert.False(t, sess.SetUserName("Beatriz"))
	assert.Equal(t, "Ana", sess.UserName)
}

func TestRespond_ModelReplyVerbatim(t *testing.T) {
	llm := &fakeLLM{reply: "  Son las tres.\n"}
	e := newEngine(llm)

	r := e.Respond(context.Background(), "qué hora es", Session{AssistantName: "ELISA", UserName: "Ana"})

	assert.Equal(t, "  Son las tres.\n", r.Text)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t,
		"Eres ELISA, un asistente virtual en español. El usuario Ana te dice: qué hora es\n"+
			"Responde de manera clara y concisa en español (máximo 50 palabras):",
		llm.prompts[0])
}

func TestPrompt_AnonymousUser(t *testing.T) {
	e := newEngine(&fakeLLM{})
	got := e.Prompt("hola", Session{AssistantName: "ELISA"})
	assert.Contains(t, got, "Usuario: hola\n")
}

func TestRespond_FailureYieldsApology(t *testing.T) {
	for _, llm := range []*fakeLLM{
		{err: errors.New("connection refused")},
		{reply: "   "},
	} {
		e := newEngine(llm)
		r := e.Respond(context.Background(), "qué hora es", Session{AssistantName: "ELISA"})
		assert.Equal(t, Spanish.Apology, r.Text)
		assert.True(t, r.Degraded)
	}
}

type slowLLM struct{}

func (slowLLM) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRespond_TimesOut(t *testing.T) {
	e := NewEngine(slowLLM{}, Spanish, 50, 20*time.Millisecond)

	start := time.Now()
	r := e.Respond(context.Background(), "hola", Session{AssistantName: "ELISA"})

	assert.True(t, r.Degraded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWelcome(t *testing.T) {
	e := newEngine(&fakeLLM{})
	assert.Equal(t, "¡Hola! Soy ELISA, tu asistente virtual. ¿Cómo te llamas?", e.Welcome(Session{AssistantName: "ELISA"}))
	assert.Equal(t, English, LocaleFor("en-US"))
	assert.Equal(t, Spanish, LocaleFor("es"))
}
