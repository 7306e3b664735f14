package dialogue

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale carries every user-facing phrase of the dialogue engine.
type Locale struct {
	Tag language.Tag

	// NameTriggers are tried in order; the first one present wins.
	NameTriggers []string

	Welcome  string // %s = assistant name
	Greeting string // %s = user name
	Apology  string

	Persona     string // %s = assistant name
	NamedUser   string // %s = user name
	AnonUser    string
	Instruction string // %d = word cap

	UserLabel string

	triggers []*regexp.Regexp
}

var Spanish = compile(Locale{
	Tag:          language.Spanish,
	NameTriggers: []string{"me llamo", "mi nombre es", "soy"},
	Welcome:      "¡Hola! Soy %s, tu asistente virtual. ¿Cómo te llamas?",
	Greeting:     "¡Mucho gusto, %s! ¿En qué puedo ayudarte hoy?",
	Apology:      "Lo siento, no pude procesar tu solicitud.",
	Persona:      "Eres %s, un asistente virtual en español.",
	NamedUser:    "El usuario %s te dice:",
	AnonUser:     "Usuario:",
	Instruction:  "Responde de manera clara y concisa en español (máximo %d palabras):",
	UserLabel:    "Tú",
})

var English = compile(Locale{
	Tag:          language.English,
	NameTriggers: []string{"my name is", "i'm called", "i am"},
	Welcome:      "Hi! I'm %s, your virtual assistant. What's your name?",
	Greeting:     "Nice to meet you, %s! How can I help you today?",
	Apology:      "Sorry, I couldn't process your request.",
	Persona:      "You are %s, a virtual assistant.",
	NamedUser:    "The user %s says:",
	AnonUser:     "User:",
	Instruction:  "Reply clearly and concisely (at most %d words):",
	UserLabel:    "You",
})

// LocaleFor maps a language code ("es", "en-US") to a Locale, defaulting to
// Spanish.
func LocaleFor(code string) Locale {
	if strings.HasPrefix(strings.ToLower(code), "en") {
		return English
	}
	return Spanish
}

// compile builds the whole-word matchers for l.NameTriggers.
func compile(l Locale) Locale {
	l.triggers = make([]*regexp.Regexp, len(l.NameTriggers))
	for i, trigger := range l.NameTriggers {
		l.triggers[i] = triggerPattern(trigger)
	}
	return l
}

func triggerPattern(trigger string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|\P{L})(` + regexp.QuoteMeta(normalize(trigger)) + `)(?:\P{L}|$)`)
}

// normalize lower-cases s and folds typographic apostrophes.
func normalize(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(strings.ToLower(s))
}

// ExtractName looks for the first configured trigger phrase in text and
// returns the title-cased remainder after it. Triggers only match whole
// words, so "soy" does not fire inside "soya". Only the first trigger found
// is considered.
func (l Locale) ExtractName(text string) (string, bool) {
	lower := normalize(text)

	triggers := l.triggers
	if len(triggers) != len(l.NameTriggers) {
		// locale built outside compile
		triggers = compile(l).triggers
	}
	for _, re := range triggers {
		m := re.FindStringSubmatchIndex(lower)
		if m == nil {
			continue
		}

		name := strings.Trim(lower[m[3]:], sentencePunct)
		if utf8.RuneCountInString(name) < 2 {
			return "", false
		}
		return cases.Title(l.Tag).String(name), true
	}
	return "", false
}
