package transcribe

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultDenylist holds tokens whisper is known to hallucinate on Spanish
// audio with background noise or silence.
var DefaultDenylist = []string{"喝水", "thereel", "谢谢", "gracias", "thank you"}

// Cleaner strips denylisted tokens from raw transcripts.
type Cleaner struct {
	deny *regexp.Regexp
}

func NewCleaner(denylist []string) *Cleaner {
	var alts []string
	for _, token := range denylist {
		if token = strings.TrimSpace(token); token != "" {
			alts = append(alts, regexp.QuoteMeta(token))
		}
	}
	if len(alts) == 0 {
		return &Cleaner{}
	}
	return &Cleaner{deny: regexp.MustCompile(`(?i)(` + strings.Join(alts, "|") + `)`)}
}

// Clean removes every denylisted token (case-insensitively), collapses
// whitespace and capitalizes the first letter while lower-casing the rest.
// Removal repeats until no token is left, including ones formed by joining
// the pieces around a removed token.
func (c *Cleaner) Clean(text string) string {
	text = collapse(text)
	for c.deny != nil {
		next := collapse(c.deny.ReplaceAllString(text, ""))
		if next == text {
			break
		}
		text = next
	}
	return capitalize(text)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
