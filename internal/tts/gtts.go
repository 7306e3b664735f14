package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	DefaultGoogleURL = "https://translate.google.com/translate_tts"

	// the endpoint rejects longer inputs
	maxChunkRunes = 100
)

// Google synthesizes speech with the Google Translate TTS endpoint. Long
// texts are split into chunks whose MP3 streams are concatenated.
type Google struct {
	Client   *http.Client
	Endpoint string
	Lang     string
	Slow     bool
}

func NewGoogle(client *http.Client, lang string, slow bool) *Google {
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{Client: client, Endpoint: DefaultGoogleURL, Lang: lang, Slow: slow}
}

func (g *Google) Format() string { return "mp3" }

func (g *Google) Synthesize(ctx context.Context, text string, w io.WriteSeeker) error {
	chunks := splitText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return errors.New("nothing to synthesize")
	}

	for i, chunk := range chunks {
		if err := g.fetch(ctx, chunk, i, len(chunks), w); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (g *Google) fetch(ctx context.Context, chunk string, idx, total int, w io.Writer) error {
	speed := "1"
	if g.Slow {
		speed = "0.3"
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.Lang)
	q.Set("q", chunk)
	q.Set("ttsspeed", speed)
	q.Set("idx", fmt.Sprint(idx))
	q.Set("total", fmt.Sprint(total))
	q.Set("textlen", fmt.Sprint(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("empty audio")
	}
	return nil
}

// splitText cuts text into chunks of at most limit runes, preferring
// sentence ends, then word boundaries.
func splitText(text string, limit int) []string {
	var chunks []string
	rest := strings.Join(strings.Fields(text), " ")

	for rest != "" {
		if utf8.RuneCountInString(rest) <= limit {
			chunks = append(chunks, rest)
			break
		}

		runes := []rune(rest)
		window := string(runes[:limit])

		cut := strings.LastIndexAny(window, ".!?;:")
		if cut >= 0 {
			cut++ // keep the punctuation
		} else if sp := strings.LastIndex(window, " "); sp > 0 {
			cut = sp
		} else {
			cut = len(window)
		}

		if chunk := strings.TrimSpace(rest[:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		rest = strings.TrimSpace(rest[cut:])
	}
	return chunks
}
