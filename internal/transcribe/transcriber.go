// Package transcribe turns finished recordings into cleaned text.
package transcribe

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"time"

	"elisa/internal/audio"
	"elisa/pkg/audioconv"
	"elisa/pkg/stt"
)

// Engine is the speech-to-text backend; *stt.Engine satisfies it.
type Engine interface {
	TranscribeFile(ctx context.Context, path string, opt stt.Options) (stt.Result, error)
}

type Config struct {
	// Path of the recording artifact, overwritten on every turn.
	Path        string
	Language    string
	Temperature float32
	BeamSize    int
	Denylist    []string
	Timeout     time.Duration
}

type Transcriber struct {
	engine  Engine
	cfg     Config
	cleaner *Cleaner
}

func New(engine Engine, cfg Config) *Transcriber {
	if cfg.Denylist == nil {
		cfg.Denylist = DefaultDenylist
	}
	return &Transcriber{
		engine:  engine,
		cfg:     cfg,
		cleaner: NewCleaner(cfg.Denylist),
	}
}

// Transcribe writes buf to the recording path and returns the cleaned
// transcript. Every failure is logged and yields "".
func (t *Transcriber) Transcribe(ctx context.Context, buf *audio.Buffer) string {
	if buf == nil || len(buf.Samples) == 0 {
		log.Warn("Nothing to transcribe")
		return ""
	}

	if err := audioconv.WriteWAVFile(t.cfg.Path, buf.Samples, buf.SampleRate); err != nil {
		log.Error("Failed to write recording", "path", t.cfg.Path, "err", err)
		return ""
	}

	if _, err := os.Stat(t.cfg.Path); err != nil {
		log.Error("Recording does not exist", "path", t.cfg.Path, "err", err)
		return ""
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := t.engine.TranscribeFile(ctx, t.cfg.Path, stt.Options{
		Language:    t.cfg.Language,
		Temperature: t.cfg.Temperature,
		BeamSize:    t.cfg.BeamSize,
	})
	if err != nil {
		log.Error("Failed to transcribe", "err", fmt.Errorf("%s: %w", t.cfg.Path, err))
		return ""
	}

	text := t.cleaner.Clean(res.Text)
	log.Info("Transcribed", "text", text, "lang", res.Language, "took", time.Since(start).Round(time.Millisecond))
	return text
}
