// Package speech speaks replies: synthesis, playback and cleanup of the
// temporary audio file.
package speech

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"elisa/internal/tts"
)

// Player plays an audio file and returns once playback ended or ctx was
// cancelled.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Ducker lowers other applications while the assistant talks.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Clip is a synthesized utterance on disk. It lives from synthesis until
// playback completes.
type Clip struct {
	Path   string
	Format string
}

type Speaker struct {
	synth  tts.Synthesizer
	player Player
	ducker Ducker
	dir    string

	synthTimeout time.Duration
}

func New(synth tts.Synthesizer, player Player, dir string, synthTimeout time.Duration) (*Speaker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create speech dir: %w", err)
	}
	return &Speaker{synth: synth, player: player, dir: dir, synthTimeout: synthTimeout}, nil
}

// WithDucker enables ducking of other audio streams during playback.
func (s *Speaker) WithDucker(d Ducker) *Speaker {
	s.ducker = d
	return s
}

// Speak synthesizes and plays text in the background. The returned channel
// is closed when the utterance is over, whether it played, failed or was
// cancelled.
func (s *Speaker) Speak(ctx context.Context, text string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.speak(ctx, text)
	}()
	return done
}

func (s *Speaker) speak(ctx context.Context, text string) {
	clip, err := s.synthesize(ctx, text)
	if err != nil {
		log.Error("Failed to synthesize speech", "err", err)
		return
	}
	defer s.discard(clip)

	if s.ducker != nil {
		if err := s.ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
		defer func() {
			// restore even after cancellation
			if err := s.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to restore other streams", "err", err)
			}
		}()
	}

	start := time.Now()
	if err := s.player.Play(ctx, clip.Path); err != nil {
		log.Error("Failed to play speech", "err", err)
		return
	}
	log.Debug("Spoke", "took", time.Since(start).Round(time.Millisecond))
}

func (s *Speaker) synthesize(ctx context.Context, text string) (*Clip, error) {
	if s.synthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.synthTimeout)
		defer cancel()
	}

	clip := &Clip{
		Path:   filepath.Join(s.dir, fmt.Sprintf("respuesta_%s.%s", uuid.NewString(), s.synth.Format())),
		Format: s.synth.Format(),
	}

	f, err := os.Create(clip.Path)
	if err != nil {
		return nil, err
	}

	err = s.synth.Synthesize(ctx, text, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.discard(clip)
		return nil, err
	}
	return clip, nil
}

func (s *Speaker) discard(c *Clip) {
	if err := os.Remove(c.Path); err != nil {
		log.Debug("Failed to remove speech clip", "path", c.Path, "err", err)
	}
}
