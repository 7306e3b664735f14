package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"elisa/pkg/audioconv"
)

const (
	playerRate   = beep.SampleRate(44100)
	PollInterval = 100 * time.Millisecond
)

// Player plays audio files through the default output device. One file plays
// at a time; concurrent Play calls wait for each other.
type Player struct {
	mu   sync.Mutex
	rate beep.SampleRate
	poll time.Duration
}

func NewPlayer() *Player {
	return &Player{rate: playerRate, poll: PollInterval}
}

func (p *Player) Init() error {
	return speaker.Init(p.rate, p.rate.N(time.Second/10))
}

func (p *Player) Close() {
	speaker.Clear()
	speaker.Close()
}

// Play blocks until the file finished playing, polling every PollInterval.
// Cancelling ctx cuts playback off immediately.
func (p *Player) Play(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	streamer, format, err := decodeFile(path, p.rate)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	var done atomic.Bool
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		done.Store(true)
	})))

	t := time.NewTicker(p.poll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			speaker.Clear()
			return ctx.Err()
		case <-t.C:
			if done.Load() {
				return nil
			}
		}
	}
}

// decodeFile streams mp3 and wav through beep. Anything else (ogg vorbis,
// ogg opus) is decoded up front to mono at rate.
func decodeFile(path string, rate beep.SampleRate) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" && ext != ".wav" {
		samples, err := audioconv.DecodeFile(path, audioconv.Options{SampleRate: int(rate)})
		if err != nil {
			return nil, beep.Format{}, err
		}
		return &pcmStream{samples: samples}, beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	if ext == ".mp3" {
		s, format, err = mp3.Decode(f)
	} else {
		s, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return s, format, nil
}

// pcmStream plays decoded mono samples on both channels.
type pcmStream struct {
	samples []float32
	pos     int
}

func (s *pcmStream) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := min(len(out), len(s.samples)-s.pos)
	for i := range n {
		v := float64(s.samples[s.pos+i])
		out[i] = [2]float64{v, v}
	}
	s.pos += n
	return n, true
}

func (s *pcmStream) Err() error    { return nil }
func (s *pcmStream) Len() int      { return len(s.samples) }
func (s *pcmStream) Position() int { return s.pos }
func (s *pcmStream) Close() error  { return nil }

func (s *pcmStream) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}
