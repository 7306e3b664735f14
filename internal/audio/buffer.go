package audio

import (
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"time"
)

const (
	// SampleRate is the capture rate; whisper consumes 16 kHz mono.
	SampleRate = 16000

	DefaultDuration = 15 * time.Second

	// SmoothWindow is the moving-average width applied after normalization.
	SmoothWindow = 5
)

var ErrSilent = errors.New("silent buffer")

// Buffer is one finished microphone recording, mono float32 in [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Enhance normalizes b to unit peak and smooths it. When normalization is not
// possible the raw buffer is returned as is.
func Enhance(b *Buffer) *Buffer {
	if b == nil {
		return nil
	}

	norm, err := Normalize(b.Samples)
	if err != nil {
		log.Warn("Audio normalization failed, using raw recording", "samples", len(b.Samples), "err", err)
		return b
	}

	return &Buffer{
		Samples:    Smooth(norm, SmoothWindow),
		SampleRate: b.SampleRate,
	}
}

// Normalize scales x so that its largest absolute sample is exactly 1.
func Normalize(x []float32) ([]float32, error) {
	var peak float64
	for i, v := range x {
		a := math.Abs(float64(v))
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("non-finite sample at %d", i)
		}
		if a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return nil, ErrSilent
	}

	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(float64(v) / peak)
	}
	return out, nil
}

// Smooth applies a centered moving average of the given width. Samples
// outside the signal count as zero, so the output keeps the input length.
func Smooth(x []float32, window int) []float32 {
	if window <= 1 || len(x) == 0 {
		return append([]float32(nil), x...)
	}

	off := (window - 1) / 2
	out := make([]float32, len(x))
	for i := range x {
		var sum float64
		for j := 0; j < window; j++ {
			k := i + off - j
			if k < 0 || k >= len(x) {
				continue
			}
			sum += float64(x[k])
		}
		out[i] = float32(sum / float64(window))
	}
	return out
}
