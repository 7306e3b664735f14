package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// 64ms at 16 kHz; keeps cancellation checks frequent.
const frameSize = 1024

// inputStream fills the frame buffer it was opened with on every Read.
type inputStream interface {
	Read() error
}

// openFunc opens a started mono input stream over buf. The returned func
// stops and releases it.
type openFunc func(buf []float32, sampleRate int) (inputStream, func(), error)

type Recorder struct {
	sampleRate int
	frameSize  int
	open       openFunc
}

func NewRecorder() *Recorder {
	return &Recorder{sampleRate: SampleRate, frameSize: frameSize, open: openDefault}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

func openDefault(buf []float32, sampleRate int) (inputStream, func(), error) {
	stream, err := portaudio.OpenDefaultStream(
		1, // in
		0, // no out
		float64(sampleRate),
		len(buf),
		buf,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, nil, fmt.Errorf("start stream: %w", err)
	}

	return stream, func() {
		stream.Stop()
		stream.Close()
	}, nil
}

// Record captures d of mono audio from the default input device. tick is
// called with the remaining whole seconds once at start and then after every
// elapsed second. A cancelled ctx discards whatever was captured.
func (r *Recorder) Record(ctx context.Context, d time.Duration, tick func(remaining int)) (*Buffer, error) {
	if d <= 0 {
		d = DefaultDuration
	}
	if tick == nil {
		tick = func(int) {}
	}

	buf := make([]float32, r.frameSize)

	stream, release, err := r.open(buf, r.sampleRate)
	if err != nil {
		return nil, err
	}
	defer release()

	return r.capture(ctx, stream, buf, d, tick)
}

func (r *Recorder) capture(ctx context.Context, stream inputStream, buf []float32, d time.Duration, tick func(int)) (*Buffer, error) {
	total := int(float64(r.sampleRate) * d.Seconds())
	seconds := int(math.Ceil(d.Seconds()))
	out := make([]float32, 0, total)

	tick(seconds)
	elapsed := 0

	for len(out) < total {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}

		n := min(len(buf), total-len(out))
		out = append(out, buf[:n]...)

		if s := len(out) / r.sampleRate; s > elapsed {
			elapsed = s
			if remaining := seconds - elapsed; remaining > 0 {
				tick(remaining)
			}
		}
	}

	if len(out) == 0 {
		return nil, errors.New("no audio recorded")
	}

	return &Buffer{Samples: out, SampleRate: r.sampleRate}, nil
}
