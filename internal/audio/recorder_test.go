package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterStream writes consecutive sample indexes into the frame buffer.
type counterStream struct {
	buf    []float32
	next   int
	reads  int
	onRead func(reads int)
	err    error
}

func (s *counterStream) Read() error {
	if s.err != nil {
		return s.err
	}
	for i := range s.buf {
		s.buf[i] = float32(s.next)
		s.next++
	}
	s.reads++
	if s.onRead != nil {
		s.onRead(s.reads)
	}
	return nil
}

func testRecorder(rate, frame int, s *counterStream) (*Recorder, *bool) {
	released := false
	r := &Recorder{
		sampleRate: rate,
		frameSize:  frame,
		open: func(buf []float32, sampleRate int) (inputStream, func(), error) {
			s.buf = buf
			return s, func() { released = true }, nil
		},
	}
	return r, &released
}

func TestRecord_TicksOncePerSecond(t *testing.T) {
	s := &counterStream{}
	r, released := testRecorder(100, 50, s)

	var ticks []int
	b, err := r.Record(context.Background(), 3*time.Second, func(n int) { ticks = append(ticks, n) })
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2, 1}, ticks)
	assert.Equal(t, 100, b.SampleRate)
	assert.Len(t, b.Samples, 300)
	assert.Equal(t, 6, s.reads)
	assert.True(t, *released)
}

func TestRecord_TruncatesLastFrame(t *testing.T) {
	s := &counterStream{}
	r, _ := testRecorder(100, 40, s)

	var ticks []int
	b, err := r.Record(context.Background(), 2500*time.Millisecond, func(n int) { ticks = append(ticks, n) })
	require.NoError(t, err)

	// 2.5s rounds the countdown up
	assert.Equal(t, []int{3, 2, 1}, ticks)
	require.Len(t, b.Samples, 250)
	for i, v := range b.Samples {
		require.Equal(t, float32(i), v, "sample %d", i)
	}
}

func TestRecord_CancelledBetweenFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &counterStream{onRead: func(reads int) {
		if reads == 3 {
			cancel()
		}
	}}
	r, released := testRecorder(100, 50, s)

	b, err := r.Record(ctx, 3*time.Second, nil)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, s.reads)
	assert.True(t, *released)
}

func TestRecord_StreamErrors(t *testing.T) {
	s := &counterStream{err: errors.New("overflow")}
	r, _ := testRecorder(100, 50, s)

	_, err := r.Record(context.Background(), time.Second, nil)
	assert.ErrorContains(t, err, "read stream: overflow")

	r.open = func([]float32, int) (inputStream, func(), error) {
		return nil, nil, errors.New("open stream: no device")
	}
	_, err = r.Record(context.Background(), time.Second, nil)
	assert.ErrorContains(t, err, "no device")
}
