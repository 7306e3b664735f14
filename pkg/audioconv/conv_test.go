package audioconv

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVFile_DecodesAtTargetRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	in := []float32{0, 0.5, -0.5, 1, -1, 0.25, 0, 0}
	require.NoError(t, WriteWAVFile(path, in, 16000))

	got, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, got, len(in))
	for i := range in {
		assert.InDelta(t, in[i], got[i], 1e-3, "sample %d", i)
	}

	half, err := DecodeFile(path, Options{SampleRate: 8000})
	require.NoError(t, err)
	assert.Len(t, half, len(in)/2)
}

func TestDecodeFile_SniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	require.NoError(t, WriteWAVFile(path, []float32{0.1, 0.2, 0.3}, 16000))

	renamed := filepath.Join(t.TempDir(), "rec.bin")
	require.NoError(t, os.Rename(path, renamed))

	got, err := DecodeFile(renamed, Options{MaxSamples: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func maxAbs(x []float32) float64 {
	var m float64
	for _, v := range x {
		m = max(m, math.Abs(float64(v)))
	}
	return m
}

// testdata/silence.mp3: ten silent 128 kbps stereo frames at 44.1 kHz.
func TestDecodeFile_MP3(t *testing.T) {
	got, err := DecodeFile("testdata/silence.mp3", Options{SampleRate: 44100})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(got), 9*1152)
	assert.LessOrEqual(t, len(got), 10*1152)
	assert.Less(t, maxAbs(got), 0.01)
}

// testdata/silence.opus: mono Ogg Opus, ten empty 20 ms packets and a
// 312-sample pre-skip. The vorbis decoder is tried first and must fail over.
func TestDecodeFile_OggOpus(t *testing.T) {
	got, err := DecodeFile("testdata/silence.opus", Options{SampleRate: 48000})
	require.NoError(t, err)

	assert.InDelta(t, 9600-312, len(got), 960)
	assert.Less(t, maxAbs(got), 0.01)

	half, err := DecodeFile("testdata/silence.opus", Options{})
	require.NoError(t, err)
	assert.InDelta(t, len(got)/3, len(half), 2)
}

func TestDecodeFile_CorruptOgg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roto.ogg")
	require.NoError(t, os.WriteFile(path, append([]byte("OggS"), make([]byte, 64)...), 0o644))

	_, err := DecodeFile(path, Options{})
	assert.ErrorContains(t, err, "decode roto.ogg")
}

func TestDecodeFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := DecodeFile(path, Options{})
	assert.Error(t, err)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.wav"), Options{})
	assert.Error(t, err)
}

func TestDownmixInterleaved(t *testing.T) {
	got := downmixInterleaved([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0}, got)
}

func TestResampleLinear(t *testing.T) {
	in := make([]float32, 48000)
	assert.Len(t, resampleLinear(in, 48000, 16000), 16000)
	assert.Len(t, resampleLinear(in, 16000, 16000), 48000)
	assert.Empty(t, resampleLinear(nil, 48000, 16000))
}
