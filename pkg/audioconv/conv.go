// Package audioconv reads common audio files into mono float32 PCM at a
// chosen sample rate and writes PCM back out as 16-bit WAV.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const DefaultSampleRate = 16000

type Options struct {
	SampleRate int // target rate; 0 = DefaultSampleRate
	MaxSamples int // 0 = no limit
}

// pcm is decoder output before downmix and resampling.
type pcm struct {
	samples  []float32 // interleaved
	channels int
	rate     int
}

type decodeFunc func(io.ReadSeeker) (pcm, error)

var (
	oggDecoders = []decodeFunc{decodeOggVorbis, decodeOggOpus}

	byExt = map[string][]decodeFunc{
		".wav": {decodeWAV},
		".mp3": {decodeMP3},
		".ogg": oggDecoders,
		".oga": oggDecoders,
	}

	byMagic = map[string][]decodeFunc{
		"RIFF": {decodeWAV},
		"OggS": oggDecoders,
		"ID3":  {decodeMP3},
	}
)

// DecodeFile decodes a wav, mp3 or ogg (vorbis/opus) file. Unknown
// extensions are sniffed by magic bytes.
func DecodeFile(path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoders, ok := byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		decoders, err = sniff(f)
		if err != nil {
			return nil, err
		}
	}

	var errs []error
	for _, dec := range decoders {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		p, err := dec(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return finish(p, opt), nil
	}

	return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), errors.Join(errs...))
}

func sniff(r io.ReadSeeker) ([]decodeFunc, error) {
	magic, _ := bufio.NewReader(r).Peek(4)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	for prefix, decoders := range byMagic {
		if bytes.HasPrefix(magic, []byte(prefix)) {
			return decoders, nil
		}
	}
	return nil, fmt.Errorf("unsupported format (supported: wav/mp3/ogg-vorbis/ogg-opus)")
}

func finish(p pcm, opt Options) []float32 {
	rate := opt.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	x := downmixInterleaved(p.samples, p.channels)
	if p.rate != rate {
		x = resampleLinear(x, p.rate, rate)
	}
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}

// EncodeWAV writes mono float32 samples as 16-bit PCM WAV.
func EncodeWAV(w io.WriteSeeker, samples []float32, rate int) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(math.Round(clamp(float64(v), -1, 1) * math.MaxInt16))
	}
	return encode(w, data, rate)
}

// EncodeWAVInt16 writes mono 16-bit samples as WAV.
func EncodeWAVInt16(w io.WriteSeeker, samples []int16, rate int) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	return encode(w, data, rate)
}

func encode(w io.WriteSeeker, data []int, rate int) error {
	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

// WriteWAVFile creates (or truncates) path and writes samples to it.
func WriteWAVFile(path string, samples []float32, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, samples, rate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decodeWAV(r io.ReadSeeker) (pcm, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pcm{}, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, err
	}
	if pb == nil || pb.Data == nil {
		return pcm{}, errors.New("empty wav")
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}

	p := pcm{samples: intSliceToFloat32(pb.Data, bd), channels: 1, rate: 44100}
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			p.channels = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			p.rate = pb.Format.SampleRate
		}
	}
	return p, nil
}

func decodeMP3(r io.ReadSeeker) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return pcm{}, err
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return pcm{}, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always emits stereo
	return pcm{samples: int16SliceToFloat32(ints), channels: 2, rate: rate}, nil
}

func decodeOggVorbis(r io.ReadSeeker) (pcm, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return pcm{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return pcm{}, errors.New("invalid ogg/vorbis stream")
	}
	return pcm{samples: samples, channels: format.Channels, rate: format.SampleRate}, nil
}

func decodeOggOpus(r io.ReadSeeker) (pcm, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return pcm{}, err
	}
	defer dec.Destroy()

	ch := max(1, dec.ChannelCount())

	// opus always decodes at 48 kHz; read ~0.5s per call
	var (
		out []float32
		buf = make([]int16, 48_000*ch/2)
	)
	for {
		n, err := dec.Read(buf) // samples per channel
		if n > 0 {
			out = append(out, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, err
		}
	}
	if len(out) == 0 {
		return pcm{}, errors.New("empty ogg/opus stream")
	}
	return pcm{samples: out, channels: ch, rate: 48000}, nil
}

func intSliceToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1.0, 1.0))
	}
	return out
}

func int16SliceToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	const scale = 1.0 / 32768.0
	for i, v := range data {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

func downmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	nFrames := len(in) / channels
	out := make([]float32, nFrames)
	for i := range nFrames {
		sum := 0.0
		base := i * channels
		for c := range channels {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, inSR, outSR int) []float32 {
	if inSR == outSR || len(in) == 0 {
		return in
	}
	ratio := float64(outSR) / float64(inSR)
	outN := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, outN)
	for i := range outN {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
