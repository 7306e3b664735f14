// Package espeak synthesizes speech locally with espeak-ng.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static short *elisa_pcm;
static int elisa_len;
static int elisa_cap;

static int
elisa_collect(short *wav, int n, espeak_EVENT *events)
{
	if (!wav || n <= 0)
	{ return 0; }

	if (elisa_len + n > elisa_cap)
	{
		int cap = (elisa_len + n) * 2;
		short *p = realloc(elisa_pcm, cap * sizeof(short));
		if (!p)
		{ return 1; }
		elisa_pcm = p;
		elisa_cap = cap;
	}

	memcpy(elisa_pcm + elisa_len, wav, n * sizeof(short));
	elisa_len += n;
	return 0;
}

static int
elisa_init(void)
{
	int rate = espeak_Initialize(AUDIO_OUTPUT_SYNCHRONOUS, 500, NULL, 0);
	if (rate > 0)
	{ espeak_SetSynthCallback(elisa_collect); }
	return rate;
}

static int
elisa_synth(const char *text, const char *lang, int wpm)
{
	espeak_VOICE specs;
	memset(&specs, 0, sizeof(specs));
	specs.languages = lang;
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -1; }

	espeak_SetParameter(espeakRATE, wpm, 0);

	elisa_len = 0;
	if (espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -1; }
	espeak_Synchronize();

	return elisa_len;
}

static short *
elisa_samples(void)
{ return elisa_pcm; }
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"unsafe"

	"elisa/pkg/audioconv"
)

const (
	NormalRate = 175 // words per minute
	SlowRate   = 120
)

// Synthesizer renders WAV audio with espeak-ng. espeak keeps global state,
// so synthesis is serialized process-wide.
type Synthesizer struct {
	lang       string
	wpm        int
	sampleRate int
}

var (
	mu       sync.Mutex
	initOnce sync.Once
	initRate int
)

func New(lang string, slow bool) (*Synthesizer, error) {
	initOnce.Do(func() {
		initRate = int(C.elisa_init())
	})
	if initRate <= 0 {
		return nil, errors.New("espeak_Initialize failed")
	}

	wpm := NormalRate
	if slow {
		wpm = SlowRate
	}
	return &Synthesizer{lang: lang, wpm: wpm, sampleRate: initRate}, nil
}

func (s *Synthesizer) Format() string { return "wav" }

// Synthesize ignores ctx once synthesis started; espeak has no cancel hook
// in synchronous mode.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, w io.WriteSeeker) error {
	if text == "" {
		return errors.New("nothing to synthesize")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pcm, err := s.render(text)
	if err != nil {
		return err
	}
	return audioconv.EncodeWAVInt16(w, pcm, s.sampleRate)
}

func (s *Synthesizer) render(text string) ([]int16, error) {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(s.lang)
	defer C.free(unsafe.Pointer(clang))

	mu.Lock()
	defer mu.Unlock()

	n := int(C.elisa_synth(ctext, clang, C.int(s.wpm)))
	if n < 0 {
		return nil, fmt.Errorf("espeak synth failed for voice %q", s.lang)
	}
	if n == 0 {
		return nil, errors.New("espeak produced no audio")
	}

	samples := unsafe.Slice((*int16)(unsafe.Pointer(C.elisa_samples())), n)
	return append([]int16(nil), samples...), nil
}
