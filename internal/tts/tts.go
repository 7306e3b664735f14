// Package tts synthesizes reply text into audio files.
package tts

import (
	"context"
	"io"
)

// Synthesizer renders text into an encoded audio stream.
type Synthesizer interface {
	// Format is the file extension of the produced audio ("mp3", "wav").
	Format() string
	Synthesize(ctx context.Context, text string, w io.WriteSeeker) error
}
