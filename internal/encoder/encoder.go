// Package encoder writes recordings as 16-bit PCM mono WAV files.
package encoder

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	SampleRate  = 44100
	BitDepth    = 16
	NumChannels = 1

	pcmFormat = 1
	fullScale = 32767
)

// ErrEmptyInput is returned when there are no samples to encode.
var ErrEmptyInput = errors.New("no samples to encode")

// Encode writes samples to w as a complete WAV stream. Samples are clipped
// to [-1, 1] and scaled by 32767, truncating toward zero.
func Encode(w io.WriteSeeker, samples []float32) error {
	if len(samples) == 0 {
		return ErrEmptyInput
	}

	enc := wav.NewEncoder(w, SampleRate, BitDepth, NumChannels, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			SampleRate:  SampleRate,
			NumChannels: NumChannels,
		},
		Data:           ToPCM16(samples),
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	// Close rewrites the header sizes, so it must run before the stream is used.
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav header: %w", err)
	}
	return nil
}

// WriteFile encodes samples into a new file at path. No file is created for
// empty input, and a partially written file is removed on failure.
func WriteFile(path string, samples []float32) (err error) {
	if len(samples) == 0 {
		return ErrEmptyInput
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return Encode(f, samples)
}

// ToPCM16 converts float samples to 16-bit integer sample values.
func ToPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		out[i] = int(s * fullScale)
	}
	return out
}
