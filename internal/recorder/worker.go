package recorder

import (
	"context"
	"time"

	"github.com/petems/audio-recorder/internal/audio"
	"github.com/rs/zerolog"
)

// worker pulls blocks from one device into one source buffer until its
// context is cancelled or the device fails.
type worker struct {
	source Source
	device audio.AudioDevice
	host   audio.Host
	sess   *Session
	buf    *sourceBuffer
	log    zerolog.Logger
	done   chan struct{}
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)

	channels := w.device.CaptureChannels()
	if channels < 1 {
		w.log.Error().Int("channels", w.device.MaxInputChannels).Msg("Unsupported channel count")
		return
	}

	stream, err := w.host.OpenInputStream(w.device.ID, audio.SampleRate, channels, audio.BlockSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to open input stream")
		return
	}
	defer stream.Close()

	w.log.Info().Int("channels", channels).Msg("Capture started")

	blocks := 0
	for ctx.Err() == nil {
		block, err := stream.Read()
		if err != nil {
			w.log.Error().Err(err).Int("blocks", blocks).Msg("Capture stopped on read error")
			return
		}
		frames := len(block) / channels
		w.sess.append(w.source, w.buf, audio.DownmixInterleaved(block, channels, frames))
		blocks++
	}

	w.log.Debug().Int("blocks", blocks).Msg("Capture finished")
}

// wait blocks until the worker exits or timeout passes. It reports whether
// the worker exited.
func (w *worker) wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}
