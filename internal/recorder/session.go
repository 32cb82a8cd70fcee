package recorder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petems/audio-recorder/internal/audio"
	"github.com/rs/zerolog"
)

// DefaultJoinTimeout bounds how long Stop waits for each worker.
const DefaultJoinTimeout = 2 * time.Second

// Config wires a Session to its environment.
type Config struct {
	Host        audio.Host
	Catalog     *audio.Catalog // Optional - built from Host when nil
	Logger      zerolog.Logger
	JoinTimeout time.Duration // Optional - DefaultJoinTimeout when zero
}

// Session records the microphone and desktop sources and mixes them down on
// Stop. It is created once and reused for any number of recordings.
type Session struct {
	host        audio.Host
	catalog     *audio.Catalog
	log         zerolog.Logger
	joinTimeout time.Duration

	// mu guards the buffers and append counters of both sources. It is held
	// for single appends and reads only, never across device I/O.
	mu      sync.Mutex
	buffers [numSources]*sourceBuffer
	appends [numSources]uint64

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	recording atomic.Bool
	cancel    context.CancelFunc
	workers   []*worker
}

func New(cfg Config) *Session {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = audio.NewCatalog(cfg.Host, cfg.Logger)
	}
	timeout := cfg.JoinTimeout
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}

	s := &Session{
		host:        cfg.Host,
		catalog:     catalog,
		log:         cfg.Logger,
		joinTimeout: timeout,
	}
	for i := range s.buffers {
		s.buffers[i] = &sourceBuffer{}
	}
	return s
}

// Catalog returns the device catalog the session resolves devices with.
func (s *Session) Catalog() *audio.Catalog {
	return s.catalog
}

// IsRecording reports whether a recording is in progress.
func (s *Session) IsRecording() bool {
	return s.recording.Load()
}

// Start begins a recording. audio.DefaultDevice picks the catalog default for
// that source. A source whose device cannot be resolved is skipped; if that
// leaves nothing to record Start fails with ErrNoSourceAvailable.
func (s *Session) Start(mode CaptureMode, micID, desktopID audio.DeviceID) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.recording.Load() {
		return ErrAlreadyRecording
	}

	requested := [numSources]audio.DeviceID{Mic: micID, Desktop: desktopID}
	var devices [numSources]*audio.AudioDevice
	resolved := 0
	for src := Mic; src < numSources; src++ {
		if !mode.Captures(src) {
			continue
		}
		dev, ok := s.resolve(src, requested[src])
		if !ok {
			s.log.Warn().Stringer("source", src).Int("device", int(requested[src])).Msg("No device for source, skipping")
			continue
		}
		devices[src] = &dev
		resolved++
	}
	if resolved == 0 {
		return fmt.Errorf("%w for mode %s", ErrNoSourceAvailable, mode)
	}

	s.mu.Lock()
	for i := range s.buffers {
		s.buffers[i] = &sourceBuffer{}
	}
	buffers := s.buffers
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.workers = s.workers[:0]

	for src, dev := range devices {
		if dev == nil {
			continue
		}
		w := &worker{
			source: Source(src),
			device: *dev,
			host:   s.host,
			sess:   s,
			buf:    buffers[src],
			log: s.log.With().
				Stringer("source", Source(src)).
				Str("device", dev.Name).
				Logger(),
			done: make(chan struct{}),
		}
		s.workers = append(s.workers, w)
		go w.run(ctx)
	}

	s.recording.Store(true)
	s.log.Info().Stringer("mode", mode).Int("sources", resolved).Msg("Recording started")
	return nil
}

// Stop ends the recording and returns the mixdown. Workers that do not exit
// within the join timeout are abandoned; whatever they appended before the
// buffers were frozen is kept. An empty result means nothing was captured.
func (s *Session) Stop() ([]float32, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.recording.Load() {
		return nil, ErrNotRecording
	}
	s.recording.Store(false)
	s.cancel()

	for _, w := range s.workers {
		if !w.wait(s.joinTimeout) {
			s.log.Warn().Stringer("source", w.source).Dur("timeout", s.joinTimeout).Msg("Worker did not stop in time, abandoning it")
		}
	}
	s.workers = s.workers[:0]

	var tracks [numSources][]float32
	var chunks [numSources]int
	s.mu.Lock()
	for src, b := range s.buffers {
		b.frozen = true
		tracks[src] = b.concat()
		chunks[src] = len(b.chunks)
	}
	s.mu.Unlock()

	for src := Mic; src < numSources; src++ {
		lo, hi := bounds(tracks[src])
		s.log.Debug().
			Stringer("source", src).
			Int("chunks", chunks[src]).
			Int("samples", len(tracks[src])).
			Float32("min", lo).
			Float32("max", hi).
			Msg("Captured")
	}

	mixed := Mixdown(tracks[Mic], tracks[Desktop])
	s.log.Info().Int("samples", len(mixed)).Msg("Recording stopped")
	return mixed, nil
}

// LatestChunk returns the newest chunk of src and the number of chunks ever
// appended to src. The count never resets, so a change means new audio.
func (s *Session) LatestChunk(src Source) ([]float32, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffers[src].latest(), s.appends[src]
}

func (s *Session) append(src Source, buf *sourceBuffer, chunk []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf.append(chunk) {
		s.appends[src]++
	}
}

func (s *Session) resolve(src Source, id audio.DeviceID) (audio.AudioDevice, bool) {
	if id == audio.DefaultDevice {
		var ok bool
		switch src {
		case Mic:
			id, ok = s.catalog.DefaultMicrophone()
		case Desktop:
			id, ok = s.catalog.DefaultLoopback()
		}
		if !ok {
			return audio.AudioDevice{}, false
		}
	}
	return s.catalog.Lookup(id)
}

func bounds(samples []float32) (lo, hi float32) {
	for i, v := range samples {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}
