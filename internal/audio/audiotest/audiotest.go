// Package audiotest provides a scripted audio.Host for tests.
package audiotest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petems/audio-recorder/internal/audio"
)

// ErrExhausted is returned by a stream once its script has run out and the
// device is not set to block.
var ErrExhausted = errors.New("audiotest: script exhausted")

// Device is a fake input device. Blocks are returned by successive reads,
// each read first sleeping Interval. With Loop set the script repeats
// forever. Otherwise, once it runs out, the stream fails with ErrExhausted
// or, with Hang set, blocks until closed (forever when IgnoreClose is set).
type Device struct {
	Name             string
	MaxInputChannels int
	Blocks           [][]float32
	Interval         time.Duration
	Loop             bool
	Hang             bool
	IgnoreClose      bool
	OpenErr          error
}

// Host is an in-memory audio.Host. The zero value has no devices.
type Host struct {
	mu      sync.Mutex
	devices []Device
	listErr error
	opened  []OpenCall
}

// OpenCall records the arguments of an OpenInputStream call.
type OpenCall struct {
	ID         audio.DeviceID
	SampleRate int
	Channels   int
	BlockSize  int
}

// NewHost returns a host whose device IDs are the indexes of devices.
func NewHost(devices ...Device) *Host {
	return &Host{devices: devices}
}

// FailEnumeration makes InputDevices return err.
func (h *Host) FailEnumeration(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listErr = err
}

// Opened returns the streams opened so far.
func (h *Host) Opened() []OpenCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]OpenCall(nil), h.opened...)
}

func (h *Host) InputDevices() ([]audio.DeviceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	infos := make([]audio.DeviceInfo, len(h.devices))
	for i, d := range h.devices {
		infos[i] = audio.DeviceInfo{
			ID:               audio.DeviceID(i),
			Name:             d.Name,
			MaxInputChannels: d.MaxInputChannels,
		}
	}
	return infos, nil
}

func (h *Host) OpenInputStream(id audio.DeviceID, sampleRate, channels, blockSize int) (audio.InputStream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id < 0 || int(id) >= len(h.devices) {
		return nil, fmt.Errorf("audiotest: device not found: %d", id)
	}
	h.opened = append(h.opened, OpenCall{ID: id, SampleRate: sampleRate, Channels: channels, BlockSize: blockSize})

	d := h.devices[id]
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return &stream{device: d, closed: make(chan struct{})}, nil
}

func (h *Host) Close() error { return nil }

type stream struct {
	device    Device
	next      int
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *stream) Read() ([]float32, error) {
	select {
	case <-s.closed:
		return nil, audio.ErrStreamClosed
	default:
	}

	if s.device.Interval > 0 {
		time.Sleep(s.device.Interval)
	}
	if s.device.Loop && len(s.device.Blocks) > 0 {
		s.next %= len(s.device.Blocks)
	}
	if s.next < len(s.device.Blocks) {
		block := append([]float32(nil), s.device.Blocks[s.next]...)
		s.next++
		return block, nil
	}

	if !s.device.Hang {
		return nil, ErrExhausted
	}
	if s.device.IgnoreClose {
		select {}
	}
	<-s.closed
	return nil, audio.ErrStreamClosed
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// Constant returns n blocks of size samples, all set to v.
func Constant(n, size int, v float32) [][]float32 {
	blocks := make([][]float32, n)
	for i := range blocks {
		block := make([]float32, size)
		for j := range block {
			block[j] = v
		}
		blocks[i] = block
	}
	return blocks
}
