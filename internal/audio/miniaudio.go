package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// ErrStreamClosed is returned by Read once a stream is closed or its device
// has stopped.
var ErrStreamClosed = errors.New("audio stream closed")

// blocks buffered between the device callback and Read
const miniaudioQueueBlocks = 32

type miniaudioHost struct {
	ctx *malgo.AllocatedContext
}

// NewMiniaudioHost creates a host backed by miniaudio.
func NewMiniaudioHost() (Host, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	return &miniaudioHost{ctx: ctx}, nil
}

// InputDevices lists capture devices. miniaudio converts channel layouts
// itself, so every device accepts up to MaxCaptureChannels.
func (m *miniaudioHost) InputDevices() ([]DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}

	result := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		result = append(result, DeviceInfo{
			ID:               DeviceID(i),
			Name:             info.Name(),
			MaxInputChannels: MaxCaptureChannels,
		})
	}
	return result, nil
}

func (m *miniaudioHost) OpenInputStream(id DeviceID, sampleRate, channels, blockSize int) (InputStream, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	if id < 0 || int(id) >= len(infos) {
		return nil, fmt.Errorf("device not found: %d", id)
	}
	if channels < 1 || channels > MaxCaptureChannels {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	s := &miniaudioStream{
		blocks:   make(chan []float32, miniaudioQueueBlocks),
		done:     make(chan struct{}),
		blockLen: blockSize * channels,
		pending:  make([]float32, 0, blockSize*channels*2),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.Capture.DeviceID = infos[id].ID.Pointer()
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(blockSize)

	callbacks := malgo.DeviceCallbacks{
		Data: s.onData,
		Stop: s.shutdown,
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start device: %w", err)
	}
	s.device = device

	return s, nil
}

func (m *miniaudioHost) Close() error {
	if err := m.ctx.Uninit(); err != nil {
		return err
	}
	m.ctx.Free()
	return nil
}

type miniaudioStream struct {
	device   *malgo.Device
	blocks   chan []float32
	done     chan struct{}
	doneOnce sync.Once

	blockLen int
	pending  []float32
}

// onData runs on the miniaudio thread and regroups callback periods into
// fixed-size blocks. Blocks are dropped when the reader falls behind.
func (s *miniaudioStream) onData(_, input []byte, _ uint32) {
	s.pending = append(s.pending, bytesToFloat32(input)...)
	for len(s.pending) >= s.blockLen {
		block := make([]float32, s.blockLen)
		copy(block, s.pending)
		s.pending = append(s.pending[:0], s.pending[s.blockLen:]...)

		select {
		case s.blocks <- block:
		default:
		}
	}
}

func (s *miniaudioStream) Read() ([]float32, error) {
	select {
	case block := <-s.blocks:
		return block, nil
	case <-s.done:
		return nil, ErrStreamClosed
	}
}

func (s *miniaudioStream) shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *miniaudioStream) Close() error {
	s.shutdown()
	if s.device != nil {
		s.device.Uninit()
	}
	return nil
}

func bytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}
