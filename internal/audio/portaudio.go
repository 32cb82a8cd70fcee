package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type portAudioHost struct{}

// NewPortAudioHost initializes PortAudio. Close terminates it.
func NewPortAudioHost() (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioHost{}, nil
}

// InputDevices reports every PortAudio device; the ID is its index in the
// host's device list.
func (p *portAudioHost) InputDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]DeviceInfo, 0, len(devices))
	for i, d := range devices {
		result = append(result, DeviceInfo{
			ID:               DeviceID(i),
			Name:             d.Name,
			MaxInputChannels: d.MaxInputChannels,
		})
	}
	return result, nil
}

func (p *portAudioHost) OpenInputStream(id DeviceID, sampleRate, channels, blockSize int) (InputStream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if id < 0 || int(id) >= len(devices) {
		return nil, fmt.Errorf("device not found: %d", id)
	}
	device := devices[id]

	if channels < 1 || channels > device.MaxInputChannels {
		return nil, fmt.Errorf("unsupported channel count %d for %q", channels, device.Name)
	}

	buffer := make([]float32, blockSize*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultHighInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: blockSize,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	return &portAudioStream{stream: stream, buffer: buffer}, nil
}

func (p *portAudioHost) Close() error {
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	buffer []float32
}

func (s *portAudioStream) Read() ([]float32, error) {
	// An overflow still delivers a full block; only the samples the driver
	// dropped before it are lost.
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	samples := make([]float32, len(s.buffer))
	copy(samples, s.buffer)
	return samples, nil
}

func (s *portAudioStream) Close() error {
	s.stream.Stop()
	return s.stream.Close()
}
