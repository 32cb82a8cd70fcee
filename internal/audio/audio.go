package audio

const (
	// SampleRate is the fixed capture and output rate.
	SampleRate = 44100
	// BlockSize is the number of frames pulled from a device per read.
	BlockSize = 1024
	// MaxCaptureChannels caps the channel count requested from a device.
	MaxCaptureChannels = 2
)

// DeviceID is the host's handle for an input device.
type DeviceID int

// DefaultDevice asks the catalog to pick a device.
const DefaultDevice DeviceID = -1

// DeviceInfo is what a Host reports for each device it knows about.
type DeviceInfo struct {
	ID               DeviceID
	Name             string
	MaxInputChannels int
}

// Host is the audio subsystem the recorder runs on
type Host interface {
	InputDevices() ([]DeviceInfo, error)
	OpenInputStream(id DeviceID, sampleRate, channels, blockSize int) (InputStream, error)
	Close() error
}

// InputStream yields one block of interleaved samples per Read.
// Read blocks until the block is available.
type InputStream interface {
	Read() ([]float32, error)
	Close() error
}

// AudioDevice is a classified snapshot of an input device taken at
// enumeration time. It goes stale when hardware changes.
type AudioDevice struct {
	ID               DeviceID
	Name             string
	MaxInputChannels int
	IsLoopback       bool
}

// CaptureChannels is the channel count a worker should open the device with.
func (d AudioDevice) CaptureChannels() int {
	if d.MaxInputChannels > MaxCaptureChannels {
		return MaxCaptureChannels
	}
	return d.MaxInputChannels
}

// DownmixInterleaved averages interleaved frames down to mono. Mono input is
// copied so the caller may reuse its read buffer.
func DownmixInterleaved(samples []float32, channels, frames int) []float32 {
	if channels <= 1 {
		out := make([]float32, frames)
		n := copy(out, samples)
		return out[:n]
	}

	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		base := i * channels
		if base+channels > len(samples) {
			return out[:i]
		}
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[base+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
