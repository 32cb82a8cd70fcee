package audio

import "fmt"

// Host backends selectable from config.
const (
	BackendPortAudio = "portaudio"
	BackendMiniaudio = "miniaudio"
)

// NewHost opens the named backend. An empty name selects PortAudio.
func NewHost(backend string) (Host, error) {
	switch backend {
	case "", BackendPortAudio:
		return NewPortAudioHost()
	case BackendMiniaudio:
		return NewMiniaudioHost()
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", backend)
	}
}
