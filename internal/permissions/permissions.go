package permissions

import "errors"

// ErrMicrophoneDenied is returned when the OS blocks microphone capture.
var ErrMicrophoneDenied = errors.New("microphone permission not granted")
