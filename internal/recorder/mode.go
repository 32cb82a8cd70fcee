package recorder

import (
	"fmt"
	"strings"
)

// CaptureMode selects which sources a recording captures.
type CaptureMode int

const (
	MicOnly CaptureMode = iota
	DesktopOnly
	Both
)

// Source identifies one of the two capture inputs.
type Source int

const (
	Mic Source = iota
	Desktop
	numSources
)

func (s Source) String() string {
	switch s {
	case Mic:
		return "mic"
	case Desktop:
		return "desktop"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

func (m CaptureMode) String() string {
	switch m {
	case MicOnly:
		return "mic"
	case DesktopOnly:
		return "desktop"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m CaptureMode) Valid() bool {
	return m == MicOnly || m == DesktopOnly || m == Both
}

// Captures reports whether the mode records src.
func (m CaptureMode) Captures(src Source) bool {
	switch src {
	case Mic:
		return m == MicOnly || m == Both
	case Desktop:
		return m == DesktopOnly || m == Both
	}
	return false
}

// ParseMode accepts the text forms used in config and flags.
func ParseMode(s string) (CaptureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mic", "microphone":
		return MicOnly, nil
	case "desktop":
		return DesktopOnly, nil
	case "both":
		return Both, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
