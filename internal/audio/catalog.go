package audio

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// Names that mirror the system output (desktop audio).
	loopbackKeywords = []string{"stereo mix", "what u hear", "loopback", "wave out", "output", "mixage"}

	// Windows virtual routers alias the default device and would be listed twice.
	excludedKeywords = []string{"sound mapper", "primary"}

	micPriorityKeywords = []string{"microphone", "mic", "headset", "webcam", "usb", "realtek", "input"}
	micStrictKeywords   = []string{"microphone", "mic", "headset"}
)

// Catalog enumerates and classifies the host's input devices.
type Catalog struct {
	host Host
	log  zerolog.Logger
}

// NewCatalog creates a catalog backed by host.
func NewCatalog(host Host, log zerolog.Logger) *Catalog {
	return &Catalog{host: host, log: log}
}

// ListInputDevices queries the host on every call. Enumeration failures are
// logged and reported as an empty list.
func (c *Catalog) ListInputDevices() []AudioDevice {
	infos, err := c.host.InputDevices()
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to enumerate input devices")
		return []AudioDevice{}
	}

	devices := make([]AudioDevice, 0, len(infos))
	for _, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		name := strings.ToLower(info.Name)
		if containsAny(name, excludedKeywords) {
			c.log.Debug().Str("device", info.Name).Msg("Skipping virtual router device")
			continue
		}
		devices = append(devices, AudioDevice{
			ID:               info.ID,
			Name:             info.Name,
			MaxInputChannels: info.MaxInputChannels,
			IsLoopback:       containsAny(name, loopbackKeywords),
		})
	}
	return devices
}

// ListMicrophones returns the non-loopback devices, likely microphones first.
func (c *Catalog) ListMicrophones() []AudioDevice {
	var mics []AudioDevice
	for _, d := range c.ListInputDevices() {
		if !d.IsLoopback {
			mics = append(mics, d)
		}
	}

	rank := func(d AudioDevice) int {
		if containsAny(strings.ToLower(d.Name), micPriorityKeywords) {
			return 0
		}
		return 1
	}
	sort.SliceStable(mics, func(i, j int) bool {
		ri, rj := rank(mics[i]), rank(mics[j])
		if ri != rj {
			return ri < rj
		}
		return mics[i].ID < mics[j].ID
	})
	return mics
}

// ListLoopbackDevices returns loopback devices in enumeration order.
func (c *Catalog) ListLoopbackDevices() []AudioDevice {
	var loops []AudioDevice
	for _, d := range c.ListInputDevices() {
		if d.IsLoopback {
			loops = append(loops, d)
		}
	}
	return loops
}

// DefaultMicrophone picks a device that is clearly a microphone, falling
// back to the first non-loopback input.
func (c *Catalog) DefaultMicrophone() (DeviceID, bool) {
	mics := c.ListMicrophones()
	if len(mics) == 0 {
		return DefaultDevice, false
	}
	for _, d := range mics {
		if containsAny(strings.ToLower(d.Name), micStrictKeywords) {
			return d.ID, true
		}
	}
	return mics[0].ID, true
}

// DefaultLoopback returns the first loopback device.
func (c *Catalog) DefaultLoopback() (DeviceID, bool) {
	loops := c.ListLoopbackDevices()
	if len(loops) == 0 {
		return DefaultDevice, false
	}
	return loops[0].ID, true
}

// Lookup finds the current snapshot of an explicit device id.
func (c *Catalog) Lookup(id DeviceID) (AudioDevice, bool) {
	for _, d := range c.ListInputDevices() {
		if d.ID == id {
			return d, true
		}
	}
	return AudioDevice{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
