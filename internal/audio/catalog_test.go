package audio_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/audio/audiotest"
)

func windowsDevices() []audiotest.Device {
	return []audiotest.Device{
		{Name: "Microsoft Sound Mapper - Input", MaxInputChannels: 2},           // 0 excluded
		{Name: "Speakers (Realtek High Definition Audio)", MaxInputChannels: 0}, // 1 not an input
		{Name: "Line In (High Definition Audio)", MaxInputChannels: 2},          // 2 plain
		{Name: "Stereo Mix (Realtek HD Audio)", MaxInputChannels: 2},            // 3 loopback
		{Name: "USB Audio Device", MaxInputChannels: 1},                         // 4 priority
		{Name: "Primary Sound Capture Driver", MaxInputChannels: 2},             // 5 excluded
		{Name: "Headset Microphone (Jabra)", MaxInputChannels: 1},               // 6 strict
		{Name: "What U Hear (Sound Blaster)", MaxInputChannels: 2},              // 7 loopback
	}
}

func newCatalog(devices ...audiotest.Device) *audio.Catalog {
	return audio.NewCatalog(audiotest.NewHost(devices...), zerolog.Nop())
}

func ids(devices []audio.AudioDevice) []audio.DeviceID {
	out := make([]audio.DeviceID, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ID)
	}
	return out
}

func TestListInputDevicesClassifies(t *testing.T) {
	c := newCatalog(windowsDevices()...)

	devices := c.ListInputDevices()
	assert.Equal(t, []audio.DeviceID{2, 3, 4, 6, 7}, ids(devices))

	loopback := map[audio.DeviceID]bool{}
	for _, d := range devices {
		loopback[d.ID] = d.IsLoopback
	}
	assert.False(t, loopback[2])
	assert.True(t, loopback[3])
	assert.False(t, loopback[4])
	assert.False(t, loopback[6])
	assert.True(t, loopback[7])
}

func TestListInputDevicesEnumerationFailure(t *testing.T) {
	host := audiotest.NewHost(windowsDevices()...)
	host.FailEnumeration(errors.New("backend gone"))
	c := audio.NewCatalog(host, zerolog.Nop())

	devices := c.ListInputDevices()
	require.NotNil(t, devices)
	assert.Empty(t, devices)
	assert.Empty(t, c.ListMicrophones())
	_, ok := c.DefaultMicrophone()
	assert.False(t, ok)
}

func TestLoopbackKeywordsCaseInsensitive(t *testing.T) {
	names := []string{
		"STEREO MIX",
		"What U Hear",
		"Monitor of Loopback",
		"Wave Out Mix",
		"Digital Output",
		"Mixage stéréo",
	}
	for _, name := range names {
		c := newCatalog(audiotest.Device{Name: name, MaxInputChannels: 2})
		devices := c.ListInputDevices()
		require.Len(t, devices, 1, name)
		assert.True(t, devices[0].IsLoopback, name)
	}
}

func TestListMicrophonesOrdering(t *testing.T) {
	c := newCatalog(windowsDevices()...)

	// USB (4) and Headset Microphone (6) match priority keywords, Line In (2) does not.
	assert.Equal(t, []audio.DeviceID{4, 6, 2}, ids(c.ListMicrophones()))
}

func TestListLoopbackDevicesEnumerationOrder(t *testing.T) {
	c := newCatalog(windowsDevices()...)
	assert.Equal(t, []audio.DeviceID{3, 7}, ids(c.ListLoopbackDevices()))
}

func TestMicrophonesAndLoopbackPartitionInputs(t *testing.T) {
	sets := [][]audiotest.Device{
		windowsDevices(),
		{},
		{{Name: "Built-in Microphone", MaxInputChannels: 1}},
		{{Name: "Loopback Audio", MaxInputChannels: 2}, {Name: "output monitor", MaxInputChannels: 2}},
		{{Name: "Sound Mapper", MaxInputChannels: 2}, {Name: "Webcam Mic", MaxInputChannels: 1}},
	}

	for _, devices := range sets {
		c := newCatalog(devices...)
		inputs := ids(c.ListInputDevices())
		mics := ids(c.ListMicrophones())
		loops := ids(c.ListLoopbackDevices())

		seen := map[audio.DeviceID]int{}
		for _, id := range append(append([]audio.DeviceID{}, mics...), loops...) {
			seen[id]++
		}
		assert.Len(t, seen, len(inputs))
		for _, id := range inputs {
			assert.Equal(t, 1, seen[id], "device %d", id)
		}
	}
}

func TestDefaultMicrophone(t *testing.T) {
	tests := []struct {
		name    string
		devices []audiotest.Device
		want    audio.DeviceID
		ok      bool
	}{
		{
			name:    "strict keyword wins over priority order",
			devices: windowsDevices(),
			want:    6,
			ok:      true,
		},
		{
			name: "falls back to first microphone",
			devices: []audiotest.Device{
				{Name: "Line In", MaxInputChannels: 2},
				{Name: "USB Audio CODEC", MaxInputChannels: 2},
			},
			want: 1,
			ok:   true,
		},
		{
			name:    "loopback only",
			devices: []audiotest.Device{{Name: "Stereo Mix", MaxInputChannels: 2}},
			want:    audio.DefaultDevice,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := newCatalog(tt.devices...).DefaultMicrophone()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLoopback(t *testing.T) {
	got, ok := newCatalog(windowsDevices()...).DefaultLoopback()
	assert.True(t, ok)
	assert.Equal(t, audio.DeviceID(3), got)

	_, ok = newCatalog(audiotest.Device{Name: "Microphone", MaxInputChannels: 1}).DefaultLoopback()
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	c := newCatalog(windowsDevices()...)

	d, ok := c.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "What U Hear (Sound Blaster)", d.Name)
	assert.True(t, d.IsLoopback)

	_, ok = c.Lookup(0)
	assert.False(t, ok, "excluded devices cannot be looked up")
	_, ok = c.Lookup(42)
	assert.False(t, ok)
}
