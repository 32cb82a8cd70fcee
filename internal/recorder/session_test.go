package recorder_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/audio/audiotest"
	"github.com/petems/audio-recorder/internal/recorder"
)

const (
	monoBlock   = audio.BlockSize
	stereoBlock = audio.BlockSize * 2
)

func liveMic(v float32) audiotest.Device {
	return audiotest.Device{
		Name:             "Headset Microphone",
		MaxInputChannels: 1,
		Blocks:           audiotest.Constant(1, monoBlock, v),
		Interval:         2 * time.Millisecond,
		Loop:             true,
	}
}

func liveDesktop(v float32) audiotest.Device {
	return audiotest.Device{
		Name:             "Stereo Mix",
		MaxInputChannels: 2,
		Blocks:           audiotest.Constant(1, stereoBlock, v),
		Interval:         2 * time.Millisecond,
		Loop:             true,
	}
}

func newSession(host *audiotest.Host) *recorder.Session {
	return recorder.New(recorder.Config{
		Host:        host,
		Logger:      zerolog.Nop(),
		JoinTimeout: 500 * time.Millisecond,
	})
}

func waitForChunks(t *testing.T, s *recorder.Session, src recorder.Source, n uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, count := s.LatestChunk(src)
		return count >= n
	}, 2*time.Second, time.Millisecond)
}

func TestStopTruncatesToShorterSource(t *testing.T) {
	mic := audiotest.Device{Name: "Microphone", MaxInputChannels: 1, Blocks: audiotest.Constant(3, monoBlock, 0.2)}
	desktop := audiotest.Device{Name: "Stereo Mix", MaxInputChannels: 2, Blocks: audiotest.Constant(5, stereoBlock, 0.4)}
	s := newSession(audiotest.NewHost(mic, desktop))

	require.NoError(t, s.Start(recorder.Both, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 3)
	waitForChunks(t, s, recorder.Desktop, 5)

	out, err := s.Stop()
	require.NoError(t, err)
	require.Len(t, out, 3*monoBlock)
	for _, v := range out {
		assert.InDelta(t, 0.95, v, 1e-6)
	}
}

func TestStopBothSourcesNormalizesPeak(t *testing.T) {
	s := newSession(audiotest.NewHost(liveMic(0.1), liveDesktop(-0.5)))

	require.NoError(t, s.Start(recorder.Both, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 2)
	waitForChunks(t, s, recorder.Desktop, 2)

	out, err := s.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Zero(t, len(out)%monoBlock, "mix length is a whole number of blocks")

	var peak float32
	for _, v := range out {
		if -v > peak {
			peak = -v
		}
	}
	assert.InDelta(t, 0.95, peak, 1e-6)
	assert.False(t, s.IsRecording())
}

func TestStopSilentMixStaysSilent(t *testing.T) {
	s := newSession(audiotest.NewHost(liveMic(0), liveDesktop(0)))

	require.NoError(t, s.Start(recorder.Both, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 1)
	waitForChunks(t, s, recorder.Desktop, 1)

	out, err := s.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, out)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestDesktopOnlyPassesThroughDownmix(t *testing.T) {
	block := make([]float32, stereoBlock)
	for i := range block {
		if i%2 == 0 {
			block[i] = 0.25
		} else {
			block[i] = 0.75
		}
	}
	desktop := audiotest.Device{Name: "What U Hear", MaxInputChannels: 2, Blocks: [][]float32{block, block}}
	host := audiotest.NewHost(liveMic(0.9), desktop)
	s := newSession(host)

	require.NoError(t, s.Start(recorder.DesktopOnly, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Desktop, 2)

	out, err := s.Stop()
	require.NoError(t, err)
	require.Len(t, out, 2*monoBlock)
	for _, v := range out {
		assert.Equal(t, float32(0.5), v)
	}

	opened := host.Opened()
	require.Len(t, opened, 1)
	assert.Equal(t, audiotest.OpenCall{ID: 1, SampleRate: 44100, Channels: 2, BlockSize: 1024}, opened[0])
}

func TestStartWhileRecordingKeepsBuffers(t *testing.T) {
	s := newSession(audiotest.NewHost(liveMic(0.3)))

	require.NoError(t, s.Start(recorder.MicOnly, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 3)
	_, before := s.LatestChunk(recorder.Mic)

	err := s.Start(recorder.Both, audio.DefaultDevice, audio.DefaultDevice)
	assert.ErrorIs(t, err, recorder.ErrAlreadyRecording)
	assert.True(t, s.IsRecording())

	out, err := s.Stop()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(out), int(before)*monoBlock)
}

func TestStartWithoutDevices(t *testing.T) {
	tests := []struct {
		name    string
		devices []audiotest.Device
		mode    recorder.CaptureMode
	}{
		{name: "no devices", mode: recorder.Both},
		{name: "desktop without loopback", devices: []audiotest.Device{liveMic(0.1)}, mode: recorder.DesktopOnly},
		{name: "mic with only loopback", devices: []audiotest.Device{liveDesktop(0.1)}, mode: recorder.MicOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(audiotest.NewHost(tt.devices...))
			err := s.Start(tt.mode, audio.DefaultDevice, audio.DefaultDevice)
			assert.ErrorIs(t, err, recorder.ErrNoSourceAvailable)
			assert.False(t, s.IsRecording())
		})
	}
}

func TestBothDegradesToAvailableSource(t *testing.T) {
	s := newSession(audiotest.NewHost(liveMic(0.2)))

	require.NoError(t, s.Start(recorder.Both, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 2)

	out, err := s.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, out)
	for _, v := range out {
		assert.Equal(t, float32(0.2), v, "single source is not normalized")
	}
}

func TestExplicitDeviceSelection(t *testing.T) {
	host := audiotest.NewHost(
		audiotest.Device{Name: "Line In", MaxInputChannels: 2, Blocks: audiotest.Constant(1, stereoBlock, 0.1)},
		liveMic(0.2),
	)
	s := newSession(host)

	require.NoError(t, s.Start(recorder.MicOnly, 0, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 1)
	_, err := s.Stop()
	require.NoError(t, err)

	opened := host.Opened()
	require.Len(t, opened, 1)
	assert.Equal(t, audio.DeviceID(0), opened[0].ID)
	assert.Equal(t, 2, opened[0].Channels)

	err = s.Start(recorder.MicOnly, 42, audio.DefaultDevice)
	assert.ErrorIs(t, err, recorder.ErrNoSourceAvailable)
}

func TestStopAbandonsHungWorker(t *testing.T) {
	hung := audiotest.Device{Name: "Stereo Mix", MaxInputChannels: 2, Hang: true, IgnoreClose: true}
	s := recorder.New(recorder.Config{
		Host:        audiotest.NewHost(liveMic(0.4), hung),
		Logger:      zerolog.Nop(),
		JoinTimeout: 50 * time.Millisecond,
	})

	require.NoError(t, s.Start(recorder.Both, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 2)

	began := time.Now()
	out, err := s.Stop()
	require.NoError(t, err)
	assert.Less(t, time.Since(began), time.Second)

	require.NotEmpty(t, out)
	for _, v := range out {
		assert.Equal(t, float32(0.4), v)
	}
}

func TestStopWithoutAudioIsEmpty(t *testing.T) {
	failing := audiotest.Device{Name: "Microphone", MaxInputChannels: 1, OpenErr: assert.AnError}
	s := newSession(audiotest.NewHost(failing))

	require.NoError(t, s.Start(recorder.MicOnly, audio.DefaultDevice, audio.DefaultDevice))
	out, err := s.Stop()
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestStopWhenIdle(t *testing.T) {
	s := newSession(audiotest.NewHost())
	_, err := s.Stop()
	assert.ErrorIs(t, err, recorder.ErrNotRecording)
}

func TestStartRejectsInvalidMode(t *testing.T) {
	s := newSession(audiotest.NewHost(liveMic(0.1)))
	err := s.Start(recorder.CaptureMode(7), audio.DefaultDevice, audio.DefaultDevice)
	assert.ErrorIs(t, err, recorder.ErrInvalidMode)
	assert.False(t, s.IsRecording())
}

func TestSessionIsReusable(t *testing.T) {
	host := audiotest.NewHost(liveMic(0.1), liveDesktop(0.3))
	s := newSession(host)

	require.NoError(t, s.Start(recorder.MicOnly, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Mic, 1)
	first, err := s.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, float32(0.1), first[0])

	require.NoError(t, s.Start(recorder.DesktopOnly, audio.DefaultDevice, audio.DefaultDevice))
	waitForChunks(t, s, recorder.Desktop, 1)
	second, err := s.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, second)
	for _, v := range second {
		assert.Equal(t, float32(0.3), v, "previous recording leaked into the next one")
	}
}
