package tray

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/audio-recorder/internal/app"
	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/logging"
	"github.com/petems/audio-recorder/internal/recorder"
)

const (
	noLoopbackLabel = "No loopback device found - Enable Stereo Mix"
	autoDeviceLabel = "Automatic"
	savedFlash      = 3 * time.Second
)

type UI struct {
	app     *app.App
	version string
	commit  string
	log     zerolog.Logger

	mu        sync.Mutex
	state     string
	mode      recorder.CaptureMode
	startedAt time.Time
	levels    recorder.Levels
	approve   bool

	// Menu items
	mStartStop *systray.MenuItem
	mModes     map[recorder.CaptureMode]*systray.MenuItem
	mMics      *systray.MenuItem
	mDesktops  *systray.MenuItem
	mApprove   *systray.MenuItem
}

// Status update methods for the app to call. They never call back into the
// app, which may hold its lock while reporting.
func (u *UI) SetIdle() {
	u.setState("idle")
}

func (u *UI) SetRecording(mode recorder.CaptureMode) {
	u.mu.Lock()
	u.mode = mode
	u.startedAt = time.Now()
	u.levels = recorder.Levels{}
	u.mu.Unlock()
	u.setState("recording")
}

func (u *UI) SetLevels(levels recorder.Levels) {
	u.mu.Lock()
	u.levels = levels
	u.mu.Unlock()
	u.refresh()
}

func (u *UI) SetSaved(path string) {
	u.log.Info().Str("path", path).Msg("Saved")
	u.setState("saved")
	time.AfterFunc(savedFlash, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.state == "saved" {
			u.state = "idle"
			u.render()
		}
	})
}

func (u *UI) SetError(err error) {
	u.log.Warn().Err(err).Msg("Recorder error")
	u.setState("error")
}

func New(application *app.App, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		app:     application,
		version: version,
		commit:  commit,
		log:     log,
		state:   "idle",
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.refresh()
	systray.SetTooltip("Microphone and desktop audio recorder")

	// Build menu
	u.mStartStop = systray.AddMenuItem("Start Recording", "Record the selected sources")
	systray.AddSeparator()

	mMode := systray.AddMenuItem("Mode", "Sources to record")
	u.buildModeMenu(mMode)

	u.mMics = systray.AddMenuItem("Microphone", "Select microphone")
	u.buildDeviceMenu(u.mMics, u.app.ListMicrophones(), u.app.MicDevice(), u.app.SetMicDevice, "")
	u.mDesktops = systray.AddMenuItem("Desktop Audio", "Select loopback device")
	u.buildDeviceMenu(u.mDesktops, u.app.ListLoopbackDevices(), u.app.DesktopDevice(), u.app.SetDesktopDevice, noLoopbackLabel)

	systray.AddSeparator()
	u.mApprove = systray.AddMenuItemCheckbox("Approve Recording", "Save into the Approved folder", false)

	systray.AddSeparator()
	mRecordings := systray.AddMenuItem("Open Recordings", "Show saved recordings")
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About Audio Recorder")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	go u.tick()

	// Event loop
	go u.handleEvents(mRecordings, mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mRecordings, mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStartStop.ClickedCh:
			u.toggleRecording()
		case <-u.mApprove.ClickedCh:
			u.toggleApprove()
		case <-mRecordings.ClickedCh:
			u.openPath(u.app.RecordingsDir())
		case <-mLogs.ClickedCh:
			u.openPath(logging.LogPath())
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			if err := u.app.Shutdown(context.Background()); err != nil {
				u.log.Error().Err(err).Msg("Failed to save recording on quit")
			}
			systray.Quit()
			return
		}
	}
}

func (u *UI) toggleRecording() {
	u.mu.Lock()
	opts := app.SaveOptions{Approved: u.approve}
	u.mu.Unlock()

	path, err := u.app.Toggle(opts)
	switch {
	case errors.Is(err, recorder.ErrEmptyRecording):
		u.log.Warn().Msg("Nothing was recorded")
	case err != nil:
		u.log.Error().Err(err).Msg("Recording toggle failed")
	case path != "":
		u.log.Info().Str("path", path).Msg("Recording saved")
	}

	if u.app.IsRecording() {
		u.mStartStop.SetTitle("Stop Recording")
		u.mMics.Disable()
		u.mDesktops.Disable()
	} else {
		u.mStartStop.SetTitle("Start Recording")
		u.mMics.Enable()
		u.mDesktops.Enable()
	}
}

func (u *UI) buildModeMenu(parent *systray.MenuItem) {
	current := u.app.Mode()
	u.mModes = make(map[recorder.CaptureMode]*systray.MenuItem)

	for _, mode := range []recorder.CaptureMode{recorder.MicOnly, recorder.DesktopOnly, recorder.Both} {
		u.mModes[mode] = parent.AddSubMenuItemCheckbox(modeLabel(mode), "", mode == current)
	}

	for mode, item := range u.mModes {
		go func(m recorder.CaptureMode, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				// Uncheck all other items
				for md, itm := range u.mModes {
					if md != m {
						itm.Uncheck()
					}
				}
				// Check this item
				menuItem.Check()
				if err := u.app.SetMode(m); err != nil {
					u.log.Error().Err(err).Msg("Failed to save mode")
					continue
				}
				u.log.Info().Stringer("mode", m).Msg("Changed capture mode")
			}
		}(mode, item)
	}
}

func (u *UI) buildDeviceMenu(parent *systray.MenuItem, devices []audio.AudioDevice, selected audio.DeviceID, set func(audio.DeviceID) error, emptyLabel string) {
	if len(devices) == 0 && emptyLabel != "" {
		parent.AddSubMenuItem(emptyLabel, "").Disable()
		return
	}

	deviceItems := make(map[audio.DeviceID]*systray.MenuItem)

	auto := parent.AddSubMenuItemCheckbox(autoDeviceLabel, "Pick the best match", selected == audio.DefaultDevice)
	deviceItems[audio.DefaultDevice] = auto
	for _, dev := range devices {
		deviceItems[dev.ID] = parent.AddSubMenuItemCheckbox(deviceLabel(dev), "", dev.ID == selected)
	}

	for id, item := range deviceItems {
		go func(deviceID audio.DeviceID, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				if err := set(deviceID); err != nil {
					u.log.Error().Err(err).Msg("Failed to change audio device")
					continue
				}
				// Uncheck all other items
				for did, itm := range deviceItems {
					if did != deviceID {
						itm.Uncheck()
					}
				}
				// Check this item
				menuItem.Check()
				u.log.Info().Int("device", int(deviceID)).Msg("Changed audio device")
			}
		}(id, item)
	}
}

func (u *UI) toggleApprove() {
	u.mu.Lock()
	u.approve = !u.approve
	approve := u.approve
	u.mu.Unlock()

	if approve {
		u.mApprove.Check()
		u.log.Info().Msg("Recordings will be saved as approved")
	} else {
		u.mApprove.Uncheck()
		u.log.Info().Msg("Recordings will be saved as pending")
	}
}

// tick keeps the elapsed time moving between level updates.
func (u *UI) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		u.refresh()
	}
}

func (u *UI) openPath(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open path")
		return
	}
	go cmd.Wait()
}

func (u *UI) showAbout() {
	fmt.Printf("Audio Recorder %s (%s)\nRecords microphone and desktop audio\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

func (u *UI) setState(state string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = state
	u.render()
}

func (u *UI) refresh() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.render()
}

// render must be called with mu held.
func (u *UI) render() {
	var elapsed time.Duration
	if u.state == "recording" {
		elapsed = time.Since(u.startedAt)
	}
	systray.SetTitle(title(u.state, u.mode, elapsed, u.levels))
}

// title builds the tray title: status, and while recording the elapsed time
// and one meter per recorded source.
func title(state string, mode recorder.CaptureMode, elapsed time.Duration, levels recorder.Levels) string {
	t := fmt.Sprintf("🎙 %s", emojiForStatus(state))
	if state != "recording" {
		return t
	}
	t += " " + formatElapsed(elapsed)
	if mode.Captures(recorder.Mic) {
		t += " M" + meter(levels.Mic)
	}
	if mode.Captures(recorder.Desktop) {
		t += " D" + meter(levels.Desktop)
	}
	return t
}

// formatElapsed renders mm:ss; minutes keep counting past an hour.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

var meterBars = []rune("▁▂▃▄▅▆▇█")

// meter renders a level as a bar glyph plus its colour band.
func meter(level float64) string {
	level = max(0, min(1, level))
	bar := meterBars[int(level*float64(len(meterBars)-1)+0.5)]
	return string(bar) + colorDot(recorder.LevelColor(level))
}

func colorDot(color string) string {
	switch color {
	case "red":
		return "🔴"
	case "yellow":
		return "🟡"
	default:
		return "🟢"
	}
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "⏺" // Recording
	case "saved":
		return "💾" // Saved - reverts to idle
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚠️" // Error
	default:
		return "🟢" // Green - default to ready
	}
}

func modeLabel(mode recorder.CaptureMode) string {
	switch mode {
	case recorder.MicOnly:
		return "Microphone Only"
	case recorder.DesktopOnly:
		return "Desktop Audio Only"
	default:
		return "Microphone + Desktop"
	}
}

func deviceLabel(dev audio.AudioDevice) string {
	return fmt.Sprintf("%d: %s", dev.ID, dev.Name)
}
