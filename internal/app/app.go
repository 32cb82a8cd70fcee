package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/config"
	"github.com/petems/audio-recorder/internal/encoder"
	"github.com/petems/audio-recorder/internal/recorder"
)

// ApprovedDir is the subfolder of the save dir approved recordings go to.
const ApprovedDir = "Approved"

// ErrBusy is returned by settings that cannot change mid-recording.
var ErrBusy = errors.New("cannot change devices while recording")

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording(mode recorder.CaptureMode)
	SetLevels(levels recorder.Levels)
	SetSaved(path string)
	SetError(err error)
}

// Clipboard receives the saved file path when copy_path is enabled.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

type Config struct {
	Session         *recorder.Session
	Config          *config.Config
	Logger          zerolog.Logger
	StatusUpdater   StatusUpdater    // Optional - can be nil
	Clipboard       Clipboard        // Optional - system clipboard when nil
	CheckPermission func() error     // Optional - run before capturing the microphone
	Now             func() time.Time // Optional - time.Now when nil
}

// SaveOptions describe how a stopped recording is filed.
type SaveOptions struct {
	Phone    string // Appended to the file name after sanitizing
	Approved bool   // Save under ApprovedDir
}

type App struct {
	session   *recorder.Session
	cfg       *config.Config
	log       zerolog.Logger
	status    StatusUpdater
	clip      Clipboard
	checkPerm func() error
	now       func() time.Time

	mu         sync.Mutex
	startedAt  time.Time
	levelsStop context.CancelFunc
	levelsDone chan struct{}
}

func New(cfg Config) *App {
	a := &App{
		session:   cfg.Session,
		cfg:       cfg.Config,
		log:       cfg.Logger,
		status:    cfg.StatusUpdater,
		clip:      cfg.Clipboard,
		checkPerm: cfg.CheckPermission,
		now:       cfg.Now,
	}
	if a.clip == nil {
		a.clip = systemClipboard{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// SetStatusUpdater replaces the status receiver. It must be called before
// the first recording.
func (a *App) SetStatusUpdater(s StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

// StartRecording begins capturing with the configured mode and devices.
func (a *App) StartRecording() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startLocked()
}

// StopRecording stops the capture and saves the mixdown as a WAV file. It
// returns the saved path, or ErrEmptyRecording when nothing was captured.
func (a *App) StopRecording(opts SaveOptions) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked(opts)
}

// Toggle starts a recording when idle and stops and saves it otherwise. The
// saved path is empty when a recording was started.
func (a *App) Toggle(opts SaveOptions) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.IsRecording() {
		return a.stopLocked(opts)
	}
	return "", a.startLocked()
}

func (a *App) startLocked() error {
	if a.session.IsRecording() {
		return recorder.ErrAlreadyRecording
	}

	mode := a.effectiveMode(a.cfg.CaptureMode())

	if mode.Captures(recorder.Mic) && a.checkPerm != nil {
		if err := a.checkPerm(); err != nil {
			a.fail(err)
			return fmt.Errorf("failed to start recording: %w", err)
		}
	}

	if err := a.session.Start(mode, a.cfg.MicDeviceID(), a.cfg.DesktopDeviceID()); err != nil {
		a.log.Error().Err(err).Stringer("mode", mode).Msg("Failed to start recording")
		a.fail(err)
		return err
	}

	a.startedAt = a.now()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.levelsStop, a.levelsDone = cancel, done
	status := a.status
	go func() {
		defer close(done)
		recorder.NewLevelMonitor(a.session).Run(ctx, func(l recorder.Levels) {
			if status != nil {
				status.SetLevels(l)
			}
		})
	}()

	a.log.Info().Stringer("mode", mode).Msg("Recording")
	if a.status != nil {
		a.status.SetRecording(mode)
	}
	return nil
}

// effectiveMode drops desktop capture from Both when the default loopback
// is needed but missing. DesktopOnly is left for the session to reject.
func (a *App) effectiveMode(mode recorder.CaptureMode) recorder.CaptureMode {
	if mode != recorder.Both || a.cfg.DesktopDeviceID() != audio.DefaultDevice {
		return mode
	}
	if _, ok := a.session.Catalog().DefaultLoopback(); ok {
		return mode
	}
	a.log.Warn().Msg("No loopback device found, recording microphone only. Enable Stereo Mix to capture desktop audio")
	return recorder.MicOnly
}

func (a *App) stopLocked(opts SaveOptions) (string, error) {
	if a.levelsStop != nil {
		a.levelsStop()
		<-a.levelsDone
		a.levelsStop, a.levelsDone = nil, nil
	}

	samples, err := a.session.Stop()
	if err != nil {
		return "", err
	}

	elapsed := a.now().Sub(a.startedAt)
	if len(samples) == 0 {
		a.log.Warn().Dur("elapsed", elapsed).Msg("Nothing was recorded")
		if a.status != nil {
			a.status.SetIdle()
		}
		return "", recorder.ErrEmptyRecording
	}

	path, err := a.save(samples, opts)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to save recording")
		a.fail(err)
		return "", err
	}

	a.log.Info().
		Str("path", path).
		Int("samples", len(samples)).
		Dur("elapsed", elapsed).
		Bool("approved", opts.Approved).
		Msg("Recording saved")

	if a.cfg.CopyPath {
		if err := a.clip.WriteAll(path); err != nil {
			a.log.Warn().Err(err).Msg("Failed to copy path to clipboard")
		}
	}
	if a.status != nil {
		a.status.SetSaved(path)
	}
	return path, nil
}

func (a *App) save(samples []float32, opts SaveOptions) (string, error) {
	dir := a.cfg.SaveDir
	if opts.Approved {
		dir = filepath.Join(dir, ApprovedDir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(a.now(), opts.Phone))
	if err := encoder.WriteFile(path, samples); err != nil {
		return "", err
	}
	return path, nil
}

func (a *App) fail(err error) {
	if a.status != nil {
		a.status.SetError(err)
	}
}

// Shutdown stops and saves a running recording.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.session.IsRecording() {
		return nil
	}
	_, err := a.stopLocked(SaveOptions{})
	if errors.Is(err, recorder.ErrEmptyRecording) {
		return nil
	}
	return err
}

// Tray actions

func (a *App) IsRecording() bool {
	return a.session.IsRecording()
}

// Mode returns the configured capture mode.
func (a *App) Mode() recorder.CaptureMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.CaptureMode()
}

// SetMode stores the mode for the next recording.
func (a *App) SetMode(mode recorder.CaptureMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %s", recorder.ErrInvalidMode, mode)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.SetCaptureMode(mode)
	return a.cfg.Save()
}

func (a *App) SetMicDevice(id audio.DeviceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.IsRecording() {
		return ErrBusy
	}

	a.cfg.MicDevice = int(id)
	return a.cfg.Save()
}

func (a *App) SetDesktopDevice(id audio.DeviceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.IsRecording() {
		return ErrBusy
	}

	a.cfg.DesktopDevice = int(id)
	return a.cfg.Save()
}

// MicDevice and DesktopDevice return the configured selections;
// audio.DefaultDevice means automatic.
func (a *App) MicDevice() audio.DeviceID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.MicDeviceID()
}

func (a *App) DesktopDevice() audio.DeviceID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.DesktopDeviceID()
}

func (a *App) ListMicrophones() []audio.AudioDevice {
	return a.session.Catalog().ListMicrophones()
}

func (a *App) ListLoopbackDevices() []audio.AudioDevice {
	return a.session.Catalog().ListLoopbackDevices()
}

// RecordingsDir returns where recordings are saved.
func (a *App) RecordingsDir() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.SaveDir
}
