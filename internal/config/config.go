package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/recorder"
)

const envPrefix = "AUDIO_RECORDER"

type Config struct {
	Mode          string `mapstructure:"mode" validate:"oneof=mic microphone desktop both"`
	MicDevice     int    `mapstructure:"mic_device" validate:"gte=-1"`     // -1 picks the default microphone
	DesktopDevice int    `mapstructure:"desktop_device" validate:"gte=-1"` // -1 picks the default loopback
	SaveDir       string `mapstructure:"save_dir" validate:"required"`
	Backend       string `mapstructure:"backend" validate:"oneof=portaudio miniaudio"`
	LogLevel      string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	CopyPath      bool   `mapstructure:"copy_path"`

	path string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "both")
	v.SetDefault("mic_device", int(audio.DefaultDevice))
	v.SetDefault("desktop_device", int(audio.DefaultDevice))
	v.SetDefault("save_dir", RecordingsDir())
	v.SetDefault("backend", audio.BackendPortAudio)
	v.SetDefault("log_level", "info")
	v.SetDefault("copy_path", false)
}

// Load reads the config from the platform config path, or returns defaults
// when no file exists yet.
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom reads the config at path. Environment variables prefixed with
// AUDIO_RECORDER_ override file values.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values against their allowed ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config back to the file it was loaded from
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = configPath()
	}
	if err := c.Validate(); err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.Set("mode", c.Mode)
	v.Set("mic_device", c.MicDevice)
	v.Set("desktop_device", c.DesktopDevice)
	v.Set("save_dir", c.SaveDir)
	v.Set("backend", c.Backend)
	v.Set("log_level", c.LogLevel)
	v.Set("copy_path", c.CopyPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Path returns the file the config is saved to.
func (c *Config) Path() string {
	if c.path == "" {
		return configPath()
	}
	return c.path
}

// CaptureMode returns the configured mode.
func (c *Config) CaptureMode() recorder.CaptureMode {
	mode, err := recorder.ParseMode(c.Mode)
	if err != nil {
		return recorder.Both
	}
	return mode
}

// SetCaptureMode stores mode in its config text form.
func (c *Config) SetCaptureMode(mode recorder.CaptureMode) {
	c.Mode = mode.String()
}

func (c *Config) MicDeviceID() audio.DeviceID {
	return audio.DeviceID(c.MicDevice)
}

func (c *Config) DesktopDeviceID() audio.DeviceID {
	return audio.DeviceID(c.DesktopDevice)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "audio-recorder", "config.json")
}

// RecordingsDir returns the platform-specific default directory for saved
// recordings
func RecordingsDir() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "audio-recorder", "recordings")
}
