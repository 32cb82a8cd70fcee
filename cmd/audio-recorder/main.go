package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/audio-recorder/internal/app"
	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/config"
	"github.com/petems/audio-recorder/internal/logging"
	"github.com/petems/audio-recorder/internal/permissions"
	"github.com/petems/audio-recorder/internal/recorder"
	"github.com/petems/audio-recorder/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "audio-recorder",
	Short: "Record microphone and desktop audio to WAV",
	Long: `Audio Recorder captures a microphone and the desktop audio loopback at the same
time and saves the mixdown as a 16-bit mono WAV file. Without a subcommand it
runs as a system tray app.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Audio Recorder %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFrom(cfgFile)
	}
	return config.Load()
}

// newSession opens the configured audio backend. The returned host must be
// closed once capture is over.
func newSession(cfg *config.Config, log zerolog.Logger) (*recorder.Session, audio.Host, error) {
	host, err := audio.NewHost(cfg.Backend)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize audio: %w", err)
	}
	sess := recorder.New(recorder.Config{
		Host:   host,
		Logger: log.With().Str("component", "recorder").Logger(),
	})
	return sess, host, nil
}

func runTray() error {
	// Load config from XDG/Library/AppData
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, host, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer host.Close()

	// Create app first, the tray needs it to build its menus
	application := app.New(app.Config{
		Session:         sess,
		Config:          cfg,
		Logger:          log,
		CheckPermission: permissions.EnsureMicrophone,
	})
	trayUI := tray.New(application, log, Version, Commit)
	application.SetStatusUpdater(trayUI)

	log.Info().Str("version", Version).Str("backend", cfg.Backend).Msg("Audio Recorder starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		host.Close()
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	return trayUI.Run(ctx)
}
