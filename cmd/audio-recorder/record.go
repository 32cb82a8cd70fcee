package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petems/audio-recorder/internal/app"
	"github.com/petems/audio-recorder/internal/audio"
	"github.com/petems/audio-recorder/internal/logging"
	"github.com/petems/audio-recorder/internal/permissions"
	"github.com/petems/audio-recorder/internal/recorder"
)

var recordOpts struct {
	mode     string
	mic      int
	desktop  int
	phone    string
	approve  bool
	out      string
	duration time.Duration
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record until Ctrl+C (or --duration) and save a WAV file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecord(cmd)
	},
}

func init() {
	f := recordCmd.Flags()
	f.StringVar(&recordOpts.mode, "mode", "", "sources to record: mic, desktop or both (default from config)")
	f.IntVar(&recordOpts.mic, "mic", int(audio.DefaultDevice), "microphone device id, -1 for automatic")
	f.IntVar(&recordOpts.desktop, "desktop", int(audio.DefaultDevice), "loopback device id, -1 for automatic")
	f.StringVar(&recordOpts.phone, "phone", "", "phone number or tag appended to the file name")
	f.BoolVar(&recordOpts.approve, "approve", false, "save into the Approved folder")
	f.StringVar(&recordOpts.out, "out", "", "directory to save into (default from config)")
	f.DurationVar(&recordOpts.duration, "duration", 0, "stop after this long, 0 waits for Ctrl+C")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flag overrides apply to this run only and are never saved
	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, err := recorder.ParseMode(recordOpts.mode)
		if err != nil {
			return err
		}
		cfg.SetCaptureMode(mode)
	}
	if flags.Changed("mic") {
		cfg.MicDevice = recordOpts.mic
	}
	if flags.Changed("desktop") {
		cfg.DesktopDevice = recordOpts.desktop
	}
	if flags.Changed("out") {
		cfg.SaveDir = recordOpts.out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.NewWithLevel(cfg.LogLevel)

	sess, host, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer host.Close()

	meter := newLevelPrinter(cmd.ErrOrStderr())
	application := app.New(app.Config{
		Session:         sess,
		Config:          cfg,
		Logger:          log,
		StatusUpdater:   meter,
		CheckPermission: permissions.EnsureMicrophone,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if recordOpts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordOpts.duration)
		defer cancel()
	}

	if err := application.StartRecording(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Recording... press Ctrl+C to stop")

	<-ctx.Done()
	meter.Finish()

	path, err := application.StopRecording(app.SaveOptions{
		Phone:    recordOpts.phone,
		Approved: recordOpts.approve,
	})
	if errors.Is(err, recorder.ErrEmptyRecording) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing was recorded")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
