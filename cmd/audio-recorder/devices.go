package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/audio-recorder/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List microphones and loopback devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		host, err := audio.NewHost(cfg.Backend)
		if err != nil {
			return fmt.Errorf("failed to initialize audio: %w", err)
		}
		defer host.Close()

		printDevices(cmd.OutOrStdout(), audio.NewCatalog(host, zerolog.Nop()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func printDevices(w io.Writer, c *audio.Catalog) {
	fmt.Fprintln(w, "Microphones:")
	mics := c.ListMicrophones()
	if len(mics) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range mics {
		fmt.Fprintf(w, "  %3d  %s (%d ch)\n", d.ID, d.Name, d.MaxInputChannels)
	}

	fmt.Fprintln(w, "Desktop audio (loopback):")
	loops := c.ListLoopbackDevices()
	if len(loops) == 0 {
		fmt.Fprintln(w, "  (none) No loopback device found - Enable Stereo Mix")
	}
	for _, d := range loops {
		fmt.Fprintf(w, "  %3d  %s (%d ch)\n", d.ID, d.Name, d.MaxInputChannels)
	}

	fmt.Fprintln(w, "Defaults:")
	fmt.Fprintf(w, "  microphone: %s\n", describeDefault(c, c.DefaultMicrophone))
	fmt.Fprintf(w, "  desktop:    %s\n", describeDefault(c, c.DefaultLoopback))
}

func describeDefault(c *audio.Catalog, pick func() (audio.DeviceID, bool)) string {
	id, ok := pick()
	if !ok {
		return "none"
	}
	d, _ := c.Lookup(id)
	return fmt.Sprintf("%d (%s)", id, d.Name)
}
