// Package cli holds the songswitcher commands.
package cli

import (
	"log"

	"github.com/spf13/cobra"

	"songswitcher/internal/config"
	"songswitcher/internal/monitoring"
)

var rootCmd = &cobra.Command{
	Use:   "songswitcher",
	Short: "Switches broadcast scenes from Rocksmith telemetry",
	Long: `songswitcher polls a Rocksmith memory sniffer, tracks what the player is doing,
and drives OBS or Streamlabs scenes and overlay actions from it.

Configuration is read from the environment (SNIFFER_HOST, SONG_SCENES, ...).`,
	SilenceUsage: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadConfig reads the environment and applies the log level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	monitoring.SetLevel(monitoring.ParseLevel(cfg.LogLevel))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return cfg, nil
}
