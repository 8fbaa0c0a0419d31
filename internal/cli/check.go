package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"songswitcher/internal/config"
	"songswitcher/internal/gamestate"
	"songswitcher/internal/obsws"
	"songswitcher/internal/scenes"
	"songswitcher/internal/slobs"
	"songswitcher/internal/telemetry"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch one readout and print how it would be classified",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		return check(ctx, cmd.OutOrStdout(), cfg)
	},
}

func check(ctx context.Context, w io.Writer, cfg config.Config) error {
	gcfg := gamestate.ConfigFrom(cfg)

	backends := []scenes.Backend{obsws.New(cfg.OBSAddr, cfg.OBSPassword, time.Second)}
	if cfg.SLOBSAddr != "" {
		backends = append(backends, slobs.New(cfg.SLOBSAddr, cfg.SLOBSToken, time.Second))
	}
	controller := scenes.NewController(cfg.SwitchCooldown, backends...)
	controller.Connect(ctx)
	defer controller.Reset()

	if b := controller.Active(); b != nil {
		scene := controller.CurrentScene(ctx)
		fmt.Fprintf(w, "Scene backend: %s, current scene %q (relevant: %v)\n", b.Name(), scene, gcfg.IsRelevantScene(scene))
	} else {
		fmt.Fprintln(w, "Scene backend: none connected")
	}

	client := telemetry.NewClient(cfg.SnifferAddr(), 2*time.Second)
	r, err := client.FetchReadout(ctx)
	if err != nil {
		return fmt.Errorf("sniffer at %s: %w", cfg.SnifferAddr(), err)
	}
	printReadout(w, r)
	return nil
}

func printReadout(w io.Writer, r *telemetry.Readout) {
	raw, _ := r.Stage()
	stage, err := gamestate.ClassifyStage(r)
	if err != nil {
		fmt.Fprintf(w, "Stage: %v (check the sniffer version)\n", err)
		return
	}
	fmt.Fprintf(w, "Stage: %s (%q)\n", stage, raw)
	fmt.Fprintf(w, "Timer: %s\n", gamestate.FormatSeconds(r.Timer()))

	if r.Song == nil {
		return
	}
	fmt.Fprintf(w, "Song: %s - %s (%s)\n", r.Song.ArtistName, r.Song.SongName, gamestate.FormatSeconds(r.Song.SongLength))
	for _, a := range r.Song.Arrangements {
		marker := " "
		if a.ArrangementID == r.Memory.ArrangementID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s [%s] %s, %d sections\n", marker, a.Name, a.Type, a.Tuning.TuningName, len(a.Sections))
		if marker != "*" {
			continue
		}
		for _, s := range a.Sections {
			fmt.Fprintf(w, "    %7.2f-%7.2f %-20s %s\n", s.StartTime, s.EndTime, s.Name, gamestate.ClassifySection(s.Name))
		}
	}
}
