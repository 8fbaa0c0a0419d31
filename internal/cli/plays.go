package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"songswitcher/internal/analytics"
	"songswitcher/internal/db"
)

var playsLimit int

func init() {
	playsCmd.Flags().IntVarP(&playsLimit, "limit", "n", 20, "number of plays to show")
	rootCmd.AddCommand(playsCmd)
}

var playsCmd = &cobra.Command{
	Use:   "plays",
	Short: "Print recently finished songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		database, err := openDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		return printPlays(cmd.Context(), cmd.OutOrStdout(), database, playsLimit)
	},
}

func printPlays(ctx context.Context, w io.Writer, database *db.DB, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}
	plays, err := database.RecentPlays(ctx, limit)
	if err != nil {
		return err
	}
	if len(plays) == 0 {
		fmt.Fprintln(w, "No plays recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDED\tSONG\tARTIST\tARRANGEMENT\tACCURACY\tNOTES\tSTREAK\tMILESTONES")
	for _, p := range plays {
		var names []string
		for _, m := range analytics.EvaluatePlayMilestones(p) {
			names = append(names, m.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f%%\t%d/%d\t%d\t%v\n",
			p.EndedAt.Local().Format("2006-01-02 15:04"), p.SongName, p.ArtistName, p.Arrangement,
			p.Accuracy, p.NotesHit, p.TotalNotes, p.HighestStreak, names)
	}
	return tw.Flush()
}
