package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"songswitcher/internal/actions"
	"songswitcher/internal/analytics"
	"songswitcher/internal/broadcast"
	"songswitcher/internal/config"
	"songswitcher/internal/db"
	"songswitcher/internal/events"
	"songswitcher/internal/gamestate"
	"songswitcher/internal/metrics"
	"songswitcher/internal/obsws"
	"songswitcher/internal/poller"
	"songswitcher/internal/scenes"
	"songswitcher/internal/server"
	"songswitcher/internal/slobs"
	"songswitcher/internal/telemetry"
	"songswitcher/internal/variables"
	"songswitcher/internal/wshub"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll telemetry and switch scenes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

// playRecorder stores tracker plays in the database.
type playRecorder struct {
	db *db.DB
}

func (p playRecorder) RecordPlay(ctx context.Context, play gamestate.Play) error {
	_, err := p.db.RecordPlay(ctx, db.SongPlay{
		SongName:      play.SongName,
		ArtistName:    play.ArtistName,
		Arrangement:   play.Arrangement,
		Accuracy:      play.Accuracy,
		NotesHit:      play.NotesHit,
		TotalNotes:    play.TotalNotes,
		HighestStreak: play.HighestStreak,
		EndedAt:       play.EndedAt,
	})
	return err
}

func run(ctx context.Context, cfg config.Config) error {
	m := metrics.New()
	bus := events.NewBus()
	hub := wshub.NewHub()
	broadcaster := broadcast.NewBroadcaster(bus, hub.Forward)

	vars := variables.NewStore(gamestate.PersistedVariables...).WithBus(bus)
	srv := &server.Server{
		Vars:        vars,
		Broadcaster: broadcaster,
		Hub:         hub,
		Metrics:     m.Handler(),
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		d, err := openDB(cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] %v (running without database)\n", err)
		} else {
			database = d
			defer database.Close()
			vars.WithPersister(database)
			if err := vars.Load(ctx, database); err != nil {
				log.Printf("[DB] %v\n", err)
			}
			queries := analytics.NewQueries(database)
			srv.Plays = database
			srv.Summaries = queries
			srv.DB = database
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	backends := []scenes.Backend{obsws.New(cfg.OBSAddr, cfg.OBSPassword, cfg.TickInterval)}
	if cfg.SLOBSAddr != "" {
		backends = append(backends, slobs.New(cfg.SLOBSAddr, cfg.SLOBSToken, cfg.TickInterval))
	}
	controller := scenes.NewController(cfg.SwitchCooldown, backends...).WithObserver(m)
	defer controller.Reset()

	tracker := gamestate.New(gamestate.ConfigFrom(cfg), controller, actions.NewDispatcher(bus, m), vars).
		WithStatisticsSeed(func() gamestate.Statistics { return gamestate.StatisticsFromVariables(vars.Get) })
	if database != nil {
		tracker.WithPlayRecorder(playRecorder{db: database})
	}

	p := poller.New(controller, telemetry.NewClient(cfg.SnifferAddr(), cfg.TickInterval), tracker, cfg.TickInterval).
		WithObserver(m).
		WithBus(bus)

	log.Printf("[Run] Sniffer %s, song scenes %v, activity %s\n", cfg.SnifferAddr(), cfg.SongScenes, cfg.ActivityBehavior)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx, "0.0.0.0:"+cfg.Port) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		log.Println("[Run] Shutting down")
		return nil
	}
	return err
}

func openDB(dsn string) (*db.DB, error) {
	database, err := db.Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return database, nil
}
