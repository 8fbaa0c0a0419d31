package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"songswitcher/internal/analytics"
	"songswitcher/internal/broadcast"
	"songswitcher/internal/db"
	"songswitcher/internal/wshub"
)

type VariableSource interface {
	Snapshot() map[string]any
}

type PlaySource interface {
	RecentPlays(ctx context.Context, limit int) ([]db.SongPlay, error)
}

type SummarySource interface {
	SongSummaries(ctx context.Context, limit int) ([]analytics.SongSummary, error)
	LifetimeTotals(ctx context.Context) (*analytics.LifetimeTotals, error)
}

type Pinger interface {
	Ping() error
}

type Server struct {
	Vars        VariableSource
	Plays       PlaySource    // nil if no database configured
	Summaries   SummarySource // nil if no database configured
	DB          Pinger        // nil if no database configured
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	Metrics     http.Handler
}

func (s *Server) Routes() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/variables", s.handleVariables).Methods(http.MethodGet)
	router.HandleFunc("/variables/{name}", s.handleVariable).Methods(http.MethodGet)
	router.HandleFunc("/plays", s.handlePlays).Methods(http.MethodGet)
	router.HandleFunc("/plays/summary", s.handlePlaySummary).Methods(http.MethodGet)
	if s.Broadcaster != nil {
		router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	}
	if s.Hub != nil {
		router.HandleFunc("/ws", s.handleWS)
	}
	if s.Metrics != nil {
		router.Handle("/metrics", s.Metrics).Methods(http.MethodGet)
	}

	// Overlays run as browser sources on arbitrary origins.
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Server] Listening on http://%s\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
