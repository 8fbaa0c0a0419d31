package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"songswitcher/internal/analytics"
	"songswitcher/internal/wshub"
)

const (
	defaultPlayLimit = 20
	maxPlayLimit     = 500
)

type playJSON struct {
	ID            string                `json:"id"`
	SongName      string                `json:"songName"`
	ArtistName    string                `json:"artistName"`
	Arrangement   string                `json:"arrangement"`
	Accuracy      float64               `json:"accuracy"`
	NotesHit      int                   `json:"notesHit"`
	TotalNotes    int                   `json:"totalNotes"`
	HighestStreak int                   `json:"highestStreak"`
	EndedAt       time.Time             `json:"endedAt"`
	Milestones    []analytics.Milestone `json:"milestones"`
}

type summaryJSON struct {
	Totals *analytics.LifetimeTotals `json:"totals"`
	Songs  []analytics.SongSummary   `json:"songs"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Encode error: %v\n", err)
	}
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultPlayLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(n, maxPlayLimit), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Vars.Snapshot())
}

func (s *Server) handleVariable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	v, ok := s.Vars.Snapshot()[name]
	if !ok {
		http.Error(w, "Variable not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "value": v})
}

func (s *Server) handlePlays(w http.ResponseWriter, r *http.Request) {
	if s.Plays == nil {
		http.Error(w, "Play history requires a database", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	plays, err := s.Plays.RecentPlays(r.Context(), limit)
	if err != nil {
		log.Printf("[Server] RecentPlays error: %v\n", err)
		http.Error(w, "Failed to load plays", http.StatusInternalServerError)
		return
	}

	out := make([]playJSON, 0, len(plays))
	for _, p := range plays {
		out = append(out, playJSON{
			ID:            p.ID,
			SongName:      p.SongName,
			ArtistName:    p.ArtistName,
			Arrangement:   p.Arrangement,
			Accuracy:      p.Accuracy,
			NotesHit:      p.NotesHit,
			TotalNotes:    p.TotalNotes,
			HighestStreak: p.HighestStreak,
			EndedAt:       p.EndedAt,
			Milestones:    analytics.EvaluatePlayMilestones(p),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlaySummary(w http.ResponseWriter, r *http.Request) {
	if s.Summaries == nil {
		http.Error(w, "Play history requires a database", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	totals, err := s.Summaries.LifetimeTotals(r.Context())
	if err != nil {
		log.Printf("[Server] LifetimeTotals error: %v\n", err)
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}
	songs, err := s.Summaries.SongSummaries(r.Context(), limit)
	if err != nil {
		log.Printf("[Server] SongSummaries error: %v\n", err)
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}
	if songs == nil {
		songs = []analytics.SongSummary{}
	}
	writeJSON(w, http.StatusOK, summaryJSON{Totals: totals, Songs: songs})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-msgChan:
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range strings.Split(msg.Data, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}

// handleWS registers an overlay and greets it with the current variables.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("[Server] WebSocket accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	client := &wshub.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, 32),
	}
	hello, err := json.Marshal(wshub.ServerMessage{Type: "snapshot", Values: s.Vars.Snapshot(), At: time.Now().UnixMilli()})
	if err == nil {
		client.Send <- hello
	}
	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ID)

	// Overlays never send; CloseRead handles pings and cancels on close.
	ctx := conn.CloseRead(r.Context())
	client.WritePump(ctx)
}
