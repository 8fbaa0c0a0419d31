package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"songswitcher/internal/analytics"
	"songswitcher/internal/broadcast"
	"songswitcher/internal/db"
	"songswitcher/internal/events"
	"songswitcher/internal/wshub"
)

type fakeVars map[string]any

func (f fakeVars) Snapshot() map[string]any { return f }

type fakePlays struct {
	plays []db.SongPlay
	limit int
	err   error
}

func (f *fakePlays) RecentPlays(_ context.Context, limit int) ([]db.SongPlay, error) {
	f.limit = limit
	return f.plays, f.err
}

type fakeSummaries struct{}

func (fakeSummaries) SongSummaries(context.Context, int) ([]analytics.SongSummary, error) {
	return []analytics.SongSummary{{SongName: "Song A", Plays: 3, BestAccuracy: 97}}, nil
}

func (fakeSummaries) LifetimeTotals(context.Context) (*analytics.LifetimeTotals, error) {
	return &analytics.LifetimeTotals{Plays: 3, NotesHit: 250, TotalNotes: 300}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping() error { return f.err }

func newTestServer(t *testing.T) (*Server, *events.Bus, *httptest.Server) {
	t.Helper()
	bus := events.NewBus()
	hub := wshub.NewHub()
	srv := &Server{
		Vars:        fakeVars{"song_name": "Song A", "accuracy": 97.5},
		Plays:       &fakePlays{plays: []db.SongPlay{{ID: "p1", SongName: "Song A", NotesHit: 10, TotalNotes: 10, Accuracy: 100}}},
		Summaries:   fakeSummaries{},
		Broadcaster: broadcast.NewBroadcaster(bus, hub.Forward),
		Hub:         hub,
		Metrics:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("# metrics")) }),
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, bus, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _, ts := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, ts.URL+"/health", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}

	srv.DB = fakePinger{err: errors.New("gone")}
	resp = getJSON(t, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestVariables(t *testing.T) {
	_, _, ts := newTestServer(t)

	var all map[string]any
	getJSON(t, ts.URL+"/variables", &all)
	if all["song_name"] != "Song A" || all["accuracy"] != 97.5 {
		t.Errorf("variables = %v", all)
	}

	var one map[string]any
	getJSON(t, ts.URL+"/variables/song_name", &one)
	if one["value"] != "Song A" {
		t.Errorf("variable = %v", one)
	}

	if resp := getJSON(t, ts.URL+"/variables/nope", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPlays(t *testing.T) {
	srv, _, ts := newTestServer(t)

	var plays []playJSON
	getJSON(t, ts.URL+"/plays?limit=5", &plays)
	if len(plays) != 1 || plays[0].ID != "p1" {
		t.Fatalf("plays = %+v", plays)
	}
	if len(plays[0].Milestones) == 0 {
		t.Error("a full combo should carry milestones")
	}
	if got := srv.Plays.(*fakePlays).limit; got != 5 {
		t.Errorf("limit = %d, want 5", got)
	}

	getJSON(t, ts.URL+"/plays?limit=100000", &plays)
	if got := srv.Plays.(*fakePlays).limit; got != maxPlayLimit {
		t.Errorf("limit = %d, want %d", got, maxPlayLimit)
	}

	if resp := getJSON(t, ts.URL+"/plays?limit=abc", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPlays_NoDatabase(t *testing.T) {
	srv, _, ts := newTestServer(t)
	srv.Plays = nil
	srv.Summaries = nil

	for _, path := range []string{"/plays", "/plays/summary"} {
		if resp := getJSON(t, ts.URL+path, nil); resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, resp.StatusCode)
		}
	}
}

func TestPlaySummary(t *testing.T) {
	_, _, ts := newTestServer(t)

	var body summaryJSON
	getJSON(t, ts.URL+"/plays/summary", &body)
	if body.Totals == nil || body.Totals.Plays != 3 {
		t.Errorf("totals = %+v", body.Totals)
	}
	if len(body.Songs) != 1 || body.Songs[0].SongName != "Song A" {
		t.Errorf("songs = %+v", body.Songs)
	}
}

func TestCORS(t *testing.T) {
	_, _, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/variables", nil)
	req.Header.Set("Origin", "http://overlay.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}

func TestMetrics(t *testing.T) {
	_, _, ts := newTestServer(t)
	if resp := getJSON(t, ts.URL+"/metrics", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestEvents_StreamsBusEvents(t *testing.T) {
	_, bus, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	bus.Publish(events.Event{Kind: events.KindAction, Action: "enterSolo"})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if lines[0] != "event: action" {
		t.Errorf("event line = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"action":"enterSolo"`) {
		t.Errorf("data line = %q", lines[1])
	}
}

func TestWS_SnapshotThenEvents(t *testing.T) {
	srv, bus, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.CloseNow()

	var hello wshub.ServerMessage
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if hello.Type != "snapshot" || hello.Values["song_name"] != "Song A" {
		t.Errorf("snapshot = %+v", hello)
	}

	deadline := time.Now().Add(time.Second)
	for srv.Hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	bus.Publish(events.Event{Kind: events.KindScene, Scene: "Song"})

	var msg wshub.ServerMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if msg.Type != "scene" || msg.Scene != "Song" {
		t.Errorf("message = %+v", msg)
	}
}
