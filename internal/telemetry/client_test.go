package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sampleDoc = `{
  "memoryReadout": {
    "songId": "Song1",
    "arrangementId": "ARR-LEAD",
    "gameStage": "las_game",
    "songTimer": 42.5,
    "noteData": {
      "accuracy": 91.5,
      "totalNotes": 200,
      "totalNotesHit": 183,
      "currentHitStreak": 12,
      "highestHitStreak": 80,
      "totalNotesMissed": 17,
      "currentMissStreak": 0
    }
  },
  "songDetails": {
    "songName": "Song One",
    "artistName": "The Band",
    "songLength": 215.3,
    "albumName": "First",
    "albumYear": 1999,
    "arrangements": [
      {
        "name": "Lead",
        "arrangementID": "ARR-LEAD",
        "type": "Lead",
        "tuning": {"tuningName": "E Standard"},
        "sections": [
          {"name": "intro", "startTime": 0, "endTime": 10},
          {"name": "solo", "startTime": 10, "endTime": 30}
        ]
      }
    ]
  }
}`

func TestDecode(t *testing.T) {
	r, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	stage, ok := r.Stage()
	if !ok || stage != "las_game" {
		t.Errorf("Stage() = %q, %v, want %q, true", stage, ok, "las_game")
	}
	if r.Timer() != 42.5 {
		t.Errorf("Timer() = %v, want 42.5", r.Timer())
	}
	if r.Notes().TotalNotesHit != 183 {
		t.Errorf("TotalNotesHit = %d, want 183", r.Notes().TotalNotesHit)
	}
	if r.SongLength() != 215.3 {
		t.Errorf("SongLength() = %v, want 215.3", r.SongLength())
	}
	if len(r.Song.Arrangements) != 1 || len(r.Song.Arrangements[0].Sections) != 2 {
		t.Fatalf("arrangements not decoded: %+v", r.Song)
	}
	if r.Song.Arrangements[0].Tuning.TuningName != "E Standard" {
		t.Errorf("TuningName = %q", r.Song.Arrangements[0].Tuning.TuningName)
	}
}

func TestDecode_PascalCase(t *testing.T) {
	doc := `{"MemoryReadout":{"GameStage":"sa_tuner","SongTimer":1.5,"ArrangementId":"X"},"SongDetails":{"SongName":"S"}}`
	r, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if stage, _ := r.Stage(); stage != "sa_tuner" {
		t.Errorf("Stage() = %q, want %q", stage, "sa_tuner")
	}
	if r.Song.SongName != "S" {
		t.Errorf("SongName = %q, want %q", r.Song.SongName, "S")
	}
}

func TestDecode_Failures(t *testing.T) {
	for _, doc := range []string{`{not json`, `{}`, `{"songDetails":{}}`} {
		_, err := Decode([]byte(doc))
		if !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%q) error = %v, want ErrDecode", doc, err)
		}
	}
}

func TestDecode_MissingStageIsNotFatal(t *testing.T) {
	r, err := Decode([]byte(`{"memoryReadout":{"songTimer":3}}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if _, ok := r.Stage(); ok {
		t.Error("Stage() should report absent")
	}
	if r.Notes() != (NoteData{}) {
		t.Error("Notes() should be zero when noteData is absent")
	}
}

func TestClient_FetchReadout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	r, err := c.FetchReadout(context.Background())
	if err != nil {
		t.Fatalf("FetchReadout() error: %v", err)
	}
	if r.Memory.SongID != "Song1" {
		t.Errorf("SongID = %q, want %q", r.Memory.SongID, "Song1")
	}
}

func TestClient_Non2xxIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Fetch() error = %v, want ErrTransport", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), 50*time.Millisecond)
	start := time.Now()
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Fetch() error = %v, want ErrTransport", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Fetch() did not honour its timeout")
	}
}
