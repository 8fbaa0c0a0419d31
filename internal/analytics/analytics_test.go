package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"songswitcher/internal/db"
)

func hasMilestone(ms []Milestone, id MilestoneID) bool {
	for _, m := range ms {
		if m.ID == id {
			return true
		}
	}
	return false
}

func TestEvaluatePlayMilestones_FullCombo(t *testing.T) {
	ms := EvaluatePlayMilestones(db.SongPlay{NotesHit: 50, TotalNotes: 50, Accuracy: 100})
	if !hasMilestone(ms, MilestoneFullCombo) {
		t.Error("should earn Full Combo with every note hit")
	}
	if !hasMilestone(ms, MilestoneSharp) {
		t.Error("should earn Sharp with 100% accuracy")
	}
}

func TestEvaluatePlayMilestones_EmptySong(t *testing.T) {
	ms := EvaluatePlayMilestones(db.SongPlay{})
	if len(ms) != 0 {
		t.Errorf("empty play earned %v, want none", ms)
	}
}

func TestEvaluatePlayMilestones_Streak(t *testing.T) {
	if hasMilestone(EvaluatePlayMilestones(db.SongPlay{HighestStreak: 99}), MilestoneStreak100) {
		t.Error("should not earn Centurion with a 99 streak")
	}
	if !hasMilestone(EvaluatePlayMilestones(db.SongPlay{HighestStreak: 100}), MilestoneStreak100) {
		t.Error("should earn Centurion with a 100 streak")
	}
}

func TestEvaluateSongMilestones_PlayCount(t *testing.T) {
	if !hasMilestone(EvaluateSongMilestones(SongSummary{Plays: 10}), MilestoneRegular) {
		t.Error("should earn Regular with 10 plays")
	}
	ms := EvaluateSongMilestones(SongSummary{Plays: 50})
	if !hasMilestone(ms, MilestoneDedication) || hasMilestone(ms, MilestoneRegular) {
		t.Errorf("50 plays earned %v, want Dedication only", ms)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, v := range []any{want, "2026-01-02 03:04:05+00:00", []byte("2026-01-02T03:04:05Z")} {
		if got := parseTime(v); !got.Equal(want) {
			t.Errorf("parseTime(%v) = %v, want %v", v, got, want)
		}
	}
	if !parseTime(nil).IsZero() {
		t.Error("parseTime(nil) should be zero")
	}
}

func TestQueries(t *testing.T) {
	database, err := db.Connect(filepath.Join(t.TempDir(), "plays.db"))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	ctx := context.Background()
	plays := []db.SongPlay{
		{SongName: "A", ArtistName: "X", Accuracy: 80, NotesHit: 80, TotalNotes: 100, HighestStreak: 20},
		{SongName: "A", ArtistName: "X", Accuracy: 96, NotesHit: 96, TotalNotes: 100, HighestStreak: 60},
		{SongName: "B", ArtistName: "Y", Accuracy: 50, NotesHit: 24, TotalNotes: 48, HighestStreak: 5},
	}
	for _, p := range plays {
		if _, err := database.RecordPlay(ctx, p); err != nil {
			t.Fatalf("RecordPlay() error: %v", err)
		}
	}

	q := NewQueries(database)
	summaries, err := q.SongSummaries(ctx, 10)
	if err != nil {
		t.Fatalf("SongSummaries() error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d, want 2", len(summaries))
	}
	a := summaries[0]
	if a.SongName != "A" || a.Plays != 2 || a.BestAccuracy != 96 || a.BestStreak != 60 {
		t.Errorf("summary = %+v", a)
	}
	if !hasMilestone(a.Milestones, MilestoneSharp) {
		t.Error("song A should carry Sharp")
	}

	totals, err := q.LifetimeTotals(ctx)
	if err != nil {
		t.Fatalf("LifetimeTotals() error: %v", err)
	}
	if totals.Plays != 3 || totals.NotesHit != 200 || totals.TotalNotes != 248 || totals.HighestStreak != 60 {
		t.Errorf("totals = %+v", totals)
	}
}
