package analytics

import (
	"context"
	"fmt"
	"time"

	"songswitcher/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// SongSummaries groups plays by song, most played first.
func (q *Queries) SongSummaries(ctx context.Context, limit int) ([]SongSummary, error) {
	rows, err := q.DB.QueryContext(ctx, `
		SELECT song_name, artist_name, COUNT(*), MAX(accuracy), MAX(highest_streak), MAX(ended_at)
		FROM song_plays
		GROUP BY song_name, artist_name
		ORDER BY COUNT(*) DESC, song_name ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("getting song summaries: %w", err)
	}
	defer rows.Close()

	var out []SongSummary
	for rows.Next() {
		var s SongSummary
		var last any
		if err := rows.Scan(&s.SongName, &s.ArtistName, &s.Plays, &s.BestAccuracy, &s.BestStreak, &last); err != nil {
			return nil, err
		}
		s.LastPlayed = parseTime(last)
		s.Milestones = EvaluateSongMilestones(s)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) LifetimeTotals(ctx context.Context) (*LifetimeTotals, error) {
	t := &LifetimeTotals{}
	err := q.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(notes_hit), 0), COALESCE(SUM(total_notes), 0), COALESCE(MAX(highest_streak), 0)
		FROM song_plays
	`).Scan(&t.Plays, &t.NotesHit, &t.TotalNotes, &t.HighestStreak)
	if err != nil {
		return nil, fmt.Errorf("getting lifetime totals: %w", err)
	}
	if t.TotalNotes > 0 {
		t.Accuracy = float64(t.NotesHit) / float64(t.TotalNotes) * 100
	}
	return t, nil
}

// parseTime handles MAX() over a timestamp column, which SQLite hands back
// as text while PostgreSQL returns a time.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	}
	return time.Time{}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseTimeString(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
