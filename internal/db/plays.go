package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SongPlay struct {
	ID            string
	SongName      string
	ArtistName    string
	Arrangement   string
	Accuracy      float64
	NotesHit      int
	TotalNotes    int
	HighestStreak int
	EndedAt       time.Time
}

// RecordPlay stores a finished song and returns its id.
func (d *DB) RecordPlay(ctx context.Context, p SongPlay) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.EndedAt.IsZero() {
		p.EndedAt = time.Now()
	}
	_, err := d.ExecContext(ctx, `
		INSERT INTO song_plays
			(id, song_name, artist_name, arrangement, accuracy, notes_hit, total_notes, highest_streak, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.SongName, p.ArtistName, p.Arrangement, p.Accuracy, p.NotesHit, p.TotalNotes, p.HighestStreak, p.EndedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("recording play: %w", err)
	}
	return p.ID, nil
}

// RecentPlays returns the latest plays, newest first.
func (d *DB) RecentPlays(ctx context.Context, limit int) ([]SongPlay, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, song_name, artist_name, arrangement, accuracy, notes_hit, total_notes, highest_streak, ended_at
		FROM song_plays
		ORDER BY ended_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing plays: %w", err)
	}
	defer rows.Close()

	var plays []SongPlay
	for rows.Next() {
		var p SongPlay
		if err := rows.Scan(&p.ID, &p.SongName, &p.ArtistName, &p.Arrangement, &p.Accuracy,
			&p.NotesHit, &p.TotalNotes, &p.HighestStreak, &p.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning play: %w", err)
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}
