package analytics

import "time"

type SongSummary struct {
	SongName     string      `json:"songName"`
	ArtistName   string      `json:"artistName"`
	Plays        int         `json:"plays"`
	BestAccuracy float64     `json:"bestAccuracy"`
	BestStreak   int         `json:"bestStreak"`
	LastPlayed   time.Time   `json:"lastPlayed"`
	Milestones   []Milestone `json:"milestones"`
}

type LifetimeTotals struct {
	Plays         int     `json:"plays"`
	NotesHit      int     `json:"notesHit"`
	TotalNotes    int     `json:"totalNotes"`
	Accuracy      float64 `json:"accuracy"`
	HighestStreak int     `json:"highestStreak"`
}
