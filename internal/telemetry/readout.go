// Package telemetry fetches and decodes the sniffer's live game readout.
package telemetry

// Readout is one polled snapshot of the game.
type Readout struct {
	Memory *MemoryReadout `json:"memoryReadout"`
	Song   *SongDetails   `json:"songDetails"`
}

type MemoryReadout struct {
	SongID        string    `json:"songId"`
	ArrangementID string    `json:"arrangementId"`
	GameStage     *string   `json:"gameStage"`
	SongTimer     float64   `json:"songTimer"`
	NoteData      *NoteData `json:"noteData"`
}

// NoteData is compared by value between polls to tell whether the source
// advanced.
type NoteData struct {
	Accuracy          float64 `json:"accuracy"`
	TotalNotes        int     `json:"totalNotes"`
	TotalNotesHit     int     `json:"totalNotesHit"`
	CurrentHitStreak  int     `json:"currentHitStreak"`
	HighestHitStreak  int     `json:"highestHitStreak"`
	TotalNotesMissed  int     `json:"totalNotesMissed"`
	CurrentMissStreak int     `json:"currentMissStreak"`
	HighestMissStreak int     `json:"highestMissStreak"`
}

type SongDetails struct {
	SongName     string        `json:"songName"`
	ArtistName   string        `json:"artistName"`
	SongLength   float64       `json:"songLength"`
	AlbumName    string        `json:"albumName"`
	AlbumYear    int           `json:"albumYear"`
	Arrangements []Arrangement `json:"arrangements"`
}

type Arrangement struct {
	Name          string    `json:"name"`
	ArrangementID string    `json:"arrangementID"`
	Type          string    `json:"type"`
	Tuning        Tuning    `json:"tuning"`
	Sections      []Section `json:"sections"`
}

type Tuning struct {
	TuningName string `json:"tuningName"`
}

type Section struct {
	Name      string  `json:"name"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Stage returns the raw stage string and whether the field was present.
func (r *Readout) Stage() (string, bool) {
	if r == nil || r.Memory == nil || r.Memory.GameStage == nil {
		return "", false
	}
	return *r.Memory.GameStage, true
}

func (r *Readout) Timer() float64 {
	if r == nil || r.Memory == nil {
		return 0
	}
	return r.Memory.SongTimer
}

// Notes returns the note counters, zero-valued when absent.
func (r *Readout) Notes() NoteData {
	if r == nil || r.Memory == nil || r.Memory.NoteData == nil {
		return NoteData{}
	}
	return *r.Memory.NoteData
}

func (r *Readout) SongLength() float64 {
	if r == nil || r.Song == nil {
		return 0
	}
	return r.Song.SongLength
}
