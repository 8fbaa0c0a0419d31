package gamestate

import "songswitcher/internal/telemetry"

// noTimer marks that no song timer has been observed yet, so the first
// sample is never counted as a repeat.
const noTimer = -1

// Statistics accumulate over the whole process lifetime.
type Statistics struct {
	TotalNotes    int
	HitNotes      int
	MissedNotes   int
	Accuracy      float64
	HighestStreak int
}

// State is everything the tracker remembers between ticks.
type State struct {
	Stage     Stage
	LastStage Stage
	LastTimer float64

	Song                  *telemetry.SongDetails
	Arrangement           *telemetry.Arrangement
	ArrangementIdentified bool
	SectionIndex          int
	Section               SectionType

	// Notes is the previous counter snapshot; nil means a zero baseline.
	Notes *telemetry.NoteData
	Stats Statistics

	PauseTicks int
	Paused     bool

	// SceneIndex points into Config.SongScenes.
	SceneIndex int
}

func NewState() State {
	return State{
		Stage:        StageMenu,
		LastStage:    StageMenu,
		LastTimer:    noTimer,
		SectionIndex: -1,
		Section:      SectionDefault,
	}
}

// clearSong drops everything scoped to the song that just ended.
func (s *State) clearSong() {
	s.Song = nil
	s.Arrangement = nil
	s.ArrangementIdentified = false
	s.SectionIndex = -1
	s.Section = SectionDefault
	s.Notes = nil
	s.PauseTicks = 0
	s.Paused = false
}
