package gamestate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Output variable names written to the host store.
const (
	VarGameStage = "game_stage"

	VarSongName            = "song_name"
	VarSongArtist          = "song_artist"
	VarSongAlbum           = "song_album"
	VarSongYear            = "song_year"
	VarSongLength          = "song_length"
	VarSongLengthFormatted = "song_length_formatted"
	VarArrangementName     = "arrangement_name"
	VarArrangementType     = "arrangement_type"
	VarArrangementTuning   = "arrangement_tuning"
	VarSectionName         = "section_name"
	VarSectionType         = "section_type"

	VarSongTimer          = "song_timer"
	VarSongTimerFormatted = "song_timer_formatted"

	VarAccuracy          = "accuracy"
	VarCurrentHitStreak  = "current_hit_streak"
	VarHighestHitStreak  = "highest_hit_streak"
	VarCurrentMissStreak = "current_miss_streak"
	VarHighestMissStreak = "highest_miss_streak"
	VarTotalNotes        = "total_notes"
	VarTotalNotesHit     = "total_notes_hit"
	VarTotalNotesMissed  = "total_notes_missed"

	VarLifetimeNotes         = "lifetime_notes"
	VarLifetimeNotesHit      = "lifetime_notes_hit"
	VarLifetimeNotesMissed   = "lifetime_notes_missed"
	VarLifetimeAccuracy      = "lifetime_accuracy"
	VarLifetimeHighestStreak = "lifetime_highest_streak"
)

// PersistedVariables survive restarts when a database is configured.
var PersistedVariables = []string{
	VarLifetimeNotes,
	VarLifetimeNotesHit,
	VarLifetimeNotesMissed,
	VarLifetimeAccuracy,
	VarLifetimeHighestStreak,
}

// StatisticsFromVariables rebuilds lifetime statistics from stored
// variables. Values loaded from a database arrive as strings.
func StatisticsFromVariables(get func(name string) (any, bool)) Statistics {
	num := func(name string) float64 {
		v, ok := get(name)
		if !ok {
			return 0
		}
		switch x := v.(type) {
		case int:
			return float64(x)
		case float64:
			return x
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err == nil && f >= 0 && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f
			}
		}
		return 0
	}
	st := Statistics{
		TotalNotes:    int(num(VarLifetimeNotes)),
		HitNotes:      int(num(VarLifetimeNotesHit)),
		MissedNotes:   int(num(VarLifetimeNotesMissed)),
		Accuracy:      num(VarLifetimeAccuracy),
		HighestStreak: int(num(VarLifetimeHighestStreak)),
	}
	if st.TotalNotes > 0 {
		st.Accuracy = 100 * float64(st.HitNotes) / float64(st.TotalNotes)
	}
	return st
}

// FormatSeconds renders a song position as m:ss.
func FormatSeconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
