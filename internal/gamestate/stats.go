package gamestate

import (
	"songswitcher/internal/monitoring"
	"songswitcher/internal/telemetry"
)

// UpdateStatistics folds the change in note counters since the previous
// snapshot into the lifetime statistics. Counters that went backwards
// contribute nothing, so lifetime totals never decrease.
func (t *Tracker) UpdateStatistics(r *telemetry.Readout) error {
	s := &t.state
	if s.Stage != StageInSong {
		return nil
	}
	n := r.Notes()
	if s.Notes != nil && *s.Notes == n {
		return nil
	}
	var prev telemetry.NoteData
	if s.Notes != nil {
		prev = *s.Notes
	}

	s.Stats.TotalNotes += clampedDelta("totalNotes", prev.TotalNotes, n.TotalNotes)
	s.Stats.HitNotes += clampedDelta("totalNotesHit", prev.TotalNotesHit, n.TotalNotesHit)
	s.Stats.MissedNotes += clampedDelta("totalNotesMissed", prev.TotalNotesMissed, n.TotalNotesMissed)
	if n.HighestHitStreak > s.Stats.HighestStreak {
		s.Stats.HighestStreak = n.HighestHitStreak
	}
	if s.Stats.TotalNotes > 0 {
		s.Stats.Accuracy = 100 * float64(s.Stats.HitNotes) / float64(s.Stats.TotalNotes)
	}

	snapshot := n
	s.Notes = &snapshot
	return t.writeStats(n)
}

func clampedDelta(field string, prev, next int) int {
	d := next - prev
	if d < 0 {
		monitoring.Warnf("[Tracker] %s went backwards (%d -> %d); counting no change\n", field, prev, next)
		return 0
	}
	return d
}

func (t *Tracker) writeStats(n telemetry.NoteData) error {
	st := t.state.Stats
	values := []struct {
		name  string
		value any
	}{
		{VarAccuracy, roundTo(n.Accuracy, 2)},
		{VarCurrentHitStreak, n.CurrentHitStreak},
		{VarHighestHitStreak, n.HighestHitStreak},
		{VarCurrentMissStreak, n.CurrentMissStreak},
		{VarHighestMissStreak, n.HighestMissStreak},
		{VarTotalNotes, n.TotalNotes},
		{VarTotalNotesHit, n.TotalNotesHit},
		{VarTotalNotesMissed, n.TotalNotesMissed},
		{VarLifetimeNotes, st.TotalNotes},
		{VarLifetimeNotesHit, st.HitNotes},
		{VarLifetimeNotesMissed, st.MissedNotes},
		{VarLifetimeAccuracy, roundTo(st.Accuracy, 2)},
		{VarLifetimeHighestStreak, st.HighestStreak},
	}
	for _, v := range values {
		if err := t.set(v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}
