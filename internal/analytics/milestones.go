package analytics

import "songswitcher/internal/db"

type MilestoneID string

const (
	MilestoneFullCombo  MilestoneID = "full_combo"
	MilestoneSharp      MilestoneID = "sharp"
	MilestoneStreak100  MilestoneID = "streak_100"
	MilestoneRegular    MilestoneID = "regular"
	MilestoneDedication MilestoneID = "dedication"
)

type Milestone struct {
	ID          MilestoneID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

var AllMilestones = map[MilestoneID]Milestone{
	MilestoneFullCombo:  {ID: MilestoneFullCombo, Name: "Full Combo", Description: "Every note hit in a song"},
	MilestoneSharp:      {ID: MilestoneSharp, Name: "Sharp", Description: "95%+ accuracy in a song"},
	MilestoneStreak100:  {ID: MilestoneStreak100, Name: "Centurion", Description: "100+ note streak"},
	MilestoneRegular:    {ID: MilestoneRegular, Name: "Regular", Description: "Played a song 10+ times"},
	MilestoneDedication: {ID: MilestoneDedication, Name: "Dedication", Description: "Played a song 50+ times"},
}

// EvaluatePlayMilestones checks what a single play earned.
func EvaluatePlayMilestones(p db.SongPlay) []Milestone {
	var earned []Milestone

	if p.TotalNotes > 0 && p.NotesHit == p.TotalNotes {
		earned = append(earned, AllMilestones[MilestoneFullCombo])
	}
	if p.TotalNotes > 0 && p.Accuracy >= 95 {
		earned = append(earned, AllMilestones[MilestoneSharp])
	}
	if p.HighestStreak >= 100 {
		earned = append(earned, AllMilestones[MilestoneStreak100])
	}

	return earned
}

// EvaluateSongMilestones checks milestones across every play of a song.
func EvaluateSongMilestones(s SongSummary) []Milestone {
	var earned []Milestone

	if s.BestAccuracy >= 95 {
		earned = append(earned, AllMilestones[MilestoneSharp])
	}
	if s.BestStreak >= 100 {
		earned = append(earned, AllMilestones[MilestoneStreak100])
	}
	if s.Plays >= 50 {
		earned = append(earned, AllMilestones[MilestoneDedication])
	} else if s.Plays >= 10 {
		earned = append(earned, AllMilestones[MilestoneRegular])
	}

	return earned
}
