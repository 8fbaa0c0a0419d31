package gamestate

import (
	"errors"
	"fmt"
	"strings"

	"songswitcher/internal/telemetry"
)

var (
	// ErrMissingTelemetry means a required readout field was absent. The
	// tick should be abandoned.
	ErrMissingTelemetry = errors.New("missing telemetry field")
	// ErrInconsistentState means tracker state contradicted itself; the
	// tracker and scene controller must be reinitialized.
	ErrInconsistentState = errors.New("inconsistent tracker state")
	// ErrPersist means an output variable could not be written.
	ErrPersist = errors.New("persisting output variable")
)

type Stage string

const (
	StageMenu    = Stage("Menu")
	StageInSong  = Stage("InSong")
	StageInTuner = Stage("InTuner")
)

// inSongStages are matched exactly; everything else is menu unless it
// mentions the tuner.
var inSongStages = map[string]bool{
	"las_game": true,
	"sa_game":  true,
}

// ClassifyStageName maps a raw stage string to a Stage.
func ClassifyStageName(raw string) Stage {
	if inSongStages[raw] {
		return StageInSong
	}
	if strings.Contains(strings.ToLower(raw), "tuner") {
		return StageInTuner
	}
	return StageMenu
}

// ClassifyStage fails with ErrMissingTelemetry when the readout carries no
// stage.
func ClassifyStage(r *telemetry.Readout) (Stage, error) {
	raw, ok := r.Stage()
	if !ok {
		return StageMenu, fmt.Errorf("%w: memoryReadout.gameStage", ErrMissingTelemetry)
	}
	return ClassifyStageName(raw), nil
}
