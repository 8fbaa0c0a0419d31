// Package gamestate turns polled readouts into game stage, pause and
// section decisions, scene switch requests and named actions.
package gamestate

import (
	"context"
	"fmt"
	"time"

	"songswitcher/internal/config"
	"songswitcher/internal/monitoring"
	"songswitcher/internal/telemetry"
)

// Action names dispatched to the host.
const (
	ActionSongStart  = "SongStart"
	ActionSongEnd    = "SongEnd"
	ActionEnterTuner = "enterTuner"
	ActionLeaveTuner = "leaveTuner"
	ActionEnterPause = "enterPause"
	ActionLeavePause = "leavePause"
)

func EnterSection(t SectionType) string { return "enter" + string(t) }
func LeaveSection(t SectionType) string { return "leave" + string(t) }

// pauseBoundaryTicks is how many unchanged samples are needed before
// declaring a pause at the very start or end of a song.
const pauseBoundaryTicks = 3

// songEndSlack is how close to the song length counts as "at the end".
const songEndSlack = 0.25

type Config struct {
	MenuScene       string
	SongScenes      []string
	PauseScene      string
	SwitchScenes    bool
	ReactToSections bool
	RotationPeriod  time.Duration
	Activity        ActivityBehavior
	Blacklist       []string
}

func ConfigFrom(c config.Config) Config {
	period := c.RotationPeriod
	if period <= 0 {
		period = config.DefaultRotationPeriod * time.Second
	}
	return Config{
		MenuScene:       c.MenuScene,
		SongScenes:      c.SongScenes,
		PauseScene:      c.PauseScene,
		SwitchScenes:    c.SwitchScenes,
		ReactToSections: c.ReactToSections,
		RotationPeriod:  period,
		Activity:        ParseActivity(c.ActivityBehavior),
		Blacklist:       c.BlacklistScenes,
	}
}

// SceneSwitcher is the part of the scene controller the tracker may use.
// Requests are advisory; the controller enforces the cooldown.
type SceneSwitcher interface {
	RequestSwitch(ctx context.Context, scene string) bool
	InCooldown() bool
	SinceLastSwitch() time.Duration
}

type ActionRunner interface {
	Run(name string)
}

type VariableWriter interface {
	Set(name string, value any) error
}

// Play is one completed song.
type Play struct {
	SongName      string
	ArtistName    string
	Arrangement   string
	Accuracy      float64
	NotesHit      int
	TotalNotes    int
	HighestStreak int
	EndedAt       time.Time
}

type PlayRecorder interface {
	RecordPlay(ctx context.Context, p Play) error
}

type Tracker struct {
	cfg     Config
	scenes  SceneSwitcher
	actions ActionRunner
	vars    VariableWriter
	plays   PlayRecorder // optional
	seed    func() Statistics
	state   State
}

func New(cfg Config, scenes SceneSwitcher, actions ActionRunner, vars VariableWriter) *Tracker {
	return &Tracker{
		cfg:     cfg,
		scenes:  scenes,
		actions: actions,
		vars:    vars,
		state:   NewState(),
	}
}

// WithPlayRecorder sets where completed songs are recorded.
func (t *Tracker) WithPlayRecorder(p PlayRecorder) *Tracker {
	t.plays = p
	return t
}

// WithStatisticsSeed sets where lifetime statistics start from, both now
// and after every Reset.
func (t *Tracker) WithStatisticsSeed(seed func() Statistics) *Tracker {
	t.seed = seed
	t.state.Stats = seed()
	return t
}

// Reset returns the tracker to its freshly initialized state.
func (t *Tracker) Reset() {
	t.state = NewState()
	if t.seed != nil {
		t.state.Stats = t.seed()
	}
}

func (t *Tracker) Config() Config { return t.cfg }

// State returns a copy of the current session state.
func (t *Tracker) State() State { return t.state }

func (t *Tracker) IsRelevantScene(scene string) bool {
	return t.cfg.IsRelevantScene(scene)
}

// Update runs one tick: classify, account statistics, decide scenes and
// actions, then remember stage and timer for the next tick.
func (t *Tracker) Update(ctx context.Context, r *telemetry.Readout, scene string) error {
	stage, err := ClassifyStage(r)
	if err != nil {
		return err
	}
	s := &t.state
	s.Stage = stage
	timer := r.Timer()

	if err := t.writeLive(stage, timer); err != nil {
		return err
	}
	if stage == StageInSong {
		if err := t.UpdateStatistics(r); err != nil {
			return err
		}
	}
	if err := t.decide(ctx, r, scene); err != nil {
		return err
	}

	s.LastStage = stage
	s.LastTimer = timer
	return nil
}

func (t *Tracker) decide(ctx context.Context, r *telemetry.Readout, scene string) error {
	s := &t.state
	last, cur := s.LastStage, s.Stage
	timer := r.Timer()
	timerChanged := timer != s.LastTimer

	if cur == StageInTuner && last != StageInTuner {
		t.fire(ActionEnterTuner)
	}
	if last == StageInTuner && cur != StageInTuner {
		t.fire(ActionLeaveTuner)
	}
	if last == StageInSong && cur != StageInSong {
		t.endSong(ctx)
	}
	if cur == StageInSong && last != StageInSong {
		s.PauseTicks = 0
		s.Paused = false
		t.fire(ActionSongStart)
	}

	switch cur {
	case StageInSong:
		if !s.ArrangementIdentified && t.IdentifyArrangement(r) {
			if err := t.writeSongDetails(); err != nil {
				return err
			}
		}
		if t.cfg.isSongScene(scene) {
			t.onSongScene(ctx, r, scene)
		} else {
			t.offSongScene(ctx, scene, timerChanged)
		}
		if s.ArrangementIdentified && t.cfg.ReactToSections {
			if err := t.updateSection(timer); err != nil {
				return err
			}
		}
	case StageMenu:
		if t.cfg.SwitchScenes && t.cfg.MenuScene != "" {
			t.requestSwitch(ctx, t.cfg.MenuScene, scene)
		}
	}
	return nil
}

// onSongScene handles a running song while a song scene is live: pause
// detection first, otherwise rotation.
func (t *Tracker) onSongScene(ctx context.Context, r *telemetry.Readout, scene string) {
	s := &t.state
	paused := t.DetectPause(r)

	if paused {
		if !s.Paused {
			s.Paused = true
			monitoring.Infof("[Tracker] Pause detected at %.2fs after %d unchanged ticks\n", r.Timer(), s.PauseTicks)
			t.fire(ActionEnterPause)
		}
		// Asked again every paused tick; a request made during the
		// cooldown is dropped by the controller.
		if t.cfg.SwitchScenes && t.cfg.PauseScene != "" {
			t.requestSwitch(ctx, t.cfg.PauseScene, scene)
		}
		return
	}
	if s.Paused {
		s.Paused = false
		t.fire(ActionLeavePause)
	}

	n := len(t.cfg.SongScenes)
	if !t.cfg.SwitchScenes || n < 2 {
		return
	}
	// Rotate from whatever is live, which may differ from the pointer
	// after a restart, a reinit or a manual switch.
	if i := t.cfg.songSceneIndex(scene); i >= 0 {
		s.SceneIndex = i
	}
	if t.scenes.SinceLastSwitch() < t.cfg.RotationPeriod {
		return
	}
	next := (s.SceneIndex + 1) % n
	if t.requestSwitch(ctx, t.cfg.SongScenes[next], scene) {
		s.SceneIndex = next
	}
}

// offSongScene handles a running song while the broadcast still shows the
// menu, the pause scene or something else.
func (t *Tracker) offSongScene(ctx context.Context, scene string, timerChanged bool) {
	s := &t.state
	if timerChanged {
		s.PauseTicks = 0
	}

	onPauseScene := t.cfg.PauseScene != "" && scene == t.cfg.PauseScene
	if onPauseScene {
		// Stay put while the song is still frozen.
		if !timerChanged || t.scenes.InCooldown() {
			return
		}
		s.Paused = false
		t.fire(ActionLeavePause)
	} else if s.Paused && timerChanged {
		s.Paused = false
		t.fire(ActionLeavePause)
	}

	if t.cfg.SwitchScenes && len(t.cfg.SongScenes) > 0 {
		s.SceneIndex %= len(t.cfg.SongScenes)
		t.requestSwitch(ctx, t.cfg.SongScenes[s.SceneIndex], scene)
	}
}

// DetectPause reports whether the song timer is frozen. Near the start or
// the end of a song a few repeated samples are normal, so several
// unchanged ticks are required there; mid-song one is enough.
func (t *Tracker) DetectPause(r *telemetry.Readout) bool {
	s := &t.state
	timer := r.Timer()
	if timer != s.LastTimer {
		s.PauseTicks = 0
		return false
	}
	s.PauseTicks++

	length := r.SongLength()
	atBoundary := timer == 0 || (length > 0 && length-timer < songEndSlack)
	if atBoundary {
		return s.PauseTicks >= pauseBoundaryTicks
	}
	return true
}

// IdentifyArrangement finds the readout's active arrangement in the song
// details. Not finding one is normal while a song loads.
func (t *Tracker) IdentifyArrangement(r *telemetry.Readout) bool {
	s := &t.state
	s.Arrangement = nil
	s.SectionIndex = -1
	if r == nil || r.Memory == nil || r.Song == nil || r.Memory.ArrangementID == "" {
		return false
	}
	for _, a := range r.Song.Arrangements {
		if a.ArrangementID != r.Memory.ArrangementID {
			continue
		}
		arr := a
		arr.Sections = append([]telemetry.Section(nil), a.Sections...)
		song := *r.Song
		song.Arrangements = nil
		s.Arrangement = &arr
		s.Song = &song
		s.ArrangementIdentified = true
		monitoring.Infof("[Tracker] Identified arrangement %q (%s) for %q\n", arr.Name, arr.ArrangementID, song.SongName)
		return true
	}
	monitoring.Debugf("[Tracker] Arrangement %q not in song details yet\n", r.Memory.ArrangementID)
	return false
}

// IdentifySection classifies the section the tracker is currently in.
func (t *Tracker) IdentifySection() SectionType {
	s := &t.state
	if s.Arrangement == nil || s.SectionIndex < 0 || s.SectionIndex >= len(s.Arrangement.Sections) {
		return SectionDefault
	}
	return ClassifySection(s.Arrangement.Sections[s.SectionIndex].Name)
}

func (t *Tracker) updateSection(timer float64) error {
	s := &t.state
	if s.Arrangement == nil {
		return fmt.Errorf("%w: arrangement marked identified but missing (stage %s, timer %.2f)",
			ErrInconsistentState, s.Stage, timer)
	}
	secs := s.Arrangement.Sections
	if len(secs) == 0 {
		return nil
	}

	if s.LastTimer != noTimer && timer < s.LastTimer {
		s.SectionIndex = -1
	}
	idx := s.SectionIndex
	if idx == -1 {
		if timer < secs[0].StartTime {
			return nil
		}
		idx = 0
	}
	for idx < len(secs) && timer >= secs[idx].EndTime {
		idx++
	}
	if idx == s.SectionIndex {
		return nil
	}
	s.SectionIndex = idx

	next := t.IdentifySection()
	if next == s.Section {
		return nil
	}
	prev := s.Section
	s.Section = next
	t.fire(LeaveSection(prev))
	t.fire(EnterSection(next))

	name := ""
	if idx < len(secs) {
		name = secs[idx].Name
	}
	if err := t.set(VarSectionName, name); err != nil {
		return err
	}
	return t.set(VarSectionType, string(next))
}

func (t *Tracker) endSong(ctx context.Context) {
	s := &t.state
	t.fire(ActionSongEnd)

	if t.plays != nil && s.Song != nil {
		p := Play{
			SongName:   s.Song.SongName,
			ArtistName: s.Song.ArtistName,
			EndedAt:    time.Now(),
		}
		if s.Arrangement != nil {
			p.Arrangement = s.Arrangement.Name
		}
		if s.Notes != nil {
			p.Accuracy = s.Notes.Accuracy
			p.NotesHit = s.Notes.TotalNotesHit
			p.TotalNotes = s.Notes.TotalNotes
			p.HighestStreak = s.Notes.HighestHitStreak
		}
		if err := t.plays.RecordPlay(ctx, p); err != nil {
			monitoring.Warnf("[Tracker] Recording play of %q failed: %v\n", p.SongName, err)
		}
	}
	s.clearSong()
}

func (t *Tracker) requestSwitch(ctx context.Context, target, current string) bool {
	if target == "" || target == current {
		return false
	}
	return t.scenes.RequestSwitch(ctx, target)
}

func (t *Tracker) fire(name string) {
	monitoring.Debugf("[Tracker] Action %s\n", name)
	t.actions.Run(name)
}

func (t *Tracker) set(name string, value any) error {
	if err := t.vars.Set(name, value); err != nil {
		return fmt.Errorf("%w %s: %v", ErrPersist, name, err)
	}
	return nil
}

func (t *Tracker) writeLive(stage Stage, timer float64) error {
	if err := t.set(VarGameStage, string(stage)); err != nil {
		return err
	}
	if err := t.set(VarSongTimer, roundTo(timer, 2)); err != nil {
		return err
	}
	return t.set(VarSongTimerFormatted, FormatSeconds(timer))
}

func (t *Tracker) writeSongDetails() error {
	s := &t.state
	if s.Song == nil || s.Arrangement == nil {
		return fmt.Errorf("%w: song details missing after arrangement match", ErrInconsistentState)
	}
	values := []struct {
		name  string
		value any
	}{
		{VarSongName, s.Song.SongName},
		{VarSongArtist, s.Song.ArtistName},
		{VarSongAlbum, s.Song.AlbumName},
		{VarSongYear, s.Song.AlbumYear},
		{VarSongLength, roundTo(s.Song.SongLength, 2)},
		{VarSongLengthFormatted, FormatSeconds(s.Song.SongLength)},
		{VarArrangementName, s.Arrangement.Name},
		{VarArrangementType, s.Arrangement.Type},
		{VarArrangementTuning, s.Arrangement.Tuning.TuningName},
	}
	for _, v := range values {
		if err := t.set(v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}
