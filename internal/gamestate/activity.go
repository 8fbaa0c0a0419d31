package gamestate

import "strings"

// ActivityBehavior decides which broadcast scenes are worth polling for.
type ActivityBehavior string

const (
	WhiteList = ActivityBehavior("whitelist")
	BlackList = ActivityBehavior("blacklist")
	AlwaysOn  = ActivityBehavior("always")
)

// ParseActivity normalizes a mode string. Empty means WhiteList; anything
// unrecognised is kept as-is and treated as never relevant.
func ParseActivity(s string) ActivityBehavior {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WhiteList
	}
	return ActivityBehavior(s)
}

// IsRelevantScene reports whether telemetry should be polled while the
// broadcast shows scene.
func (c Config) IsRelevantScene(scene string) bool {
	switch c.Activity {
	case WhiteList:
		if scene == "" {
			return false
		}
		if scene == c.MenuScene || scene == c.PauseScene {
			return true
		}
		return c.isSongScene(scene)
	case BlackList:
		needle := strings.ToLower(strings.TrimSpace(scene))
		for _, b := range c.Blacklist {
			if strings.ToLower(strings.TrimSpace(b)) == needle {
				return false
			}
		}
		return true
	case AlwaysOn:
		return true
	default:
		return false
	}
}

func (c Config) isSongScene(scene string) bool {
	return c.songSceneIndex(scene) >= 0
}

func (c Config) songSceneIndex(scene string) int {
	for i, s := range c.SongScenes {
		if s == scene {
			return i
		}
	}
	return -1
}
