package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveTick(TickOK, 20*time.Millisecond)
	m.ObserveTick(TickSkipped, time.Millisecond)
	m.SwitchApplied()
	m.SwitchSuppressed()
	m.ActionFired("SongStart")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		`songswitcher_ticks_total{result="ok"} 1`,
		`songswitcher_ticks_total{result="skipped"} 1`,
		`songswitcher_scene_switches_total{outcome="applied"} 1`,
		`songswitcher_actions_total{action="SongStart"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	// Should not panic
	m.ObserveTick(TickOK, time.Second)
	m.SwitchApplied()
	m.SwitchSuppressed()
	m.ActionFired("x")
}
