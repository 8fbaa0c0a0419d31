package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick results.
const (
	TickOK        = "ok"
	TickSkipped   = "skipped"
	TickTransport = "transport"
	TickDecode    = "decode"
	TickMissing   = "missing"
	TickReinit    = "reinit"
)

type Metrics struct {
	registry *prometheus.Registry

	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	switches     *prometheus.CounterVec
	actions      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songswitcher_ticks_total",
			Help: "Poll ticks by result.",
		}, []string{"result"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "songswitcher_tick_duration_seconds",
			Help:    "Wall time spent processing one tick.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
		}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songswitcher_scene_switches_total",
			Help: "Scene switch requests by outcome.",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songswitcher_actions_total",
			Help: "Actions fired by name.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.ticks, m.tickDuration, m.switches, m.actions)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) ObserveTick(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(result).Inc()
	m.tickDuration.Observe(d.Seconds())
}

// SwitchApplied counts a switch that reached a backend.
func (m *Metrics) SwitchApplied() {
	if m == nil {
		return
	}
	m.switches.WithLabelValues("applied").Inc()
}

// SwitchSuppressed counts a switch dropped by cooldown or a missing backend.
func (m *Metrics) SwitchSuppressed() {
	if m == nil {
		return
	}
	m.switches.WithLabelValues("suppressed").Inc()
}

func (m *Metrics) ActionFired(name string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(name).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
