package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultSnifferHost    = "127.0.0.1"
	DefaultSnifferPort    = 9938
	DefaultRotationPeriod = 5 // seconds
	DefaultCooldown       = 3 // seconds
	DefaultTickInterval   = 1000
	DefaultPort           = "8080"
	DefaultOBSAddr        = "127.0.0.1:4455"
	DefaultActivity       = "whitelist"
	DefaultLogLevel       = "info"
)

// raw mirrors the host inputs as strings; interpretation and fallbacks
// happen in Load so a bad value never stops the process.
type raw struct {
	SnifferHost      string `env:"SNIFFER_HOST"`
	SnifferPort      string `env:"SNIFFER_PORT"`
	MenuScene        string `env:"MENU_SCENE"`
	SongScenes       string `env:"SONG_SCENES"`
	PauseScene       string `env:"PAUSE_SCENE"`
	SwitchScenes     string `env:"SWITCH_SCENES" envDefault:"true"`
	ReactToSections  string `env:"REACT_TO_SECTIONS" envDefault:"true"`
	RotationPeriod   string `env:"ROTATION_PERIOD"`
	ActivityBehavior string `env:"ACTIVITY_BEHAVIOR"`
	BlacklistScenes  string `env:"BLACKLIST_SCENES"`
	LogLevel         string `env:"LOG_LEVEL"`
	TickInterval     string `env:"TICK_INTERVAL"`
	SwitchCooldown   string `env:"SWITCH_COOLDOWN"`
	OBSAddr          string `env:"OBS_ADDR"`
	OBSPassword      string `env:"OBS_PASSWORD"`
	SLOBSAddr        string `env:"SLOBS_ADDR"`
	SLOBSToken       string `env:"SLOBS_TOKEN"`
	Port             string `env:"PORT"`
	DatabaseURL      string `env:"DATABASE_URL"`
}

type Config struct {
	SnifferHost string
	SnifferPort int

	MenuScene       string
	SongScenes      []string
	PauseScene      string
	SwitchScenes    bool
	ReactToSections bool
	RotationPeriod  time.Duration

	// ActivityBehavior is kept as the raw mode string; gamestate decides
	// what an unknown value means.
	ActivityBehavior string
	BlacklistScenes  []string

	LogLevel       string
	TickInterval   time.Duration
	SwitchCooldown time.Duration

	OBSAddr     string
	OBSPassword string
	SLOBSAddr   string
	SLOBSToken  string

	Port        string
	DatabaseURL string
}

func Load() (Config, error) {
	var r raw
	if err := env.Parse(&r); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		SnifferHost:      orDefault(r.SnifferHost, DefaultSnifferHost),
		SnifferPort:      parseInt(r.SnifferPort, DefaultSnifferPort),
		MenuScene:        strings.TrimSpace(r.MenuScene),
		SongScenes:       SplitList(r.SongScenes),
		PauseScene:       strings.TrimSpace(r.PauseScene),
		SwitchScenes:     parseBool(r.SwitchScenes, true),
		ReactToSections:  parseBool(r.ReactToSections, true),
		RotationPeriod:   time.Duration(parseInt(r.RotationPeriod, DefaultRotationPeriod)) * time.Second,
		ActivityBehavior: orDefault(r.ActivityBehavior, DefaultActivity),
		BlacklistScenes:  SplitList(r.BlacklistScenes),
		LogLevel:         orDefault(r.LogLevel, DefaultLogLevel),
		TickInterval:     time.Duration(parseInt(r.TickInterval, DefaultTickInterval)) * time.Millisecond,
		SwitchCooldown:   time.Duration(parseInt(r.SwitchCooldown, DefaultCooldown)) * time.Second,
		OBSAddr:          orDefault(r.OBSAddr, DefaultOBSAddr),
		OBSPassword:      r.OBSPassword,
		SLOBSAddr:        strings.TrimSpace(r.SLOBSAddr),
		SLOBSToken:       r.SLOBSToken,
		Port:             orDefault(r.Port, DefaultPort),
		DatabaseURL:      strings.TrimSpace(r.DatabaseURL),
	}
	return cfg, nil
}

// SnifferAddr is the host:port of the telemetry source.
func (c Config) SnifferAddr() string {
	return fmt.Sprintf("%s:%d", c.SnifferHost, c.SnifferPort)
}

// SplitList splits a comma or semicolon separated scene list, dropping
// empty entries.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func parseInt(v string, fallback int) int {
	if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i > 0 {
		return i
	}
	return fallback
}

func parseBool(v string, fallback bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
		return b
	}
	return fallback
}
