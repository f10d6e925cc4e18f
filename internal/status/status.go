// Package status provides a thread-safe status tracker for the puzzle-box daemon.
// The run loop writes it once per tick; HTTP handlers read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
)

// NetworkInfo contains network state as written by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
}

// Game is the live view of the game session.
type Game struct {
	State     game.State
	Round     string
	Step      int
	Presses   [game.NumButtons]int
	Remaining time.Duration
	Counts    game.Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Game          Game
	LastOutcome   *game.Event // most recent GAME_OVER or GAME_SUCCESS
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Game:      Game{State: game.StateWaitForStart},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the game view. Called from runLoop on every tick.
func (t *Tracker) Update(g Game) {
	t.mu.Lock()
	t.snap.Game = g
	t.mu.Unlock()
}

// RecordEvent keeps terminal events as the last outcome; other events are
// ignored.
func (t *Tracker) RecordEvent(e game.Event) {
	if e.Type != game.EventGameOver && e.Type != game.EventGameSuccess {
		return
	}
	t.mu.Lock()
	t.snap.LastOutcome = &e
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastOutcome != nil {
		e := *s.LastOutcome
		s.LastOutcome = &e
	}
	s.Now = time.Now()
	return s
}
