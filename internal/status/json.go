package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Game          GameJSON     `json:"game"`
	LastOutcome   *OutcomeJSON `json:"last_outcome,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// GameJSON is the JSON representation of the live game.
type GameJSON struct {
	State       string `json:"state"`
	Round       string `json:"round,omitempty"`
	Step        int    `json:"step"`
	Steps       int    `json:"steps"`
	Presses     []int  `json:"presses"`
	RemainingMs int64  `json:"remaining_ms"`
}

// OutcomeJSON describes how the most recent round ended.
type OutcomeJSON struct {
	Event     string `json:"event"`
	Round     string `json:"round"`
	Reason    string `json:"reason,omitempty"`
	Pulse     int    `json:"pulse,omitempty"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of lifetime game counts.
type CountsJSON struct {
	Started   int `json:"started"`
	Solved    int `json:"solved"`
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
	Timeouts  int `json:"timeouts"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config. The game limits
// are build-time constants and reported for reference only.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Broker          string `json:"broker"`
	HTTPPort        string `json:"http_port"`
	PuzzleLimitMs   int64  `json:"puzzle_limit_ms"`
	CodeLimitMs     int64  `json:"code_limit_ms"`
	DebounceDelayMs int64  `json:"debounce_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Game.State)
	if state == "" {
		state = "UNKNOWN"
	}

	return StatusInner{
		Game: GameJSON{
			State:       state,
			Round:       snap.Game.Round,
			Step:        snap.Game.Step,
			Steps:       len(game.Sequence),
			Presses:     snap.Game.Presses[:],
			RemainingMs: snap.Game.Remaining.Milliseconds(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Started:   snap.Game.Counts.Started,
			Solved:    snap.Game.Counts.Solved,
			Successes: snap.Game.Counts.Successes,
			Failures:  snap.Game.Counts.Failures,
			Timeouts:  snap.Game.Counts.Timeouts,
		},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Broker:          snap.Config.Broker,
			HTTPPort:        snap.Config.HTTPPort,
			PuzzleLimitMs:   game.PuzzleTimeLimit.Milliseconds(),
			CodeLimitMs:     game.CodeTimeLimit.Milliseconds(),
			DebounceDelayMs: game.DebounceDelay.Milliseconds(),
		},
	}
}

func buildOutcome(snap Snapshot, inner *StatusInner) {
	if e := snap.LastOutcome; e != nil {
		inner.LastOutcome = &OutcomeJSON{
			Event:     string(e.Type),
			Round:     e.Round,
			Reason:    string(e.Reason),
			Pulse:     e.Pulse,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		}
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildOutcome(snap, &inner)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// LiveGameJSON is the live view of the current round.
type LiveGameJSON struct {
	GameJSON
	Running     bool         `json:"running"`
	LastOutcome *OutcomeJSON `json:"last_outcome,omitempty"`
}

// FormatGameJSON returns the live round for game-master screens.
func FormatGameJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildOutcome(snap, &inner)

	state := snap.Game.State
	data, _ := json.Marshal(LiveGameJSON{
		GameJSON:    inner.Game,
		Running:     state == game.StatePuzzleSolving || state == game.StateCodeEntry,
		LastOutcome: inner.LastOutcome,
	})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildOutcome(snap, &inner)
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
