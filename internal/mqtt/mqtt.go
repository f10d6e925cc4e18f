// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
)

// Topic is the MQTT topic for game events.
const Topic = "escape/puzzlebox/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "escape/puzzlebox/system"

// TopicLog is the MQTT topic for diagnostic report lines.
const TopicLog = "escape/puzzlebox/log"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a game event to the broker. Implementations must not
	// block the caller on the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event game.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Report sends a diagnostic line to the broker.
	Report(line string) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Game GamePayload `json:"game"`
}

// GamePayload contains the game event details.
type GamePayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
	Round     string `json:"round,omitempty"`
	Step      int    `json:"step"`
	Button    *int   `json:"button,omitempty"`
	Presses   int    `json:"presses,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	Pulse     int    `json:"pulse,omitempty"`
}

// FormatPayload creates the JSON payload for a game event.
func FormatPayload(event game.Event) ([]byte, error) {
	p := GamePayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Event:     string(event.Type),
		State:     string(event.State),
		Round:     event.Round,
		Step:      event.Step,
		Presses:   event.Presses,
		Reason:    string(event.Reason),
		ElapsedMs: event.Elapsed.Milliseconds(),
		Pulse:     event.Pulse,
	}
	if event.Button >= 0 {
		b := event.Button
		p.Button = &b
	}
	return json.Marshal(Payload{Game: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Event:  event.Event,
			Reason: event.Reason,
		},
	}
	if !event.Timestamp.IsZero() {
		payload.System.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// LogPayload is the MQTT message payload for a report line.
type LogPayload struct {
	Log LogPayloadInner `json:"log"`
}

// LogPayloadInner contains the report line.
type LogPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Line      string `json:"line"`
}

// FormatLogPayload creates the JSON payload for a report line.
func FormatLogPayload(ts time.Time, line string) ([]byte, error) {
	return json.Marshal(LogPayload{Log: LogPayloadInner{
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Line:      line,
	}})
}
