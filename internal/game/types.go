// Package game contains the puzzle-box state machine.
// This package has NO hardware dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters; feedback goes through
// the FeedbackSink interface and may block.
package game

import "time"

// State is the active phase of the game.
type State string

const (
	StateWaitForStart  State = "WAIT_FOR_START"
	StatePuzzleSolving State = "PUZZLE_SOLVING"
	StateCodeEntry     State = "CODE_ENTRY"
	StateGameOver      State = "GAME_OVER"
	StateGameSuccess   State = "GAME_SUCCESS"
)

// Fixed game configuration. Not runtime-configurable.
const (
	PuzzleTimeLimit = 180 * time.Second
	CodeTimeLimit   = 20 * time.Second
	DebounceDelay   = 50 * time.Millisecond

	NumButtons = 3
)

// Step is one entry of the code sequence: press Button exactly Presses times.
type Step struct {
	Button  int
	Presses int
}

// Sequence is the code the player must enter.
var Sequence = [...]Step{
	{Button: 0, Presses: 2},
	{Button: 1, Presses: 1},
	{Button: 2, Presses: 3},
}

// Feedback parameters.
const (
	StartToneHz   = 1000
	StartTone     = 200 * time.Millisecond
	SuccessToneHz = 2000
	SuccessTone   = 500 * time.Millisecond
	FailureToneHz = 200
	FailureTone   = 1000 * time.Millisecond

	// ToneTail is the extra pause after every tone.
	ToneTail = 100 * time.Millisecond
	// PulseHold is how long an indicator pulse stays lit before clearing.
	PulseHold = 500 * time.Millisecond
)

// Color is an RGB indicator color.
type Color struct {
	R, G, B uint8
}

var (
	ColorOff   = Color{}
	ColorRed   = Color{R: 255}
	ColorGreen = Color{G: 255}
	ColorBlue  = Color{B: 255}
)

// FeedbackSink drives the player-facing outputs. Tone and Pulse block for
// their full duration.
type FeedbackSink interface {
	// Tone plays frequencyHz for d, then stays silent for ToneTail.
	Tone(frequencyHz int, d time.Duration)
	// Pulse lights the indicator in c for PulseHold, then clears it.
	Pulse(c Color)
	// Report writes a diagnostic line. Fire-and-forget.
	Report(line string)
}

// AuxSource reads the auxiliary biometric sensor.
type AuxSource interface {
	// ReadAux returns a raw sample in [0, 1023].
	ReadAux() (int, error)
}

// EventType identifies something that happened during a tick.
type EventType string

const (
	EventGameStarted   EventType = "GAME_STARTED"
	EventPuzzleSolved  EventType = "PUZZLE_SOLVED"
	EventButtonPressed EventType = "BUTTON_PRESSED"
	EventStepComplete  EventType = "STEP_COMPLETE"
	EventGameOver      EventType = "GAME_OVER"
	EventGameSuccess   EventType = "GAME_SUCCESS"
	EventReset         EventType = "RESET"
)

// Reason explains a GAME_OVER.
type Reason string

const (
	ReasonPuzzleTimeout Reason = "PUZZLE_TIMEOUT"
	ReasonCodeTimeout   Reason = "CODE_TIMEOUT"
	ReasonWrongButton   Reason = "WRONG_BUTTON"
	ReasonOvershoot     Reason = "OVERSHOOT"
)

// Event describes a transition or press observed in one tick.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State  // state after the event
	Round     string // identifier of the game round, empty outside a round
	Step      int    // code progress after the event
	Button    int    // BUTTON_PRESSED only, -1 otherwise
	Presses   int    // BUTTON_PRESSED only
	Reason    Reason // GAME_OVER only
	Elapsed   time.Duration
	Pulse     int // GAME_SUCCESS only, 0 if unavailable
}

// Counts tracks lifetime totals since startup. Not cleared by game resets.
type Counts struct {
	Started   int
	Solved    int // puzzle phase completed
	Successes int
	Failures  int
	Timeouts  int // subset of Failures
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
