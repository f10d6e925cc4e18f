package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the whole mutable game state. It is created once at startup and
// reset in place at the end of every round. Not safe for concurrent use.
type Session struct {
	feedback FeedbackSink
	aux      AuxSource
	newRound func() string

	state      State
	stateStart time.Time
	round      string

	step    int
	presses [NumButtons]int
	buttons [NumButtons]buttonState

	startTime     time.Time
	lastHeartbeat time.Time
	counts        Counts
}

// NewSession creates a session in WAIT_FOR_START.
// The startTime is used for calculating uptime in heartbeat events.
func NewSession(feedback FeedbackSink, aux AuxSource, startTime time.Time) *Session {
	return &Session{
		feedback:      feedback,
		aux:           aux,
		newRound:      uuid.NewString,
		state:         StateWaitForStart,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Tick advances the state machine by one polling cycle and returns the events
// that occurred. Feedback is emitted synchronously and may block.
func (s *Session) Tick(now time.Time, touch bool, buttons [NumButtons]bool) []Event {
	switch s.state {
	case StateWaitForStart:
		return s.waitForStart(now, touch)
	case StatePuzzleSolving:
		return s.puzzleSolving(now, touch)
	case StateCodeEntry:
		return s.codeEntry(now, buttons)
	case StateGameOver:
		return s.gameOver(now)
	case StateGameSuccess:
		return s.gameSuccess(now)
	}
	panic(fmt.Sprintf("game: unknown state %q", s.state))
}

func (s *Session) waitForStart(now time.Time, touch bool) []Event {
	if !touch {
		return nil
	}

	s.round = s.newRound()
	s.enter(StatePuzzleSolving, now)
	s.counts.Started++
	s.feedback.Report("game started")
	s.feedback.Tone(StartToneHz, StartTone)
	return []Event{s.event(now, EventGameStarted)}
}

func (s *Session) puzzleSolving(now time.Time, touch bool) []Event {
	elapsed := s.Elapsed(now)

	// Timeout wins over a touch in the same tick
	if elapsed >= PuzzleTimeLimit {
		s.feedback.Report("puzzle time expired")
		return []Event{s.fail(now, ReasonPuzzleTimeout, elapsed)}
	}

	if !touch {
		return nil
	}

	s.feedback.Report("puzzle solved, enter code")
	s.feedback.Tone(SuccessToneHz, SuccessTone)
	s.feedback.Pulse(ColorBlue)
	s.counts.Solved++
	s.enter(StateCodeEntry, now)

	e := s.event(now, EventPuzzleSolved)
	e.Elapsed = elapsed
	return []Event{e}
}

func (s *Session) codeEntry(now time.Time, buttons [NumButtons]bool) []Event {
	elapsed := s.Elapsed(now)
	if elapsed >= CodeTimeLimit {
		s.feedback.Report("code time expired")
		return []Event{s.fail(now, ReasonCodeTimeout, elapsed)}
	}

	var events []Event
	for i, pressed := range buttons {
		if !s.buttons[i].register(pressed, now) {
			continue
		}

		s.presses[i]++
		s.feedback.Report(fmt.Sprintf("button %d pressed (%d)", i, s.presses[i]))
		pe := s.event(now, EventButtonPressed)
		pe.Button = i
		pe.Presses = s.presses[i]
		events = append(events, pe)

		if e, done := s.evaluate(now, i, elapsed); e != nil {
			events = append(events, *e)
			if done {
				return events
			}
		}
	}
	return events
}

// evaluate checks a newly registered press on button against the current
// step. It returns the resulting event, if any, and whether the round ended.
func (s *Session) evaluate(now time.Time, button int, elapsed time.Duration) (*Event, bool) {
	want := Sequence[s.step]

	if button != want.Button {
		s.feedback.Report(fmt.Sprintf("wrong button %d, expected %d", button, want.Button))
		e := s.fail(now, ReasonWrongButton, elapsed)
		return &e, true
	}

	count := s.presses[button]
	switch {
	case count < want.Presses:
		return nil, false

	case count > want.Presses:
		s.feedback.Report(fmt.Sprintf("too many presses on button %d", button))
		e := s.fail(now, ReasonOvershoot, elapsed)
		return &e, true
	}

	s.step++
	if s.step < len(Sequence) {
		e := s.event(now, EventStepComplete)
		return &e, false
	}

	s.feedback.Report("code accepted")
	s.feedback.Tone(SuccessToneHz, SuccessTone)
	s.feedback.Pulse(ColorGreen)
	s.enter(StateGameSuccess, now)

	e := s.event(now, EventStepComplete)
	e.Elapsed = elapsed
	return &e, true
}

// fail emits failure feedback and moves to GAME_OVER.
func (s *Session) fail(now time.Time, reason Reason, elapsed time.Duration) Event {
	s.feedback.Tone(FailureToneHz, FailureTone)
	s.feedback.Pulse(ColorRed)
	s.enter(StateGameOver, now)

	s.counts.Failures++
	if reason == ReasonPuzzleTimeout || reason == ReasonCodeTimeout {
		s.counts.Timeouts++
	}

	e := s.event(now, EventGameOver)
	e.Reason = reason
	e.Elapsed = elapsed
	return e
}

func (s *Session) gameOver(now time.Time) []Event {
	s.feedback.Report("game over")
	return []Event{s.resetEvent(now)}
}

func (s *Session) gameSuccess(now time.Time) []Event {
	s.feedback.Report("game success")
	s.counts.Successes++

	e := s.event(now, EventGameSuccess)
	raw, err := s.aux.ReadAux()
	if err != nil {
		s.feedback.Report("pulse: unavailable")
	} else {
		e.Pulse = PulseFromRaw(raw)
		s.feedback.Report(fmt.Sprintf("pulse: %d bpm", e.Pulse))
	}

	return []Event{e, s.resetEvent(now)}
}

// resetEvent resets the session and returns a RESET event carrying the round
// that just ended.
func (s *Session) resetEvent(now time.Time) Event {
	e := s.event(now, EventReset)
	s.reset()
	e.State = s.state
	e.Step = s.step
	return e
}

func (s *Session) enter(state State, now time.Time) {
	s.state = state
	s.stateStart = now
}

// reset returns to WAIT_FOR_START and clears code progress. Debounce state
// follows the physical buttons and is kept.
func (s *Session) reset() {
	s.state = StateWaitForStart
	s.stateStart = time.Time{}
	s.round = ""
	s.step = 0
	s.presses = [NumButtons]int{}
}

func (s *Session) event(now time.Time, typ EventType) Event {
	return Event{
		Timestamp: now,
		Type:      typ,
		State:     s.state,
		Round:     s.round,
		Step:      s.step,
		Button:    -1,
	}
}

// State returns the active state.
func (s *Session) State() State {
	return s.state
}

// Round returns the current round identifier, empty when no game is running.
func (s *Session) Round() string {
	return s.round
}

// Step returns the number of completed code steps.
func (s *Session) Step() int {
	return s.step
}

// Presses returns the per-button press counts of the current attempt.
func (s *Session) Presses() [NumButtons]int {
	return s.presses
}

// Elapsed returns the time spent in the active state. Only meaningful in
// PUZZLE_SOLVING and CODE_ENTRY.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.stateStart)
}

// Remaining returns the time left in a timed state, or 0 for untimed states.
func (s *Session) Remaining(now time.Time) time.Duration {
	var limit time.Duration
	switch s.state {
	case StatePuzzleSolving:
		limit = PuzzleTimeLimit
	case StateCodeEntry:
		limit = CodeTimeLimit
	default:
		return 0
	}
	if left := limit - s.Elapsed(now); left > 0 {
		return left
	}
	return 0
}

// CountsSnapshot returns a copy of the lifetime counters.
func (s *Session) CountsSnapshot() Counts {
	return s.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (s *Session) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Counts:    s.counts,
	}
}
