package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0       = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	released [NumButtons]bool
)

func newTestSession(t *testing.T) (*Session, *FakeFeedback, *FakeAux) {
	t.Helper()
	fb := NewFakeFeedback()
	aux := &FakeAux{Value: 512}
	s := NewSession(fb, aux, t0)
	s.newRound = func() string { return "round-1" }
	return s, fb, aux
}

// startCodeEntry touches at t0 and again at t0+5s, returning the time code
// entry began.
func startCodeEntry(t *testing.T, s *Session) time.Time {
	t.Helper()
	s.Tick(t0, true, released)
	require.Equal(t, StatePuzzleSolving, s.State())
	at := t0.Add(5 * time.Second)
	s.Tick(at, true, released)
	require.Equal(t, StateCodeEntry, s.State())
	return at
}

func only(button int) [NumButtons]bool {
	var b [NumButtons]bool
	b[button] = true
	return b
}

// press holds button for one tick at `at` and releases it 20ms later if the
// game is still in code entry.
func press(s *Session, at time.Time, button int) []Event {
	events := s.Tick(at, false, only(button))
	if s.State() == StateCodeEntry {
		events = append(events, s.Tick(at.Add(20*time.Millisecond), false, released)...)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestNewSession(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.Equal(t, StateWaitForStart, s.State())
	assert.Equal(t, 0, s.Step())
	assert.Equal(t, [NumButtons]int{}, s.Presses())
	assert.Empty(t, s.Round())
}

func TestWaitForStartIdle(t *testing.T) {
	s, fb, _ := newTestSession(t)
	for i := 0; i < 10; i++ {
		events := s.Tick(t0.Add(time.Duration(i)*time.Second), false, only(0))
		assert.Empty(t, events)
	}
	assert.Equal(t, StateWaitForStart, s.State())
	assert.Empty(t, fb.Calls)
}

func TestScenarioTouchStartsAndSolvesPuzzle(t *testing.T) {
	s, fb, _ := newTestSession(t)

	events := s.Tick(t0, true, released)
	require.Len(t, events, 1)
	assert.Equal(t, EventGameStarted, events[0].Type)
	assert.Equal(t, StatePuzzleSolving, events[0].State)
	assert.Equal(t, "round-1", events[0].Round)
	assert.Equal(t, []int{StartToneHz}, fb.Tones())
	assert.Empty(t, fb.Pulses())

	at := t0.Add(5 * time.Second)
	events = s.Tick(at, true, released)
	require.Len(t, events, 1)
	assert.Equal(t, EventPuzzleSolved, events[0].Type)
	assert.Equal(t, 5*time.Second, events[0].Elapsed)
	assert.Equal(t, StateCodeEntry, s.State())
	assert.Equal(t, CodeTimeLimit, s.Remaining(at))
	assert.Equal(t, []Color{ColorBlue}, fb.Pulses())
	assert.Equal(t, []int{StartToneHz, SuccessToneHz}, fb.Tones())
}

func TestPuzzleTimeoutIgnoresInput(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Tick(t0, true, released)

	events := s.Tick(t0.Add(PuzzleTimeLimit-time.Millisecond), false, only(1))
	assert.Empty(t, events)
	assert.Equal(t, StatePuzzleSolving, s.State())

	// Touch and every button asserted on the expiry tick: timeout still wins
	events = s.Tick(t0.Add(PuzzleTimeLimit), true, [NumButtons]bool{true, true, true})
	require.Len(t, events, 1)
	assert.Equal(t, EventGameOver, events[0].Type)
	assert.Equal(t, ReasonPuzzleTimeout, events[0].Reason)
	assert.Equal(t, StateGameOver, s.State())
}

func TestPuzzleTimeoutLateTick(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Tick(t0, true, released)

	events := s.Tick(t0.Add(PuzzleTimeLimit+42*time.Second), false, released)
	require.Len(t, events, 1)
	assert.Equal(t, ReasonPuzzleTimeout, events[0].Reason)
	assert.Equal(t, PuzzleTimeLimit+42*time.Second, events[0].Elapsed)
}

func TestScenarioPuzzleTimeoutFeedbackOnce(t *testing.T) {
	s, fb, _ := newTestSession(t)
	s.Tick(t0, true, released)
	fb.Reset()

	var overs int
	for sec := 1; sec <= 185; sec++ {
		for _, e := range s.Tick(t0.Add(time.Duration(sec)*time.Second), false, released) {
			if e.Type == EventGameOver {
				overs++
			}
		}
	}

	assert.Equal(t, 1, overs)
	assert.Equal(t, []Color{ColorRed}, fb.Pulses())
	assert.Equal(t, []int{FailureToneHz}, fb.Tones())
	assert.Equal(t, StateWaitForStart, s.State())
	assert.Contains(t, fb.Lines(), "game over")
}

func TestExactCountAdvancesStep(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	events := press(s, at.Add(100*time.Millisecond), 0)
	assert.Equal(t, []EventType{EventButtonPressed}, eventTypes(events))
	assert.Equal(t, 0, s.Step(), "one fewer press must not advance")

	events = press(s, at.Add(200*time.Millisecond), 0)
	assert.Equal(t, []EventType{EventButtonPressed, EventStepComplete}, eventTypes(events))
	assert.Equal(t, 1, s.Step())
	assert.Equal(t, StateCodeEntry, s.State())
	assert.Equal(t, 2, events[0].Presses)
	assert.Equal(t, 0, events[0].Button)
}

func TestExtraPressOnCompletedButtonEndsGame(t *testing.T) {
	s, fb, _ := newTestSession(t)
	at := startCodeEntry(t, s)
	fb.Reset()

	press(s, at.Add(100*time.Millisecond), 0)
	press(s, at.Add(200*time.Millisecond), 0)
	events := press(s, at.Add(300*time.Millisecond), 0)

	require.Len(t, events, 2)
	assert.Equal(t, EventGameOver, events[1].Type)
	assert.Equal(t, StateGameOver, s.State())
	assert.Equal(t, []Color{ColorRed}, fb.Pulses())
}

func TestOvershootOnCurrentStep(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	// Counts already at the requirement without the step having advanced
	s.presses[0] = Sequence[0].Presses

	events := s.Tick(at.Add(100*time.Millisecond), false, only(0))
	require.Len(t, events, 2)
	assert.Equal(t, EventGameOver, events[1].Type)
	assert.Equal(t, ReasonOvershoot, events[1].Reason)
	assert.Equal(t, StateGameOver, s.State())
}

func TestScenarioWrongFirstButton(t *testing.T) {
	s, fb, _ := newTestSession(t)
	at := startCodeEntry(t, s)
	fb.Reset()

	// Buttons 1 and 2 together: 1 fails, 2 is never evaluated
	events := s.Tick(at.Add(100*time.Millisecond), false, [NumButtons]bool{false, true, true})
	require.Equal(t, []EventType{EventButtonPressed, EventGameOver}, eventTypes(events))
	assert.Equal(t, 1, events[0].Button)
	assert.Equal(t, ReasonWrongButton, events[1].Reason)
	assert.Equal(t, StateGameOver, s.State())
	assert.Equal(t, [NumButtons]int{0, 1, 0}, s.Presses())
	assert.Equal(t, []Color{ColorRed}, fb.Pulses())
	assert.Contains(t, fb.Lines(), "wrong button 1, expected 0")
}

func TestWrongButtonWithinQuota(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	press(s, at.Add(100*time.Millisecond), 0)
	press(s, at.Add(200*time.Millisecond), 0)
	require.Equal(t, 1, s.Step())

	// Button 2 is owed three presses later, but button 1 is expected now
	events := press(s, at.Add(300*time.Millisecond), 2)
	require.Len(t, events, 2)
	assert.Equal(t, ReasonWrongButton, events[1].Reason)
	assert.Equal(t, StateGameOver, s.State())
}

func TestDebounceSuppressesBounce(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	p := at.Add(100 * time.Millisecond)
	s.Tick(p, false, only(0))
	s.Tick(p.Add(10*time.Millisecond), false, released)
	s.Tick(p.Add(30*time.Millisecond), false, only(0))
	s.Tick(p.Add(40*time.Millisecond), false, released)

	assert.Equal(t, [NumButtons]int{1, 0, 0}, s.Presses())
	assert.Equal(t, 0, s.Step())
}

func TestDebounceBoundaryIsExclusive(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	p := at.Add(100 * time.Millisecond)
	s.Tick(p, false, only(0))
	s.Tick(p.Add(10*time.Millisecond), false, released)

	s.Tick(p.Add(DebounceDelay), false, only(0))
	assert.Equal(t, 1, s.Presses()[0], "exactly DebounceDelay must not register")

	s.Tick(p.Add(DebounceDelay+time.Millisecond), false, only(0))
	assert.Equal(t, 2, s.Presses()[0])
}

func TestHeldButtonCountsOnce(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	for i := 1; i <= 20; i++ {
		s.Tick(at.Add(time.Duration(i)*100*time.Millisecond), false, only(0))
	}
	assert.Equal(t, 1, s.Presses()[0])
}

func TestReleaseRearmsWithoutDebounce(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	p := at.Add(100 * time.Millisecond)
	s.Tick(p, false, only(0))
	s.Tick(p.Add(10*time.Millisecond), false, released)
	// Suppressed by the delay, but the latch stays clear
	s.Tick(p.Add(30*time.Millisecond), false, only(0))
	require.Equal(t, 1, s.Presses()[0])
	// Same physical hold is counted once the delay has passed
	s.Tick(p.Add(60*time.Millisecond), false, only(0))
	assert.Equal(t, 2, s.Presses()[0])
	assert.Equal(t, 1, s.Step())
}

func TestScenarioFullCodeSucceeds(t *testing.T) {
	s, fb, aux := newTestSession(t)
	at := startCodeEntry(t, s)
	fb.Reset()

	sequence := []int{0, 0, 1, 2, 2, 2}
	var last []Event
	for i, b := range sequence {
		last = press(s, at.Add(time.Duration(i+1)*100*time.Millisecond), b)
	}

	assert.Equal(t, StateGameSuccess, s.State())
	require.Equal(t, []EventType{EventButtonPressed, EventStepComplete}, eventTypes(last))
	assert.Equal(t, len(Sequence), last[1].Step)
	assert.Equal(t, StateGameSuccess, last[1].State)
	assert.Equal(t, []Color{ColorGreen}, fb.Pulses())
	assert.Equal(t, []int{SuccessToneHz}, fb.Tones())

	events := s.Tick(at.Add(time.Second), false, released)
	require.Equal(t, []EventType{EventGameSuccess, EventReset}, eventTypes(events))
	assert.Equal(t, PulseFromRaw(512), events[0].Pulse)
	assert.Equal(t, "round-1", events[0].Round)
	assert.Equal(t, 1, aux.Reads)
	assert.Contains(t, fb.Lines(), "pulse: 80 bpm")
	assert.Equal(t, StateWaitForStart, s.State())
	assert.Equal(t, 1, s.CountsSnapshot().Successes)
}

func TestSuccessWithAuxError(t *testing.T) {
	s, fb, aux := newTestSession(t)
	aux.ReadError = errors.New("adc gone")
	at := startCodeEntry(t, s)
	for i, b := range []int{0, 0, 1, 2, 2, 2} {
		press(s, at.Add(time.Duration(i+1)*100*time.Millisecond), b)
	}
	require.Equal(t, StateGameSuccess, s.State())

	events := s.Tick(at.Add(time.Second), false, released)
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Pulse)
	assert.Contains(t, fb.Lines(), "pulse: unavailable")
	assert.Equal(t, StateWaitForStart, s.State())
}

func TestCodeTimeoutSkipsButtons(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	events := s.Tick(at.Add(CodeTimeLimit), false, only(0))
	require.Len(t, events, 1)
	assert.Equal(t, EventGameOver, events[0].Type)
	assert.Equal(t, ReasonCodeTimeout, events[0].Reason)
	assert.Equal(t, [NumButtons]int{}, s.Presses())
	assert.Equal(t, 1, s.CountsSnapshot().Timeouts)
}

func TestResetAfterGameOver(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)

	press(s, at.Add(100*time.Millisecond), 0)
	press(s, at.Add(200*time.Millisecond), 0)
	press(s, at.Add(300*time.Millisecond), 1)
	require.Equal(t, 2, s.Step())
	press(s, at.Add(400*time.Millisecond), 0)
	require.Equal(t, StateGameOver, s.State())

	// Touch on the terminal tick does not start a new game
	events := s.Tick(at.Add(500*time.Millisecond), true, released)
	require.Equal(t, []EventType{EventReset}, eventTypes(events))
	assert.Equal(t, "round-1", events[0].Round)
	assert.Equal(t, StateWaitForStart, events[0].State)

	assert.Equal(t, StateWaitForStart, s.State())
	assert.Equal(t, 0, s.Step())
	assert.Equal(t, [NumButtons]int{}, s.Presses())
	assert.Empty(t, s.Round())
	assert.Equal(t, time.Duration(0), s.Remaining(at))
}

func TestSecondRoundStartsClean(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := startCodeEntry(t, s)
	press(s, at.Add(100*time.Millisecond), 1)
	s.Tick(at.Add(200*time.Millisecond), false, released)
	require.Equal(t, StateWaitForStart, s.State())

	s.newRound = func() string { return "round-2" }
	next := at.Add(time.Minute)
	s.Tick(next, true, released)
	s.Tick(next.Add(time.Second), true, released)
	require.Equal(t, StateCodeEntry, s.State())
	assert.Equal(t, "round-2", s.Round())

	press(s, next.Add(1100*time.Millisecond), 0)
	press(s, next.Add(1200*time.Millisecond), 0)
	assert.Equal(t, 1, s.Step())

	c := s.CountsSnapshot()
	assert.Equal(t, 2, c.Started)
	assert.Equal(t, 2, c.Solved)
	assert.Equal(t, 1, c.Failures)
}

func TestRemaining(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.Equal(t, time.Duration(0), s.Remaining(t0))

	s.Tick(t0, true, released)
	assert.Equal(t, PuzzleTimeLimit-time.Minute, s.Remaining(t0.Add(time.Minute)))
	assert.Equal(t, time.Duration(0), s.Remaining(t0.Add(time.Hour)))
}

func TestRoundIdentifierIsUUID(t *testing.T) {
	s := NewSession(NewFakeFeedback(), &FakeAux{}, t0)
	s.Tick(t0, true, released)
	assert.Len(t, s.Round(), 36)
}

// Heartbeat tests

func TestCheckHeartbeatDisabled(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.Nil(t, s.CheckHeartbeat(t0.Add(15*time.Minute), 0))
	assert.Nil(t, s.CheckHeartbeat(t0.Add(15*time.Minute), -time.Minute))
}

func TestCheckHeartbeatInterval(t *testing.T) {
	s, _, _ := newTestSession(t)

	assert.Nil(t, s.CheckHeartbeat(t0.Add(14*time.Minute), 15*time.Minute))

	t1 := t0.Add(15 * time.Minute)
	hb := s.CheckHeartbeat(t1, 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, t1, hb.Timestamp)
	assert.Equal(t, 15*time.Minute, hb.Uptime)

	assert.Nil(t, s.CheckHeartbeat(t1.Add(time.Second), 15*time.Minute))
	assert.NotNil(t, s.CheckHeartbeat(t1.Add(15*time.Minute), 15*time.Minute))
}

func TestHeartbeatContainsCounts(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Tick(t0, true, released)
	s.Tick(t0.Add(PuzzleTimeLimit), false, released)

	hb := s.CheckHeartbeat(t0.Add(15*time.Minute), 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, Counts{Started: 1, Failures: 1, Timeouts: 1}, hb.Counts)
}
