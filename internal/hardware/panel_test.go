package hardware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/puzzle-box/internal/game"
)

type recordingReporter struct {
	lines []string
	err   error
}

func (r *recordingReporter) Report(line string) error {
	r.lines = append(r.lines, line)
	return r.err
}

func newTestPanel(reporters ...Reporter) (*Panel, *FakeTone, *FakeIndicator, *[]time.Duration) {
	tone := &FakeTone{}
	ind := &FakeIndicator{}
	p := NewPanel(tone, ind, reporters...)
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, tone, ind, &slept
}

func TestPanelToneAddsTail(t *testing.T) {
	p, tone, _, slept := newTestPanel()

	p.Tone(game.StartToneHz, game.StartTone)

	assert.Equal(t, []int{game.StartToneHz}, tone.Played)
	assert.Equal(t, []time.Duration{game.ToneTail}, *slept)
}

func TestPanelToneErrorStillWaits(t *testing.T) {
	p, tone, _, slept := newTestPanel()
	tone.Err = errors.New("line busy")

	p.Tone(game.FailureToneHz, game.FailureTone)

	assert.Empty(t, tone.Played)
	assert.Equal(t, []time.Duration{game.ToneTail}, *slept)
}

func TestPanelPulseHoldsThenClears(t *testing.T) {
	p, _, ind, slept := newTestPanel()

	p.Pulse(game.ColorRed)

	assert.Equal(t, []game.Color{game.ColorRed, game.ColorOff}, ind.Colors)
	assert.Equal(t, []time.Duration{game.PulseHold}, *slept)
}

func TestPanelReportForwards(t *testing.T) {
	a := &recordingReporter{}
	b := &recordingReporter{err: errors.New("offline")}
	p, _, _, _ := newTestPanel(a, b)

	p.Report("game started")
	p.Report("game over")

	assert.Equal(t, []string{"game started", "game over"}, a.lines)
	assert.Equal(t, []string{"game started", "game over"}, b.lines)
}

func TestPanelDrivesGame(t *testing.T) {
	p, tone, ind, _ := newTestPanel()
	s := game.NewSession(p, &game.FakeAux{Value: 0}, time.Now())

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var none [game.NumButtons]bool
	s.Tick(now, true, none)
	s.Tick(now.Add(time.Second), true, none)

	assert.Equal(t, []int{game.StartToneHz, game.SuccessToneHz}, tone.Played)
	assert.Equal(t, []game.Color{game.ColorBlue, game.ColorOff}, ind.Colors)
}
