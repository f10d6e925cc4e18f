package hardware

import (
	"log"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
)

// ToneGenerator plays a tone and blocks until it has finished.
type ToneGenerator interface {
	Play(frequencyHz int, d time.Duration) error
}

// Indicator sets the color of the tri-color LED.
type Indicator interface {
	Set(c game.Color) error
}

// Reporter forwards diagnostic lines off the device.
type Reporter interface {
	Report(line string) error
}

// Panel is the player-facing output panel. It implements game.FeedbackSink.
// Output errors are logged and never reach the game.
type Panel struct {
	tone      ToneGenerator
	indicator Indicator
	reporters []Reporter
	sleep     func(time.Duration)
}

// NewPanel creates a Panel. Reporters may be empty.
func NewPanel(tone ToneGenerator, indicator Indicator, reporters ...Reporter) *Panel {
	return &Panel{
		tone:      tone,
		indicator: indicator,
		reporters: reporters,
		sleep:     time.Sleep,
	}
}

// Tone plays the tone, then waits game.ToneTail.
func (p *Panel) Tone(frequencyHz int, d time.Duration) {
	if err := p.tone.Play(frequencyHz, d); err != nil {
		log.Printf("buzzer error: %v", err)
	}
	p.sleep(game.ToneTail)
}

// Pulse shows c for game.PulseHold, then turns the indicator off.
func (p *Panel) Pulse(c game.Color) {
	if err := p.indicator.Set(c); err != nil {
		log.Printf("indicator error: %v", err)
	}
	p.sleep(game.PulseHold)
	if err := p.indicator.Set(game.ColorOff); err != nil {
		log.Printf("indicator error: %v", err)
	}
}

// Report logs the line and forwards it to every reporter.
func (p *Panel) Report(line string) {
	log.Printf("report: %s", line)
	for _, r := range p.reporters {
		if err := r.Report(line); err != nil {
			log.Printf("report forward error: %v", err)
		}
	}
}

var _ game.FeedbackSink = (*Panel)(nil)
