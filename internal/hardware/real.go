//go:build linux

package hardware

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/puzzle-box/internal/game"
)

const chipName = "gpiochip0"

// RealReader reads inputs from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip    *gpiocdev.Chip
	touch   *gpiocdev.Line
	buttons *gpiocdev.Lines
	values  []int
}

// NewRealReader creates an input reader for actual Raspberry Pi hardware.
func NewRealReader(pinTouch int, pinButtons [game.NumButtons]int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The touch module drives its output high while touched.
	touch, err := chip.RequestLine(pinTouch, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request touch pin %d: %w", pinTouch, err)
	}

	// Buttons short to ground when pressed.
	buttons, err := chip.RequestLines(pinButtons[:], gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		touch.Close()
		chip.Close()
		return nil, fmt.Errorf("request button pins %v: %w", pinButtons, err)
	}

	return &RealReader{
		chip:    chip,
		touch:   touch,
		buttons: buttons,
		values:  make([]int, game.NumButtons),
	}, nil
}

// Read returns the logical input levels.
// Inverts raw button GPIO: raw inactive (0) = pressed.
func (r *RealReader) Read() (Sample, error) {
	var s Sample

	touchRaw, err := r.touch.Value()
	if err != nil {
		return s, fmt.Errorf("read touch pin: %w", err)
	}
	s.Touch = touchRaw == 1

	if err := r.buttons.Values(r.values); err != nil {
		return s, fmt.Errorf("read button pins: %w", err)
	}
	for i, v := range r.values {
		s.Buttons[i] = v == 0
	}

	return s, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	if r.touch != nil {
		if err := r.touch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close touch pin: %w", err))
		}
	}
	if r.buttons != nil {
		if err := r.buttons.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pins: %w", err))
		}
		if err := r.buttons.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Buzzer drives a passive piezo buzzer by toggling a GPIO output line.
type Buzzer struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewBuzzer requests pin as an output, initially low.
func NewBuzzer(pin int) (*Buzzer, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}

	return &Buzzer{chip: chip, line: line}, nil
}

// Play generates a square wave at frequencyHz for d. It blocks for d.
func (b *Buzzer) Play(frequencyHz int, d time.Duration) error {
	return squareWave(b.line, frequencyHz, d, time.Now, time.Sleep)
}

// Close drives the buzzer low and releases the line.
func (b *Buzzer) Close() error {
	var errs []error
	if err := b.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
	}
	if err := b.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
	}
	if err := b.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
