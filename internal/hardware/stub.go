//go:build !linux

package hardware

import (
	"errors"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
)

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(pinTouch int, pinButtons [game.NumButtons]int) (*RealReader, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Sample, error) {
	return Sample{}, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// Buzzer is not available on non-Linux platforms.
type Buzzer struct{}

// NewBuzzer returns an error on non-Linux platforms.
func NewBuzzer(pin int) (*Buzzer, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Play is not implemented on non-Linux platforms.
func (b *Buzzer) Play(frequencyHz int, d time.Duration) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *Buzzer) Close() error {
	return nil
}
