// Package hardware provides the puzzle-box inputs and outputs with hardware
// abstraction. The real implementation uses the Linux GPIO character device
// for the touch sensor, buttons and buzzer, and sysfs for the PWM indicator
// and the biometric ADC. The fake implementation allows testing without
// hardware.
package hardware

import "github.com/sweeney/puzzle-box/internal/game"

// Sample is a single reading of all game inputs (already in logical form).
type Sample struct {
	Touch   bool                  // true = touched
	Buttons [game.NumButtons]bool // true = pressed
}

// Reader reads the game inputs.
type Reader interface {
	// Read returns the logical input levels.
	// Buttons are wired active-low: raw 0 = pressed.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinTouch   = 17
	DefaultPinButton0 = 5
	DefaultPinButton1 = 6
	DefaultPinButton2 = 13
	DefaultPinBuzzer  = 18
)

// DefaultButtonPins lists the button pins in scan order.
var DefaultButtonPins = [game.NumButtons]int{DefaultPinButton0, DefaultPinButton1, DefaultPinButton2}
