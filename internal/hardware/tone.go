package hardware

import (
	"errors"
	"fmt"
	"time"
)

// outputLine is the part of a GPIO output line the buzzer drives.
type outputLine interface {
	SetValue(value int) error
}

// squareWave toggles line at frequencyHz until d has passed, then leaves it
// low. A failed write still attempts to drive the line low.
func squareWave(line outputLine, frequencyHz int, d time.Duration, now func() time.Time, sleep func(time.Duration)) error {
	if frequencyHz <= 0 {
		return fmt.Errorf("invalid frequency %d", frequencyHz)
	}

	half := time.Second / time.Duration(2*frequencyHz)
	deadline := now().Add(d)
	level := 1
	for now().Before(deadline) {
		if err := line.SetValue(level); err != nil {
			return errors.Join(fmt.Errorf("set buzzer pin: %w", err), silence(line))
		}
		level ^= 1
		sleep(half)
	}
	return silence(line)
}

func silence(line outputLine) error {
	if err := line.SetValue(0); err != nil {
		return fmt.Errorf("silence buzzer pin: %w", err)
	}
	return nil
}
