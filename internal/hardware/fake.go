package hardware

import (
	"errors"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
)

// FakeReader is a test double that returns scripted input samples.
type FakeReader struct {
	// Samples contains scripted readings to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// Touched is a sample with only the touch sensor active.
func Touched() Sample {
	return Sample{Touch: true}
}

// Pressed is a sample with only the given button held.
func Pressed(button int) Sample {
	var s Sample
	s.Buttons[button] = true
	return s
}

// FakeTone records tones instead of driving a buzzer.
type FakeTone struct {
	Played []int
	Err    error
}

// Play records the frequency.
func (f *FakeTone) Play(frequencyHz int, d time.Duration) error {
	if f.Err != nil {
		return f.Err
	}
	f.Played = append(f.Played, frequencyHz)
	return nil
}

// FakeIndicator records every color written.
type FakeIndicator struct {
	Colors []game.Color
	Err    error
}

// Set records c.
func (f *FakeIndicator) Set(c game.Color) error {
	if f.Err != nil {
		return f.Err
	}
	f.Colors = append(f.Colors, c)
	return nil
}
