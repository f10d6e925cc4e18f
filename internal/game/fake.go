package game

import (
	"errors"
	"time"
)

// Call is one recorded FeedbackSink invocation.
type Call struct {
	Kind     string // "tone", "pulse" or "report"
	Hz       int
	Duration time.Duration
	Color    Color
	Line     string
}

// FakeFeedback records feedback for test assertions. It never blocks.
type FakeFeedback struct {
	Calls []Call
}

// NewFakeFeedback creates an empty FakeFeedback.
func NewFakeFeedback() *FakeFeedback {
	return &FakeFeedback{}
}

// Tone records a tone.
func (f *FakeFeedback) Tone(frequencyHz int, d time.Duration) {
	f.Calls = append(f.Calls, Call{Kind: "tone", Hz: frequencyHz, Duration: d})
}

// Pulse records an indicator pulse.
func (f *FakeFeedback) Pulse(c Color) {
	f.Calls = append(f.Calls, Call{Kind: "pulse", Color: c})
}

// Report records a diagnostic line.
func (f *FakeFeedback) Report(line string) {
	f.Calls = append(f.Calls, Call{Kind: "report", Line: line})
}

// Pulses returns the colors of all recorded pulses in order.
func (f *FakeFeedback) Pulses() []Color {
	var out []Color
	for _, c := range f.Calls {
		if c.Kind == "pulse" {
			out = append(out, c.Color)
		}
	}
	return out
}

// Tones returns the frequencies of all recorded tones in order.
func (f *FakeFeedback) Tones() []int {
	var out []int
	for _, c := range f.Calls {
		if c.Kind == "tone" {
			out = append(out, c.Hz)
		}
	}
	return out
}

// Lines returns all recorded report lines in order.
func (f *FakeFeedback) Lines() []string {
	var out []string
	for _, c := range f.Calls {
		if c.Kind == "report" {
			out = append(out, c.Line)
		}
	}
	return out
}

// Reset clears recorded calls.
func (f *FakeFeedback) Reset() {
	f.Calls = nil
}

// FakeAux returns a fixed biometric sample.
type FakeAux struct {
	Value int
	// ReadError, if set, will be returned by ReadAux
	ReadError error
	Reads     int
}

// ReadAux returns Value, or ReadError if set.
func (f *FakeAux) ReadAux() (int, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if f.Value < AuxMin || f.Value > AuxMax {
		return 0, errors.New("fake aux value out of range")
	}
	return f.Value, nil
}
