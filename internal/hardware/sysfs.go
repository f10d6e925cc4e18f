package hardware

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/sweeney/puzzle-box/internal/game"
)

// Sysfs locations.
const (
	PWMRoot        = "/sys/class/pwm"
	DefaultPWMChip = "pwmchip0"
	DefaultADCPath = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"

	// DefaultPWMPeriodNs is 1 kHz, well above visible flicker.
	DefaultPWMPeriodNs = 1000000
)

// DefaultPWMChannels are the red, green and blue channels on DefaultPWMChip.
var DefaultPWMChannels = [3]int{0, 1, 2}

// PWMLED is a common-cathode RGB LED driven by three sysfs PWM channels.
type PWMLED struct {
	fs       afero.Fs
	chipDir  string
	channels [3]int
	periodNs int
}

// NewPWMLED exports and enables the three channels with zero duty cycle.
func NewPWMLED(fs afero.Fs, chip string, channels [3]int, periodNs int) (*PWMLED, error) {
	if periodNs <= 0 {
		return nil, fmt.Errorf("invalid pwm period %d", periodNs)
	}

	l := &PWMLED{
		fs:       fs,
		chipDir:  path.Join(PWMRoot, chip),
		channels: channels,
		periodNs: periodNs,
	}

	for _, ch := range channels {
		if err := l.setup(ch); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *PWMLED) channelDir(ch int) string {
	return path.Join(l.chipDir, "pwm"+strconv.Itoa(ch))
}

func (l *PWMLED) setup(ch int) error {
	exists, err := afero.DirExists(l.fs, l.channelDir(ch))
	if err != nil {
		return fmt.Errorf("stat pwm channel %d: %w", ch, err)
	}
	if !exists {
		if err := l.write(path.Join(l.chipDir, "export"), ch); err != nil {
			return fmt.Errorf("export pwm channel %d: %w", ch, err)
		}
	}

	// duty_cycle must never exceed period, so zero it first.
	if err := l.write(path.Join(l.channelDir(ch), "duty_cycle"), 0); err != nil {
		return fmt.Errorf("reset pwm channel %d: %w", ch, err)
	}
	if err := l.write(path.Join(l.channelDir(ch), "period"), l.periodNs); err != nil {
		return fmt.Errorf("set pwm period on channel %d: %w", ch, err)
	}
	if err := l.write(path.Join(l.channelDir(ch), "enable"), 1); err != nil {
		return fmt.Errorf("enable pwm channel %d: %w", ch, err)
	}
	return nil
}

// Set writes the duty cycle of each channel proportionally to c.
func (l *PWMLED) Set(c game.Color) error {
	levels := [3]uint8{c.R, c.G, c.B}
	for i, ch := range l.channels {
		if err := l.write(path.Join(l.channelDir(ch), "duty_cycle"), DutyCycle(levels[i], l.periodNs)); err != nil {
			return fmt.Errorf("set pwm channel %d: %w", ch, err)
		}
	}
	return nil
}

// Close turns the LED off and disables the channels.
func (l *PWMLED) Close() error {
	var errs []error
	for _, ch := range l.channels {
		if err := l.write(path.Join(l.channelDir(ch), "duty_cycle"), 0); err != nil {
			errs = append(errs, fmt.Errorf("clear pwm channel %d: %w", ch, err))
		}
		if err := l.write(path.Join(l.channelDir(ch), "enable"), 0); err != nil {
			errs = append(errs, fmt.Errorf("disable pwm channel %d: %w", ch, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (l *PWMLED) write(name string, v int) error {
	return afero.WriteFile(l.fs, name, []byte(strconv.Itoa(v)), 0o644)
}

// DutyCycle converts an 8-bit level to nanoseconds of on-time for periodNs.
func DutyCycle(level uint8, periodNs int) int {
	return int(level) * periodNs / 255
}

// ADC reads a 10-bit sample from a Linux IIO voltage channel.
type ADC struct {
	fs   afero.Fs
	path string
}

// NewADC creates an ADC reading from the given sysfs file.
func NewADC(fs afero.Fs, path string) *ADC {
	return &ADC{fs: fs, path: path}
}

// ReadAux returns the current raw sample in [game.AuxMin, game.AuxMax].
func (a *ADC) ReadAux() (int, error) {
	data, err := afero.ReadFile(a.fs, a.path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse adc sample %q: %w", data, err)
	}
	if v < game.AuxMin || v > game.AuxMax {
		return 0, fmt.Errorf("adc sample %d out of range", v)
	}
	return v, nil
}
