package game

import "github.com/samber/lo"

// Biometric sensor ranges.
const (
	AuxMin   = 0
	AuxMax   = 1023
	PulseMin = 60
	PulseMax = 100
)

// PulseFromRaw maps a raw sensor sample linearly onto [PulseMin, PulseMax]
// using integer arithmetic. Out-of-range samples are clamped first.
func PulseFromRaw(raw int) int {
	raw = lo.Clamp(raw, AuxMin, AuxMax)
	return (raw-AuxMin)*(PulseMax-PulseMin)/(AuxMax-AuxMin) + PulseMin
}
