package control

import "fmt"

// Gains is a proportional, integral, derivative tuning triple.
type Gains struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
}

// Scaled returns the gains divided by divisor. A zero divisor returns the gains unchanged.
func (g Gains) Scaled(divisor float64) Gains {
	if divisor == 0 {
		return g
	}
	return Gains{P: g.P / divisor, I: g.I / divisor, D: g.D / divisor}
}

func (g Gains) valid() bool {
	return g.P >= 0 && g.I >= 0 && g.D >= 0
}

func (g Gains) String() string {
	return fmt.Sprintf("{p: %v, i: %v, d: %v}", g.P, g.I, g.D)
}

// GainSchedule chooses between full and conservative gains based on how far the input is from
// the setpoint.
type GainSchedule struct {
	// Threshold is the error magnitude below which the conservative gains apply.
	Threshold float64
	// Divisor scales the base gains down when inside the threshold.
	Divisor float64
}

// For returns the gains to apply for the given error magnitude.
func (s GainSchedule) For(base Gains, errMagnitude float64) Gains {
	if errMagnitude < s.Threshold {
		return base.Scaled(s.Divisor)
	}
	return base
}
