package score

// Direction says which side of a band bound earns the band's points.
type Direction int

const (
	// Below awards a band when value < bound
	Below Direction = iota
	// Above awards a band when value > bound
	Above
)

// Band is one breakpoint of a Rule. Bounds are exclusive.
type Band struct {
	Bound  float64
	Points int
}

// Rule maps a metric onto points. Bands are tried in order; Floor applies
// when none matches (including NaN).
type Rule struct {
	Direction Direction
	Bands     []Band
	Floor     int
}

// Points returns the points awarded to value
func (r Rule) Points(value float64) int {
	for _, b := range r.Bands {
		switch r.Direction {
		case Below:
			if value < b.Bound {
				return b.Points
			}
		case Above:
			if value > b.Bound {
				return b.Points
			}
		}
	}
	return r.Floor
}

// Breakpoint table. Changing any bound or point value changes every
// published score and needs product sign-off.
var (
	VolatilityRule = Rule{
		Direction: Below,
		Bands:     []Band{{Bound: 0.20, Points: 5}, {Bound: 0.35, Points: 3}},
		Floor:     1,
	}

	GrowthRule = Rule{
		Direction: Above,
		Bands:     []Band{{Bound: 0.02, Points: 5}, {Bound: 0, Points: 3}},
		Floor:     1,
	}

	VolumeRule = Rule{
		Direction: Above,
		Bands:     []Band{{Bound: 5_000_000, Points: 5}, {Bound: 1_000_000, Points: 3}},
		Floor:     1,
	}
)
