// Package score derives the composite stock score from a daily series.
//
// The score sums three independently thresholded sub-scores (volatility,
// short-term growth, average volume), each worth 1, 3 or 5 points, so the
// total is always between 3 and 15. Everything here is pure: no I/O, no
// shared state, safe to call from any number of goroutines.
package score

import (
	"errors"
	"math"
	"strconv"

	"github.com/wonny/findash/backend/internal/contracts"
)

const (
	// MinBars is the shortest series the calculator accepts
	MinBars = 20
	// VolatilityWindow is the number of trailing bars used for volatility and volume
	VolatilityWindow = 20
	// GrowthWindow is the number of trailing bars used for growth
	GrowthWindow = 5
	// TradingDaysPerYear annualizes daily volatility
	TradingDaysPerYear = 252
)

// ErrInsufficientData is returned when the series is too short or no
// usable daily return survives the zero-close filter.
var ErrInsufficientData = errors.New("insufficient data to calculate stock score")

// Measurements holds the unformatted metrics behind a Result
type Measurements struct {
	Volatility    float64 // annualized standard deviation of daily returns
	GrowthRate    float64 // fractional change over the growth window
	AverageVolume float64 // mean daily volume over the volatility window
	Returns       int     // daily returns that survived the zero-close filter
}

// Metrics are the formatted metric values shown on the dashboard
type Metrics struct {
	Volatility    string `json:"volatility"`
	GrowthRate    string `json:"growthRate"`
	AverageVolume string `json:"averageVolume"`
}

// Factor pairs a formatted metric with the points it earned
type Factor struct {
	Value  string `json:"value"`
	Points int    `json:"points"`
}

// Factors is the per-metric breakdown of a score
type Factors struct {
	Volatility    Factor `json:"volatility"`
	GrowthRate    Factor `json:"growthRate"`
	AverageVolume Factor `json:"averageVolume"`
}

// Result is the composite score with its breakdown
type Result struct {
	Score   int     `json:"score"`
	Metrics Metrics `json:"metrics"`
	Factors Factors `json:"factors"`
}

// Compute scores an ascending-by-date series. The series is trusted to be
// sorted; it is never reordered or validated here.
func Compute(series []contracts.DailyBar) (*Result, error) {
	m, err := Measure(series)
	if err != nil {
		return nil, err
	}
	return m.Score(), nil
}

// Measure computes the raw metrics for an ascending-by-date series
func Measure(series []contracts.DailyBar) (Measurements, error) {
	if len(series) < MinBars {
		return Measurements{}, ErrInsufficientData
	}

	recent := tail(series, VolatilityWindow)
	growth := tail(series, GrowthWindow)

	returns := dailyReturns(recent)
	if len(returns) == 0 {
		return Measurements{}, ErrInsufficientData
	}

	return Measurements{
		Volatility:    annualizedVolatility(returns),
		GrowthRate:    growthRate(growth),
		AverageVolume: averageVolume(recent),
		Returns:       len(returns),
	}, nil
}

// Score applies the breakpoint table and formats the metrics
func (m Measurements) Score() *Result {
	volatility := formatFixed(m.Volatility, 4)
	growth := formatFixed(m.GrowthRate, 4)
	volume := formatFixed(math.Round(m.AverageVolume), 0)

	volatilityPoints := VolatilityRule.Points(m.Volatility)
	growthPoints := GrowthRule.Points(m.GrowthRate)
	volumePoints := VolumeRule.Points(m.AverageVolume)

	return &Result{
		Score: volatilityPoints + growthPoints + volumePoints,
		Metrics: Metrics{
			Volatility:    volatility,
			GrowthRate:    growth,
			AverageVolume: volume,
		},
		Factors: Factors{
			Volatility:    Factor{Value: volatility, Points: volatilityPoints},
			GrowthRate:    Factor{Value: growth, Points: growthPoints},
			AverageVolume: Factor{Value: volume, Points: volumePoints},
		},
	}
}

func tail(series []contracts.DailyBar, n int) []contracts.DailyBar {
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// dailyReturns skips any pair whose previous close is exactly zero
func dailyReturns(bars []contracts.DailyBar) []float64 {
	returns := make([]float64, 0, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (bars[i].Close-prev)/prev)
	}
	return returns
}

// annualizedVolatility is the population standard deviation scaled by sqrt(252)
func annualizedVolatility(returns []float64) float64 {
	n := float64(len(returns))

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / n

	var sq float64
	for _, r := range returns {
		sq += math.Pow(r-mean, 2)
	}
	variance := sq / n

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
}

func growthRate(bars []contracts.DailyBar) float64 {
	if len(bars) < 2 {
		return 0
	}

	first := bars[0].Close
	if first == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - first) / first
}

func averageVolume(bars []contracts.DailyBar) float64 {
	var total int64
	for _, b := range bars {
		total += b.Volume
	}
	return float64(total) / float64(len(bars))
}

func formatFixed(v float64, digits int) string {
	return strconv.FormatFloat(v, 'f', digits, 64)
}
