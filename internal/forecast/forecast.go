package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInsufficientHistory indicates the series is too short to fit a trend.
var ErrInsufficientHistory = errors.New("insufficient history")

// Defaults for the linear-trend forecaster.
const (
	DefaultHorizon    = 6
	DefaultMinHistory = 2
)

const monthKeyLayout = "2006-01"

// Point is one observed month of the aggregated cost series.
type Point struct {
	Month string
	Value float64
}

// Projection is one forecast month together with its confidence band.
type Projection struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Options tune the forecaster. Zero values fall back to the defaults.
type Options struct {
	Horizon    int
	MinHistory int
}

// Project fits a least-squares linear trend to the monthly series and extends
// it Horizon months past the last observation. The confidence band starts at
// mean ± 2·stddev and widens with distance from the last observed month.
// Projected values are clamped to stay non-negative and below three times the
// historical maximum.
func Project(series []Point, opts Options) ([]Projection, error) {
	horizon := opts.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	minHistory := opts.MinHistory
	if minHistory < DefaultMinHistory {
		minHistory = DefaultMinHistory
	}
	if len(series) < minHistory {
		return nil, fmt.Errorf("%w: %d points, need %d", ErrInsufficientHistory, len(series), minHistory)
	}

	lastMonth, err := time.Parse(monthKeyLayout, series[len(series)-1].Month)
	if err != nil {
		return nil, fmt.Errorf("parse last month %q: %w", series[len(series)-1].Month, err)
	}

	slope, intercept := fitLine(series)
	mean, std, max := describe(series)

	n := len(series)
	out := make([]Projection, 0, horizon)
	for i := 1; i <= horizon; i++ {
		// The band widens the further the projection sits from history.
		spread := 2 * std * (1 + float64(i)/float64(n))
		lower := math.Max(mean-spread, 0)
		upper := mean + spread

		value := intercept + slope*float64(n-1+i)
		value = math.Min(value, math.Min(3*max, upper))
		value = math.Max(value, 0)
		if mean > 0 && value < lower {
			value = lower
		}

		out = append(out, Projection{
			Month: lastMonth.AddDate(0, i, 0).Format(monthKeyLayout),
			Value: value,
			Lower: lower,
			Upper: upper,
		})
	}
	return out, nil
}

// fitLine computes the least-squares slope and intercept over t = 0..n-1.
func fitLine(series []Point) (slope, intercept float64) {
	n := float64(len(series))
	var sumT, sumV, sumTV, sumTT float64
	for i, p := range series {
		t := float64(i)
		sumT += t
		sumV += p.Value
		sumTV += t * p.Value
		sumTT += t * t
	}
	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		return 0, sumV / n
	}
	slope = (n*sumTV - sumT*sumV) / denom
	intercept = (sumV - slope*sumT) / n
	return slope, intercept
}

// describe returns the mean, sample standard deviation and maximum.
func describe(series []Point) (mean, std, max float64) {
	max = series[0].Value
	for _, p := range series {
		mean += p.Value
		if p.Value > max {
			max = p.Value
		}
	}
	mean /= float64(len(series))

	if len(series) > 1 {
		variance := 0.0
		for _, p := range series {
			d := p.Value - mean
			variance += d * d
		}
		std = math.Sqrt(variance / float64(len(series)-1))
	}
	return mean, std, max
}
