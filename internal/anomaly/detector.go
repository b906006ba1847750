package anomaly

import "math"

// Defaults for the z-score detector. Below MinPoints the range estimate is
// meaningless, so short series are reported as not evaluated.
const (
	DefaultSigma     = 3.0
	DefaultMinPoints = 3
)

// Point is one bucket of an already aggregated time series.
type Point struct {
	Bucket string
	Value  float64
}

// Detection is the verdict for one bucket.
type Detection struct {
	Bucket       string  `json:"bucket"`
	Value        float64 `json:"value"`
	ExpectedLow  float64 `json:"expectedLow"`
	ExpectedHigh float64 `json:"expectedHigh"`
	Anomalous    bool    `json:"anomalous"`
	Score        float64 `json:"score"`
}

// Report covers the whole series. Evaluated is false when the series was too
// short or flat to score; Points is empty in that case.
type Report struct {
	Evaluated bool        `json:"evaluated"`
	Reason    string      `json:"reason,omitempty"`
	Points    []Detection `json:"points"`
}

// Options tune the detector. Zero values fall back to the defaults.
type Options struct {
	Sigma     float64
	MinPoints int
}

// Detect flags buckets whose value falls outside mean ± sigma·stddev of the
// series. The score normalizes the z-score into [0, 1].
func Detect(series []Point, opts Options) Report {
	sigma := opts.Sigma
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	minPoints := opts.MinPoints
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}

	if len(series) < minPoints {
		return Report{Reason: "series_too_short", Points: []Detection{}}
	}

	mean, std := meanStd(series)
	if std == 0 {
		report := Report{Evaluated: true, Points: make([]Detection, 0, len(series))}
		for _, p := range series {
			report.Points = append(report.Points, Detection{
				Bucket:       p.Bucket,
				Value:        p.Value,
				ExpectedLow:  mean,
				ExpectedHigh: mean,
			})
		}
		return report
	}

	low := mean - sigma*std
	high := mean + sigma*std
	report := Report{Evaluated: true, Points: make([]Detection, 0, len(series))}
	for _, p := range series {
		z := math.Abs(p.Value-mean) / std
		report.Points = append(report.Points, Detection{
			Bucket:       p.Bucket,
			Value:        p.Value,
			ExpectedLow:  low,
			ExpectedHigh: high,
			Anomalous:    z > sigma,
			Score:        math.Min(1, z/5),
		})
	}
	return report
}

// meanStd returns the mean and population standard deviation.
func meanStd(series []Point) (mean, std float64) {
	for _, p := range series {
		mean += p.Value
	}
	mean /= float64(len(series))

	variance := 0.0
	for _, p := range series {
		d := p.Value - mean
		variance += d * d
	}
	variance /= float64(len(series))
	return mean, math.Sqrt(variance)
}
