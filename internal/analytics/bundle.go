package analytics

import "time"

// Filter narrows the dataset before aggregation. From and To bound the time
// axis inclusively and only apply when the axis is active; Services restricts
// the cost columns taken into account.
type Filter struct {
	From     *time.Time
	To       *time.Time
	Services []string
}

// ServiceTotal is one per-service aggregate over the filtered view.
type ServiceTotal struct {
	Service    string  `json:"service"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

// MonthTotal is one month bucket. Months with no activity inside the
// filtered range appear with a zero total so gaps are distinguishable from
// missing data.
type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// Stats holds descriptive statistics over per-row totals. All fields are nil
// when the filtered view is empty; zero and "no data" are different answers.
type Stats struct {
	Mean *float64 `json:"mean"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
}

// Highlights names the extremes of the filtered view. Empty strings mean the
// corresponding figure is unavailable.
type Highlights struct {
	PeakService   string `json:"peakService"`
	LowestService string `json:"lowestService"`
	PeakMonth     string `json:"peakMonth"`
	LowestMonth   string `json:"lowestMonth"`
}

// Bundle is the full set of derived metrics for one dataset and filter. It is
// recomputed from scratch whenever either changes.
type Bundle struct {
	NoData     bool           `json:"noData"`
	RowCount   int            `json:"rowCount"`
	Total      float64        `json:"total"`
	Stats      Stats          `json:"stats"`
	Services   []ServiceTotal `json:"services"`
	TopN       []ServiceTotal `json:"topN"`
	BottomN    []ServiceTotal `json:"bottomN"`
	Monthly    []MonthTotal   `json:"monthly"`
	Highlights Highlights     `json:"highlights"`
	HasDates   bool           `json:"hasDates"`
}
