package analytics

import (
	"sort"
	"time"

	"github.com/vaniusmax/projeto-finops/internal/costs"
)

const monthKeyLayout = "2006-01"

// Aggregate computes the full metrics bundle for a dataset under a filter.
// Every figure derives from the same filtered view, so per-service totals,
// monthly buckets and the grand total stay mutually consistent.
func Aggregate(ds *costs.Dataset, f Filter, topN int) *Bundle {
	services := selectServices(ds.ServiceColumns, f.Services)
	rows := selectRows(ds, f)

	bundle := &Bundle{
		RowCount: len(rows),
		HasDates: ds.HasDates,
	}
	if len(rows) == 0 || len(services) == 0 {
		bundle.NoData = true
		bundle.Services = []ServiceTotal{}
		bundle.TopN = []ServiceTotal{}
		bundle.BottomN = []ServiceTotal{}
		bundle.Monthly = []MonthTotal{}
		return bundle
	}

	totals := make(map[string]float64, len(services))
	rowTotals := make([]float64, 0, len(rows))
	for _, row := range rows {
		rowTotal := 0.0
		for _, service := range services {
			v := row.Services[service]
			totals[service] += v
			rowTotal += v
		}
		rowTotals = append(rowTotals, rowTotal)
		bundle.Total += rowTotal
	}

	bundle.Stats = describe(rowTotals)
	bundle.Services = sortTotals(totals, services, bundle.Total)
	bundle.TopN, bundle.BottomN = rank(bundle.Services, topN)
	if ds.HasDates {
		bundle.Monthly = monthlyTotals(rows, services, f)
	} else {
		bundle.Monthly = []MonthTotal{}
	}
	bundle.Highlights = highlights(bundle.Services, bundle.Monthly)
	return bundle
}

// selectServices keeps the requested services in canonical order; an empty
// request means all of them.
func selectServices(canonical, requested []string) []string {
	if len(requested) == 0 {
		out := make([]string, len(canonical))
		copy(out, canonical)
		return out
	}
	wanted := make(map[string]bool, len(requested))
	for _, s := range requested {
		wanted[s] = true
	}
	var out []string
	for _, s := range canonical {
		if wanted[s] {
			out = append(out, s)
		}
	}
	return out
}

// selectRows applies the date-range filter. Rows without a date drop out as
// soon as a range bound is set, so ranged figures always add up.
func selectRows(ds *costs.Dataset, f Filter) []costs.Row {
	ranged := ds.HasDates && (f.From != nil || f.To != nil)
	if !ranged {
		return ds.Rows
	}
	var out []costs.Row
	for _, row := range ds.Rows {
		if row.Date == nil {
			continue
		}
		if f.From != nil && row.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && row.Date.After(*f.To) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func describe(rowTotals []float64) Stats {
	if len(rowTotals) == 0 {
		return Stats{}
	}
	sum := 0.0
	min := rowTotals[0]
	max := rowTotals[0]
	for _, v := range rowTotals {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(rowTotals))
	return Stats{Mean: &mean, Min: &min, Max: &max}
}

// sortTotals orders per-service totals descending, ties broken by label
// ascending. A zero grand total yields 0% everywhere.
func sortTotals(totals map[string]float64, services []string, grandTotal float64) []ServiceTotal {
	out := make([]ServiceTotal, 0, len(services))
	for _, service := range services {
		st := ServiceTotal{Service: service, Total: totals[service]}
		if grandTotal > 0 {
			st.Percentage = st.Total / grandTotal * 100
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Service < out[j].Service
		}
		return out[i].Total > out[j].Total
	})
	return out
}

// rank slices the sorted totals into top-N and bottom-N. The two never share
// an entry unless fewer than N services exist.
func rank(sorted []ServiceTotal, n int) (top, bottom []ServiceTotal) {
	if n <= 0 || len(sorted) == 0 {
		return []ServiceTotal{}, []ServiceTotal{}
	}
	topCount := n
	if topCount > len(sorted) {
		topCount = len(sorted)
	}
	top = append([]ServiceTotal{}, sorted[:topCount]...)

	bottomCount := n
	if len(sorted) <= n {
		bottomCount = len(sorted)
	} else if remaining := len(sorted) - n; remaining < n {
		bottomCount = remaining
	}
	bottom = make([]ServiceTotal, 0, bottomCount)
	for i := len(sorted) - 1; i >= len(sorted)-bottomCount; i-- {
		bottom = append(bottom, sorted[i])
	}
	return top, bottom
}

// monthlyTotals buckets the filtered rows by month and zero-fills every month
// of the covered range.
func monthlyTotals(rows []costs.Row, services []string, f Filter) []MonthTotal {
	byMonth := make(map[string]float64)
	var first, last time.Time
	seen := false
	for _, row := range rows {
		if row.Date == nil {
			continue
		}
		month := time.Date(row.Date.Year(), row.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		total := 0.0
		for _, service := range services {
			total += row.Services[service]
		}
		byMonth[month.Format(monthKeyLayout)] += total
		if !seen || month.Before(first) {
			first = month
		}
		if !seen || month.After(last) {
			last = month
		}
		seen = true
	}
	if !seen {
		return []MonthTotal{}
	}
	if f.From != nil {
		if m := time.Date(f.From.Year(), f.From.Month(), 1, 0, 0, 0, 0, time.UTC); m.Before(first) {
			first = m
		}
	}
	if f.To != nil {
		if m := time.Date(f.To.Year(), f.To.Month(), 1, 0, 0, 0, 0, time.UTC); m.After(last) {
			last = m
		}
	}

	var out []MonthTotal
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		key := month.Format(monthKeyLayout)
		out = append(out, MonthTotal{Month: key, Total: byMonth[key]})
	}
	return out
}

func highlights(sorted []ServiceTotal, monthly []MonthTotal) Highlights {
	var h Highlights
	if len(sorted) > 0 {
		h.PeakService = sorted[0].Service
		h.LowestService = sorted[len(sorted)-1].Service
	}
	if len(monthly) > 0 {
		peak, lowest := monthly[0], monthly[0]
		for _, m := range monthly[1:] {
			if m.Total > peak.Total {
				peak = m
			}
			if m.Total < lowest.Total {
				lowest = m
			}
		}
		h.PeakMonth = peak.Month
		h.LowestMonth = lowest.Month
	}
	return h
}
