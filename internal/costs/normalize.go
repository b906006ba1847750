package costs

import (
	"strconv"
	"strings"
	"time"

	"github.com/vaniusmax/projeto-finops/internal/ingest"
)

// Accepted layouts for the competência column, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
	"2006-01",
}

// Normalize projects a raw record set onto the canonical billing layout.
// Missing service columns are synthesized as zeros, unparseable numeric cells
// default to zero, and the row total is always recomputed from the service
// columns. The date axis only activates when every populated date cell
// parses; a single bad cell leaves the whole import dateless.
func Normalize(rs *ingest.RecordSet) *Dataset {
	services := ServiceColumns()
	ds := &Dataset{
		ServiceColumns: services,
		Rows:           make([]Row, 0, rs.Len()),
	}
	ds.Warnings.MalformedRows = rs.MalformedRows

	present := make(map[string]bool, len(services))
	for _, column := range services {
		if _, ok := rs.Column(column); ok {
			present[column] = true
		} else {
			ds.Warnings.ColumnsFilled++
		}
	}
	_, hasDateColumn := rs.Column(DateColumn)

	for i := 0; i < rs.Len(); i++ {
		row := Row{
			Index:    i,
			Services: make(map[string]float64, len(services)),
		}
		for _, column := range services {
			if !present[column] {
				row.Services[column] = 0
				continue
			}
			cell, _ := rs.Value(i, column)
			value, defaulted := parseAmount(cell)
			if defaulted {
				ds.Warnings.CellsDefaulted++
			}
			row.Services[column] = value
			row.Total += value
		}
		if hasDateColumn {
			raw, _ := rs.Value(i, DateColumn)
			row.RawDate = strings.TrimSpace(raw)
		}
		ds.Rows = append(ds.Rows, row)
	}

	if hasDateColumn {
		attachDates(ds)
	}
	return ds
}

// attachDates parses every populated date cell and activates the axis only
// when all of them succeed and at least one is present.
func attachDates(ds *Dataset) {
	parsed := make([]*time.Time, len(ds.Rows))
	populated := 0
	for i := range ds.Rows {
		raw := ds.Rows[i].RawDate
		if raw == "" {
			continue
		}
		populated++
		t, ok := parseDate(raw)
		if !ok {
			return
		}
		parsed[i] = &t
	}
	if populated == 0 {
		return
	}
	ds.HasDates = true
	for i := range ds.Rows {
		ds.Rows[i].Date = parsed[i]
	}
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount coerces a billing cell to a float. Blank cells are zero without
// counting as a repair; anything else that fails to parse counts as defaulted.
func parseAmount(cell string) (value float64, defaulted bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, false
	}
	cleaned := strings.ReplaceAll(trimmed, "$", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return v, false
	}
	if strings.Contains(cleaned, ",") {
		// When both separators appear, the rightmost one is the decimal
		// separator: "1,234.56" vs "1.234,56".
		var candidate string
		if strings.LastIndexByte(cleaned, '.') > strings.LastIndexByte(cleaned, ',') {
			candidate = strings.ReplaceAll(cleaned, ",", "")
		} else {
			candidate = strings.ReplaceAll(cleaned, ".", "")
			candidate = strings.Replace(candidate, ",", ".", 1)
		}
		if v, err := strconv.ParseFloat(candidate, 64); err == nil {
			return v, false
		}
	}
	return 0, true
}
