package costs

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/vaniusmax/projeto-finops/internal/ingest"
)

func loadFixture(t *testing.T, csv string) *ingest.RecordSet {
	t.Helper()
	rs, err := ingest.Load([]byte(csv))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return rs
}

func TestNormalizeFillsMissingColumns(t *testing.T) {
	rs := loadFixture(t, "Serviço,EC2-Instâncias($),S3($)\n2024-01-01,10.0,5.0\n")

	ds := Normalize(rs)

	wantFilled := len(ServiceColumns()) - 2
	if ds.Warnings.ColumnsFilled != wantFilled {
		t.Fatalf("columns filled = %d, want %d", ds.Warnings.ColumnsFilled, wantFilled)
	}
	if got := ds.Rows[0].Services["Lambda($)"]; got != 0 {
		t.Fatalf("synthesized column value = %v, want 0", got)
	}
	if got := ds.Rows[0].Services["EC2-Instâncias($)"]; got != 10.0 {
		t.Fatalf("EC2 value = %v, want 10.0", got)
	}
}

func TestNormalizeDefaultsBadCells(t *testing.T) {
	rs := loadFixture(t, "Serviço,EC2-Instâncias($),S3($)\n2024-01-01,abc,5.0\n2024-01-02,,3.0\n")

	ds := Normalize(rs)

	if ds.Warnings.CellsDefaulted != 1 {
		t.Fatalf("cells defaulted = %d, want 1 (blank cells are not repairs)", ds.Warnings.CellsDefaulted)
	}
	if got := ds.Rows[0].Services["EC2-Instâncias($)"]; got != 0 {
		t.Fatalf("bad cell value = %v, want 0", got)
	}
	if got := ds.Rows[0].Total; got != 5.0 {
		t.Fatalf("row total = %v, want 5.0", got)
	}
}

func TestNormalizeParsesAmountFormats(t *testing.T) {
	cases := []struct {
		cell string
		want float64
	}{
		{"10.5", 10.5},
		{"$1,234.56", 1234.56},
		{"1234,56", 1234.56},
		{"1.234,56", 1234.56},
		{"1.234.567,89", 1234567.89},
		{" 7 ", 7},
	}
	for _, tc := range cases {
		t.Run(tc.cell, func(t *testing.T) {
			csv := fmt.Sprintf("Serviço,EC2-Instâncias($)\n2024-01-01,%q\n", tc.cell)
			ds := Normalize(loadFixture(t, csv))
			if got := ds.Rows[0].Services["EC2-Instâncias($)"]; got != tc.want {
				t.Fatalf("parse %q = %v, want %v", tc.cell, got, tc.want)
			}
			if ds.Warnings.CellsDefaulted != 0 {
				t.Fatalf("parse %q counted as defaulted", tc.cell)
			}
		})
	}
}

func TestNormalizeDateAxisRequiresFullParse(t *testing.T) {
	good := Normalize(loadFixture(t, "Serviço,S3($)\n2024-01-01,1\n2024-02-01,2\n"))
	if !good.HasDates {
		t.Fatal("expected active date axis when all dates parse")
	}
	if good.Rows[1].Date == nil || good.Rows[1].Date.Month() != 2 {
		t.Fatalf("row date = %v, want february", good.Rows[1].Date)
	}

	bad := Normalize(loadFixture(t, "Serviço,S3($)\n2024-01-01,1\nnot-a-date,2\n"))
	if bad.HasDates {
		t.Fatal("one bad date cell must deactivate the axis")
	}
	for _, row := range bad.Rows {
		if row.Date != nil {
			t.Fatal("dates must stay nil when the axis is inactive")
		}
	}
	if bad.Rows[1].RawDate != "not-a-date" {
		t.Fatalf("raw date = %q, want original text", bad.Rows[1].RawDate)
	}
}

func TestNormalizeWithoutDateColumn(t *testing.T) {
	ds := Normalize(loadFixture(t, "S3($),Lambda($)\n1,2\n"))
	if ds.HasDates {
		t.Fatal("missing date column must leave the axis inactive")
	}
	if got := ds.Rows[0].Total; got != 3 {
		t.Fatalf("row total = %v, want 3", got)
	}
}

func TestNormalizeRoundTripIsStable(t *testing.T) {
	first := Normalize(loadFixture(t, "Serviço,EC2-Instâncias($),S3($)\n2024-01-01,10.5,2.25\n2024-02-01,4,1\n"))

	// Render the normalized rows back out as a canonical export.
	var sb strings.Builder
	sb.WriteString(strings.Join(CanonicalColumns, ","))
	sb.WriteByte('\n')
	for _, row := range first.Rows {
		cells := make([]string, 0, len(CanonicalColumns))
		for _, column := range CanonicalColumns {
			switch column {
			case DateColumn:
				cells = append(cells, row.RawDate)
			case TotalColumn:
				cells = append(cells, strconv.FormatFloat(row.Total, 'f', -1, 64))
			default:
				cells = append(cells, strconv.FormatFloat(row.Services[column], 'f', -1, 64))
			}
		}
		sb.WriteString(strings.Join(cells, ","))
		sb.WriteByte('\n')
	}

	second := Normalize(loadFixture(t, sb.String()))

	if second.Warnings.CellsDefaulted != 0 || second.Warnings.ColumnsFilled != 0 || second.Warnings.MalformedRows != 0 {
		t.Fatalf("round trip produced warnings: %+v", second.Warnings)
	}
	if second.HasDates != first.HasDates {
		t.Fatalf("round trip HasDates = %v, want %v", second.HasDates, first.HasDates)
	}
	if len(second.Rows) != len(first.Rows) {
		t.Fatalf("round trip rows = %d, want %d", len(second.Rows), len(first.Rows))
	}
	for i := range first.Rows {
		if second.Rows[i].Total != first.Rows[i].Total {
			t.Fatalf("row %d total = %v, want %v", i, second.Rows[i].Total, first.Rows[i].Total)
		}
		for _, column := range first.ServiceColumns {
			if second.Rows[i].Services[column] != first.Rows[i].Services[column] {
				t.Fatalf("row %d %s = %v, want %v", i, column, second.Rows[i].Services[column], first.Rows[i].Services[column])
			}
		}
		if first.HasDates && !second.Rows[i].Date.Equal(*first.Rows[i].Date) {
			t.Fatalf("row %d date = %v, want %v", i, second.Rows[i].Date, first.Rows[i].Date)
		}
	}
}

func TestNormalizeRecomputesTotalFromServices(t *testing.T) {
	// The precomputed total column is ignored in favor of the service sum.
	header := strings.Join([]string{DateColumn, "S3($)", "Lambda($)", TotalColumn}, ",")
	ds := Normalize(loadFixture(t, header+"\n2024-01-01,2,3,999\n"))
	if got := ds.Rows[0].Total; got != 5 {
		t.Fatalf("row total = %v, want 5", got)
	}
}
