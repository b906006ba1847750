package costs

import "time"

// Import describes one ingested billing file.
type Import struct {
	ID             string
	Filename       string
	SizeBytes      int64
	Checksum       string
	RowCount       int
	HasDates       bool
	CellsDefaulted int
	ColumnsFilled  int
	MalformedRows  int
	StorageKey     string
	CreatedAt      time.Time
}

// Row is one normalized billing row. Date is nil when the time axis is
// inactive for the import or the source cell was blank.
type Row struct {
	Index    int
	Date     *time.Time
	RawDate  string
	Services map[string]float64
	Total    float64
}

// Warnings counts the repairs normalization applied. They are reported to the
// caller but never fail an import.
type Warnings struct {
	CellsDefaulted int
	ColumnsFilled  int
	MalformedRows  int
}

// Dataset is a fully normalized import ready for aggregation.
type Dataset struct {
	ServiceColumns []string
	Rows           []Row
	HasDates       bool
	Warnings       Warnings
}
