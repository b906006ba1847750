package costs

import "time"

type warningsResponse struct {
	CellsDefaulted int `json:"cellsDefaulted"`
	ColumnsFilled  int `json:"columnsFilled"`
	MalformedRows  int `json:"malformedRows"`
}

type importResponse struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	SizeBytes int64            `json:"sizeBytes"`
	Checksum  string           `json:"checksum"`
	RowCount  int              `json:"rowCount"`
	HasDates  bool             `json:"hasDates"`
	CreatedAt time.Time        `json:"createdAt"`
	Warnings  warningsResponse `json:"warnings"`
}

func toImportResponse(imp Import) importResponse {
	return importResponse{
		ID:        imp.ID,
		Filename:  imp.Filename,
		SizeBytes: imp.SizeBytes,
		Checksum:  imp.Checksum,
		RowCount:  imp.RowCount,
		HasDates:  imp.HasDates,
		CreatedAt: imp.CreatedAt,
		Warnings: warningsResponse{
			CellsDefaulted: imp.CellsDefaulted,
			ColumnsFilled:  imp.ColumnsFilled,
			MalformedRows:  imp.MalformedRows,
		},
	}
}

type importListResponse struct {
	Imports []importResponse `json:"imports"`
}
