package costs

import (
	"context"
	"time"
)

// StoredRow is the persisted form of a normalized billing row.
type StoredRow struct {
	Index        int
	UsageDate    *time.Time
	RawDate      string
	ServiceCosts map[string]float64
	TotalCost    float64
}

// ImportsRepo defines persistence operations for imports and their rows.
type ImportsRepo interface {
	CreateImport(ctx context.Context, imp Import) error
	GetImport(ctx context.Context, id string) (Import, error)
	GetImportByChecksum(ctx context.Context, checksum string) (Import, error)
	ListImports(ctx context.Context) ([]Import, error)
	InsertRows(ctx context.Context, importID string, rows []StoredRow) error
	FetchRows(ctx context.Context, importID string) ([]StoredRow, error)
}
