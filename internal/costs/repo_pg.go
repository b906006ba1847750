package costs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements ImportsRepo using Postgres. Service costs are stored as a
// JSONB document keyed by column label so the billing layout can grow without
// schema changes.
type PGRepo struct {
	DB *sql.DB
}

// CreateImport inserts a new import record.
func (r *PGRepo) CreateImport(ctx context.Context, imp Import) error {
	const query = `
INSERT INTO files_imports (
    id,
    filename,
    size_bytes,
    checksum,
    row_count,
    has_dates,
    cells_defaulted,
    columns_filled,
    malformed_rows,
    storage_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		imp.ID,
		imp.Filename,
		imp.SizeBytes,
		imp.Checksum,
		imp.RowCount,
		imp.HasDates,
		imp.CellsDefaulted,
		imp.ColumnsFilled,
		imp.MalformedRows,
		imp.StorageKey,
		imp.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "files_imports_checksum_key") {
		return ErrDuplicateImport
	}
	return err
}

const importColumns = `id, filename, size_bytes, checksum, row_count, has_dates, cells_defaulted, columns_filled, malformed_rows, storage_key, created_at`

// GetImport returns an import by id.
func (r *PGRepo) GetImport(ctx context.Context, id string) (Import, error) {
	query := `SELECT ` + importColumns + ` FROM files_imports WHERE id = $1`
	return r.scanImport(r.DB.QueryRowContext(ctx, query, id))
}

// GetImportByChecksum returns an import by content checksum.
func (r *PGRepo) GetImportByChecksum(ctx context.Context, checksum string) (Import, error) {
	query := `SELECT ` + importColumns + ` FROM files_imports WHERE checksum = $1`
	return r.scanImport(r.DB.QueryRowContext(ctx, query, checksum))
}

// ListImports returns all imports, newest first.
func (r *PGRepo) ListImports(ctx context.Context) ([]Import, error) {
	query := `SELECT ` + importColumns + ` FROM files_imports ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		imp, err := r.scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanImport(row rowScanner) (Import, error) {
	var imp Import
	err := row.Scan(
		&imp.ID,
		&imp.Filename,
		&imp.SizeBytes,
		&imp.Checksum,
		&imp.RowCount,
		&imp.HasDates,
		&imp.CellsDefaulted,
		&imp.ColumnsFilled,
		&imp.MalformedRows,
		&imp.StorageKey,
		&imp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Import{}, ErrNotFound
		}
		return Import{}, err
	}
	return imp, nil
}

// InsertRows bulk-inserts normalized rows for an import inside one transaction.
func (r *PGRepo) InsertRows(ctx context.Context, importID string, rows []StoredRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO cost_rows (import_id, row_index, usage_date, raw_date, service_costs, total_cost)
VALUES ($1, $2, $3, $4, $5, $6)`

	for _, row := range rows {
		payload, err := json.Marshal(row.ServiceCosts)
		if err != nil {
			return fmt.Errorf("marshal service costs: %w", err)
		}
		var usageDate sql.NullTime
		if row.UsageDate != nil {
			usageDate = sql.NullTime{Time: *row.UsageDate, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query, importID, row.Index, usageDate, row.RawDate, payload, row.TotalCost); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FetchRows returns all rows for an import in source order.
func (r *PGRepo) FetchRows(ctx context.Context, importID string) ([]StoredRow, error) {
	const query = `
SELECT row_index, usage_date, raw_date, service_costs, total_cost
FROM cost_rows
WHERE import_id = $1
ORDER BY row_index ASC`

	rows, err := r.DB.QueryContext(ctx, query, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var row StoredRow
		var usageDate sql.NullTime
		var payload []byte
		if err := rows.Scan(&row.Index, &usageDate, &row.RawDate, &payload, &row.TotalCost); err != nil {
			return nil, err
		}
		if usageDate.Valid {
			t := usageDate.Time
			row.UsageDate = &t
		}
		if err := json.Unmarshal(payload, &row.ServiceCosts); err != nil {
			return nil, fmt.Errorf("unmarshal service costs: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
