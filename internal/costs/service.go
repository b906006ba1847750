package costs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/vaniusmax/projeto-finops/internal/ingest"
	"github.com/vaniusmax/projeto-finops/internal/shared/metrics"
	"github.com/vaniusmax/projeto-finops/internal/shared/storage/object"
	"github.com/vaniusmax/projeto-finops/internal/shared/telemetry"
	"github.com/vaniusmax/projeto-finops/internal/shared/util"
)

// Service owns the import pipeline: load, normalize, deduplicate by checksum
// and persist both the normalized rows and the raw file.
type Service struct {
	Repo  ImportsRepo
	Store object.ObjectStore

	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(repo ImportsRepo, store object.ObjectStore) *Service {
	return &Service{
		Repo:  repo,
		Store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Import ingests one CSV file. On a checksum match the previously stored
// import is returned along with ErrDuplicateImport; nothing is re-persisted.
func (s *Service) Import(ctx context.Context, filename string, data []byte) (Import, error) {
	started := s.now()
	metrics.IncImportStarted()

	checksum := util.ChecksumSHA256(data)
	existing, err := s.Repo.GetImportByChecksum(ctx, checksum)
	if err == nil {
		return existing, ErrDuplicateImport
	}
	if !errors.Is(err, ErrNotFound) {
		metrics.IncImportFailed()
		return Import{}, fmt.Errorf("check duplicate: %w", err)
	}

	rs, err := ingest.Load(data)
	if err != nil {
		metrics.IncImportFailed()
		return Import{}, err
	}
	ds := Normalize(rs)

	imp := Import{
		ID:             s.newID(),
		Filename:       filename,
		SizeBytes:      int64(len(data)),
		Checksum:       checksum,
		RowCount:       len(ds.Rows),
		HasDates:       ds.HasDates,
		CellsDefaulted: ds.Warnings.CellsDefaulted,
		ColumnsFilled:  ds.Warnings.ColumnsFilled,
		MalformedRows:  ds.Warnings.MalformedRows,
		CreatedAt:      s.now().UTC(),
	}

	sanitized, err := util.SanitizeFileName(filename)
	if err != nil {
		sanitized = "import.csv"
	}
	imp.StorageKey = path.Join("imports", imp.ID, sanitized)
	if _, err := s.Store.Save(ctx, imp.StorageKey, "text/csv", bytes.NewReader(data)); err != nil {
		metrics.IncImportFailed()
		return Import{}, fmt.Errorf("store raw file: %w", err)
	}

	if err := s.Repo.CreateImport(ctx, imp); err != nil {
		if errors.Is(err, ErrDuplicateImport) {
			// A concurrent upload of the same bytes won the insert; surface
			// the stored import, not the one we lost the race with.
			winner, lookupErr := s.Repo.GetImportByChecksum(ctx, checksum)
			if lookupErr != nil {
				metrics.IncImportFailed()
				return Import{}, fmt.Errorf("reload duplicate: %w", lookupErr)
			}
			return winner, ErrDuplicateImport
		}
		metrics.IncImportFailed()
		return Import{}, err
	}
	if err := s.Repo.InsertRows(ctx, imp.ID, storedRows(ds)); err != nil {
		metrics.IncImportFailed()
		return Import{}, err
	}

	metrics.IncImportCompleted()
	metrics.ObserveImportDurationMs(float64(s.now().Sub(started).Milliseconds()))
	telemetry.Info("costs.import.completed", map[string]any{
		"import_id":       imp.ID,
		"filename":        imp.Filename,
		"row_count":       imp.RowCount,
		"has_dates":       imp.HasDates,
		"cells_defaulted": imp.CellsDefaulted,
		"columns_filled":  imp.ColumnsFilled,
		"malformed_rows":  imp.MalformedRows,
	})
	return imp, nil
}

// Get returns one import by id.
func (s *Service) Get(ctx context.Context, id string) (Import, error) {
	return s.Repo.GetImport(ctx, id)
}

// List returns all imports, newest first.
func (s *Service) List(ctx context.Context) ([]Import, error) {
	return s.Repo.ListImports(ctx)
}

// Dataset reloads the normalized dataset for an import.
func (s *Service) Dataset(ctx context.Context, id string) (*Dataset, Import, error) {
	imp, err := s.Repo.GetImport(ctx, id)
	if err != nil {
		return nil, Import{}, err
	}
	stored, err := s.Repo.FetchRows(ctx, id)
	if err != nil {
		return nil, Import{}, err
	}

	ds := &Dataset{
		ServiceColumns: ServiceColumns(),
		Rows:           make([]Row, 0, len(stored)),
		HasDates:       imp.HasDates,
		Warnings: Warnings{
			CellsDefaulted: imp.CellsDefaulted,
			ColumnsFilled:  imp.ColumnsFilled,
			MalformedRows:  imp.MalformedRows,
		},
	}
	for _, row := range stored {
		ds.Rows = append(ds.Rows, Row{
			Index:    row.Index,
			Date:     row.UsageDate,
			RawDate:  row.RawDate,
			Services: row.ServiceCosts,
			Total:    row.TotalCost,
		})
	}
	return ds, imp, nil
}

func storedRows(ds *Dataset) []StoredRow {
	out := make([]StoredRow, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		out = append(out, StoredRow{
			Index:        row.Index,
			UsageDate:    row.Date,
			RawDate:      row.RawDate,
			ServiceCosts: row.Services,
			TotalCost:    row.Total,
		})
	}
	return out
}
