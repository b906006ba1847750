package costs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaniusmax/projeto-finops/internal/ingest"
	"github.com/vaniusmax/projeto-finops/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewMemoryRepo(), local.New(t.TempDir()))
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestServiceImportAndReload(t *testing.T) {
	svc := newTestService(t)
	raw := []byte("Serviço,S3($),Lambda($)\n2024-01-01,2,3\n2024-02-01,4,1\n")

	imp, err := svc.Import(context.Background(), "custos.csv", raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imp.RowCount != 2 || !imp.HasDates {
		t.Fatalf("import = %+v, want 2 dated rows", imp)
	}
	if imp.StorageKey == "" {
		t.Fatal("storage key must be set")
	}

	ds, got, err := svc.Dataset(context.Background(), imp.ID)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if got.ID != imp.ID {
		t.Fatalf("reloaded import id = %s, want %s", got.ID, imp.ID)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("reloaded rows = %d, want 2", len(ds.Rows))
	}
	if ds.Rows[0].Total != 5 || ds.Rows[1].Total != 5 {
		t.Fatalf("reloaded totals = %v/%v, want 5/5", ds.Rows[0].Total, ds.Rows[1].Total)
	}
	if ds.Rows[0].Date == nil {
		t.Fatal("reloaded rows must keep their dates")
	}
}

func TestServiceImportRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)
	raw := []byte("Serviço,S3($)\n2024-01-01,2\n")

	first, err := svc.Import(context.Background(), "a.csv", raw)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}

	dup, err := svc.Import(context.Background(), "b.csv", raw)
	if !errors.Is(err, ErrDuplicateImport) {
		t.Fatalf("err = %v, want ErrDuplicateImport", err)
	}
	if dup.ID != first.ID {
		t.Fatalf("duplicate points at %s, want existing %s", dup.ID, first.ID)
	}
}

// flakyChecksumRepo fails the checksum lookup with a repo-level error.
type flakyChecksumRepo struct {
	*MemoryRepo
	checksumErr error
}

func (r *flakyChecksumRepo) GetImportByChecksum(ctx context.Context, checksum string) (Import, error) {
	return Import{}, r.checksumErr
}

func TestServiceImportSurfacesChecksumLookupErrors(t *testing.T) {
	repoErr := errors.New("connection reset")
	repo := &flakyChecksumRepo{MemoryRepo: NewMemoryRepo(), checksumErr: repoErr}
	svc := NewService(repo, local.New(t.TempDir()))

	_, err := svc.Import(context.Background(), "a.csv", []byte("Serviço,S3($)\n2024-01-01,2\n"))
	if !errors.Is(err, repoErr) {
		t.Fatalf("err = %v, want the repo error", err)
	}
	if errors.Is(err, ErrDuplicateImport) {
		t.Fatal("repo failure must not look like a duplicate")
	}
	imports, listErr := repo.MemoryRepo.ListImports(context.Background())
	if listErr != nil || len(imports) != 0 {
		t.Fatalf("imports = %d (err %v), want none persisted", len(imports), listErr)
	}
}

// racingRepo simulates losing the insert race to a concurrent identical upload.
type racingRepo struct {
	*MemoryRepo
	winner  Import
	lookups int
}

func (r *racingRepo) GetImportByChecksum(ctx context.Context, checksum string) (Import, error) {
	r.lookups++
	if r.lookups == 1 {
		return Import{}, ErrNotFound
	}
	return r.winner, nil
}

func (r *racingRepo) CreateImport(ctx context.Context, imp Import) error {
	return ErrDuplicateImport
}

func TestServiceImportRaceReturnsWinningImport(t *testing.T) {
	winner := Import{ID: "winner-id", Filename: "first.csv"}
	repo := &racingRepo{MemoryRepo: NewMemoryRepo(), winner: winner}
	svc := NewService(repo, local.New(t.TempDir()))

	dup, err := svc.Import(context.Background(), "second.csv", []byte("Serviço,S3($)\n2024-01-01,2\n"))
	if !errors.Is(err, ErrDuplicateImport) {
		t.Fatalf("err = %v, want ErrDuplicateImport", err)
	}
	if dup.ID != winner.ID {
		t.Fatalf("duplicate points at %q, want winning import %q", dup.ID, winner.ID)
	}
}

func TestServiceImportPropagatesLoadErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Import(context.Background(), "empty.csv", []byte("a,b\n"))
	if !errors.Is(err, ingest.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestServiceDatasetUnknownImport(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Dataset(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
