package costs

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of ImportsRepo used in tests and
// when no database is configured.
type MemoryRepo struct {
	mu       sync.RWMutex
	imports  map[string]Import
	rows     map[string][]StoredRow
	checksum map[string]string // checksum -> import id
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		imports:  make(map[string]Import),
		rows:     make(map[string][]StoredRow),
		checksum: make(map[string]string),
	}
}

// CreateImport stores a new import record.
func (r *MemoryRepo) CreateImport(ctx context.Context, imp Import) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checksum[imp.Checksum]; exists {
		return ErrDuplicateImport
	}
	r.imports[imp.ID] = imp
	r.checksum[imp.Checksum] = imp.ID
	return nil
}

// GetImport returns an import by id.
func (r *MemoryRepo) GetImport(ctx context.Context, id string) (Import, error) {
	if err := ctx.Err(); err != nil {
		return Import{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	imp, ok := r.imports[id]
	if !ok {
		return Import{}, ErrNotFound
	}
	return imp, nil
}

// GetImportByChecksum returns an import by content checksum.
func (r *MemoryRepo) GetImportByChecksum(ctx context.Context, checksum string) (Import, error) {
	if err := ctx.Err(); err != nil {
		return Import{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.checksum[checksum]
	if !ok {
		return Import{}, ErrNotFound
	}
	return r.imports[id], nil
}

// ListImports returns all imports, newest first.
func (r *MemoryRepo) ListImports(ctx context.Context) ([]Import, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Import, 0, len(r.imports))
	for _, imp := range r.imports {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// InsertRows stores normalized rows for an import.
func (r *MemoryRepo) InsertRows(ctx context.Context, importID string, rows []StoredRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]StoredRow, len(rows))
	copy(stored, rows)
	r.rows[importID] = stored
	return nil
}

// FetchRows returns all rows for an import in source order.
func (r *MemoryRepo) FetchRows(ctx context.Context, importID string) ([]StoredRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows, ok := r.rows[importID]
	if !ok {
		return nil, nil
	}
	out := make([]StoredRow, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
