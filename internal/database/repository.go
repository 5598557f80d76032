package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// ErrNotFound is returned when an entry id does not resolve to an active row.
var ErrNotFound = errors.New("entry not found")

// Repository is the durable history store. All mutations go through a single
// writer lock so the promote/insert sequence cannot interleave; reads run
// concurrently against SQLite's snapshot isolation.
type Repository struct {
	db *bun.DB

	// writeMu serializes mutations (single-writer discipline).
	writeMu sync.Mutex
}

func NewRepository(dbPath string) (*Repository, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	ctx := context.Background()

	if _, err := r.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	// Fingerprint uniqueness holds among active rows only; deleted rows may
	// share a fingerprint with a live one.
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_fingerprint_active ON entries(fingerprint) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_entries_sort_key ON entries(sort_key DESC)",
	}

	for _, idx := range indexes {
		if _, err := r.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Exists reports whether an active entry with the given fingerprint exists.
func (r *Repository) Exists(ctx context.Context, fingerprint string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Entry)(nil)).
		Where("fingerprint = ?", fingerprint).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing fingerprint: %w", err)
	}
	return exists, nil
}

// Insert persists a new entry and returns its id, assigning one when unset.
// The caller is expected to have checked Exists first, but a duplicate
// active fingerprint is still handled defensively: the insert degenerates
// into a promote of the existing row and its id is returned. Two racing
// captures of the same payload therefore never produce a corrupt duplicate.
func (r *Repository) Insert(ctx context.Context, entry *Entry) (string, error) {
	if len(entry.RawPayload) == 0 {
		return "", fmt.Errorf("refusing to insert entry with empty payload")
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var existing Entry
	err := r.db.NewSelect().
		Model(&existing).
		Column("id").
		Where("fingerprint = ?", entry.Fingerprint).
		Scan(ctx)
	switch {
	case err == nil:
		if err := r.promote(ctx, existing.ID, entry.SortKey, entry.SourceApp); err != nil {
			return "", err
		}
		return existing.ID, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("failed to check existing fingerprint: %w", err)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}
	return entry.ID, nil
}

// Touch advances the sort key (and source app) of the active entry with the
// given fingerprint: the repeat-capture promote path.
func (r *Repository) Touch(ctx context.Context, fingerprint string, sortKey time.Time, sourceApp string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var existing Entry
	err := r.db.NewSelect().
		Model(&existing).
		Column("id").
		Where("fingerprint = ?", fingerprint).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to find entry for fingerprint: %w", err)
	}
	return r.promote(ctx, existing.ID, sortKey, sourceApp)
}

func (r *Repository) promote(ctx context.Context, id string, sortKey time.Time, sourceApp string) error {
	q := r.db.NewUpdate().
		Model((*Entry)(nil)).
		Set("sort_key = ?", sortKey).
		Where("id = ?", id)
	if sourceApp != "" {
		q = q.Set("source_app = ?", sourceApp)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to promote entry: %w", err)
	}
	return nil
}

// FetchPage returns one page of summaries ordered by sort key descending.
// A result shorter than limit signals exhaustion. When search is non-empty
// only entries whose display text matches are returned.
func (r *Repository) FetchPage(ctx context.Context, offset, limit int, search string) ([]*Summary, error) {
	var summaries []*Summary

	q := r.db.NewSelect().
		Model(&summaries).
		Where("deleted_at IS NULL").
		Order("sort_key DESC").
		Offset(offset).
		Limit(limit)
	if search != "" {
		q = q.Where("display_text LIKE ?", "%"+search+"%")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	return summaries, nil
}

// FetchPayload loads one entry's raw payload blob, independently of the
// summary listing.
func (r *Repository) FetchPayload(ctx context.Context, id string) ([]byte, error) {
	var blob []byte
	err := r.db.NewSelect().
		Model((*Entry)(nil)).
		Column("raw_payload").
		Where("id = ?", id).
		Scan(ctx, &blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch payload: %w", err)
	}
	return blob, nil
}

// GetEntry loads a full entry, payload included.
func (r *Repository) GetEntry(ctx context.Context, id string) (*Entry, error) {
	var entry Entry
	err := r.db.NewSelect().
		Model(&entry).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &entry, nil
}

func (r *Repository) UpdateSortKey(ctx context.Context, id string, sortKey time.Time) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.db.NewUpdate().
		Model((*Entry)(nil)).
		Set("sort_key = ?", sortKey).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to update sort key: %w", err)
	}
	return nil
}

// Delete logically removes an entry. The row stays on disk; its fingerprint
// becomes available for a fresh capture.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// ClearAll logically removes every active entry.
func (r *Repository) ClearAll(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("1=1").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear all entries: %w", err)
	}
	return nil
}

// CountActive returns the number of active entries.
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().Model((*Entry)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// CleanupOldEntries removes entries older than maxDays and trims the history
// to at most maxItems, oldest first.
func (r *Repository) CleanupOldEntries(ctx context.Context, maxDays, maxItems int) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -maxDays)

	if _, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("sort_key < ?", cutoff).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete old entries: %w", err)
	}

	keep := r.db.NewSelect().
		Model((*Entry)(nil)).
		Column("id").
		Order("sort_key DESC").
		Limit(maxItems)

	if _, err := r.db.NewDelete().
		Model((*Entry)(nil)).
		Where("id NOT IN (?)", keep).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to trim excess entries: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
