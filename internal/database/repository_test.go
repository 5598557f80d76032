package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipvault/internal/clipboard"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testEntry(fingerprint, text string, at time.Time) *Entry {
	return &Entry{
		DisplayText: text,
		CreatedAt:   at,
		SortKey:     at,
		ContentKind: clipboard.KindPlainText,
		RawPayload:  []byte(`[{"text/plain":"aGVsbG8="}]`),
		Fingerprint: fingerprint,
	}
}

func TestInsertAndExists(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "text:hello")
	require.NoError(t, err)
	assert.False(t, exists)

	id, err := repo.Insert(ctx, testEntry("text:hello", "hello", time.Now()))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	exists, err = repo.Exists(ctx, "text:hello")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInsertRejectsEmptyPayload(t *testing.T) {
	repo := newTestRepository(t)

	entry := testEntry("text:x", "x", time.Now())
	entry.RawPayload = nil
	_, err := repo.Insert(context.Background(), entry)
	require.Error(t, err)
}

func TestInsertDuplicateFingerprintPromotes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(5 * time.Second)

	first, err := repo.Insert(ctx, testEntry("text:hello", "hello", t0))
	require.NoError(t, err)

	second := testEntry("text:hello", "hello", t1)
	second.SourceApp = "com.example.editor"
	dupID, err := repo.Insert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first, dupID, "duplicate insert must resolve to the existing row")

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	page, err := repo.FetchPage(ctx, 0, 10, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.True(t, page[0].SortKey.After(t0), "sort key must advance to the second capture")
	assert.Equal(t, "com.example.editor", page[0].SourceApp)
}

func TestTouchAdvancesSortKey(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	_, err := repo.Insert(ctx, testEntry("text:a", "a", t0))
	require.NoError(t, err)

	require.NoError(t, repo.Touch(ctx, "text:a", t0.Add(time.Minute), ""))

	page, err := repo.FetchPage(ctx, 0, 1, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.True(t, page[0].SortKey.After(t0))

	assert.ErrorIs(t, repo.Touch(ctx, "text:unknown", t0, ""), ErrNotFound)
}

func TestFetchPagePagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := repo.Insert(ctx, testEntry(
			fmt.Sprintf("text:item-%d", i),
			fmt.Sprintf("item-%d", i),
			base.Add(time.Duration(i)*time.Second),
		))
		require.NoError(t, err)
	}

	// Exactly N entries against limit N: a full page.
	page, err := repo.FetchPage(ctx, 0, 3, "")
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "item-3", page[0].DisplayText, "newest sort key first")

	// The N+1th entry arrives on the second page, signalling exhaustion.
	page, err = repo.FetchPage(ctx, 3, 3, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "item-0", page[0].DisplayText)
}

func TestFetchPageSearchFiltersDisplayText(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now()
	for i, text := range []string{"deploy notes", "grocery list", "deploy script"} {
		_, err := repo.Insert(ctx, testEntry("text:"+text, text, now.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	page, err := repo.FetchPage(ctx, 0, 10, "deploy")
	require.NoError(t, err)
	require.Len(t, page, 2)
	for _, s := range page {
		assert.Contains(t, s.DisplayText, "deploy")
	}
}

func TestFetchPayloadIsIndependentOfSummaries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	entry := testEntry("text:payload", "payload", time.Now())
	id, err := repo.Insert(ctx, entry)
	require.NoError(t, err)

	blob, err := repo.FetchPayload(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entry.RawPayload, blob)

	_, err = repo.FetchPayload(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetEntry(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, testEntry("text:full", "full", time.Now()))
	require.NoError(t, err)

	entry, err := repo.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "full", entry.DisplayText)
	assert.NotEmpty(t, entry.RawPayload)

	_, err = repo.GetEntry(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSortKeyReorders(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	oldID, err := repo.Insert(ctx, testEntry("text:old", "old", base))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, testEntry("text:new", "new", base.Add(time.Second)))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSortKey(ctx, oldID, base.Add(time.Minute)))

	page, err := repo.FetchPage(ctx, 0, 10, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, oldID, page[0].ID)
}

func TestDeleteFreesFingerprintForReuse(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, testEntry("text:gone", "gone", time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, first))

	exists, err := repo.Exists(ctx, "text:gone")
	require.NoError(t, err)
	assert.False(t, exists)

	// A fresh capture of the same payload creates a new entry.
	second, err := repo.Insert(ctx, testEntry("text:gone", "gone", time.Now()))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClearAll(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(ctx, testEntry(fmt.Sprintf("text:%d", i), "x", time.Now()))
		require.NoError(t, err)
	}

	require.NoError(t, repo.ClearAll(ctx))

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCleanupOldEntries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	stale := time.Now().AddDate(0, 0, -60)
	_, err := repo.Insert(ctx, testEntry("text:stale", "stale", stale))
	require.NoError(t, err)

	fresh := time.Now()
	for i := 0; i < 3; i++ {
		_, err := repo.Insert(ctx, testEntry(fmt.Sprintf("text:fresh-%d", i), "fresh", fresh.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	require.NoError(t, repo.CleanupOldEntries(ctx, 30, 2))

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	exists, err := repo.Exists(ctx, "text:stale")
	require.NoError(t, err)
	assert.False(t, exists)
}
