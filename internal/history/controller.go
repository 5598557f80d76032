// Package history orchestrates capture, dedup, pagination and restore. The
// Controller is the only surface the presentation layer talks to.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipvault/internal/clipboard"
	"clipvault/internal/database"
	"clipvault/internal/fingerprint"
)

// State is the pagination state machine.
type State int

const (
	Idle State = iota
	LoadingPage
	Exhausted
)

// reorderEpsilon spaces manually assigned sort keys. Well below the capture
// poll granularity, so reassigned keys never collide with genuine captures.
const reorderEpsilon = time.Millisecond

// Controller owns the in-memory view window over the durable history and
// exposes the external contract: paginated summaries, on-demand payload
// fetch, and the promote/reorder/delete/restore actions.
//
// Persistence failures are logged, not rolled back: the in-session view
// stays authoritative and the mutation is simply not durable yet.
type Controller struct {
	repo     *database.Repository
	writer   *clipboard.Writer
	pageSize int

	mu          sync.Mutex
	entries     []*database.Summary
	state       State
	searchTerm  string
	scrollToTop bool
}

func NewController(repo *database.Repository, writer *clipboard.Writer, pageSize int) *Controller {
	return &Controller{
		repo:     repo,
		writer:   writer,
		pageSize: pageSize,
	}
}

// Entries returns the current in-memory window, newest first.
func (c *Controller) Entries() []*database.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*database.Summary, len(c.entries))
	copy(out, c.entries)
	return out
}

// State returns the pagination state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SearchTerm returns the active display-text filter.
func (c *Controller) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

// ConsumeScrollToTop reports whether the view should scroll back to the top
// on next activation, clearing the flag.
func (c *Controller) ConsumeScrollToTop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.scrollToTop
	c.scrollToTop = false
	return v
}

// LoadMore appends the next page to the window. A no-op while a page is
// already loading or the history is exhausted, so redundant concurrent
// requests collapse into one.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil
	}
	c.state = LoadingPage
	offset := len(c.entries)
	term := c.searchTerm
	c.mu.Unlock()

	page, err := c.repo.FetchPage(ctx, offset, c.pageSize, term)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Idle
		return fmt.Errorf("failed to load page: %w", err)
	}

	c.entries = append(c.entries, page...)
	if len(page) < c.pageSize {
		c.state = Exhausted
	} else {
		c.state = Idle
	}
	return nil
}

// ResetPagination clears the window and reloads page 0. Used when the search
// term changes.
func (c *Controller) ResetPagination(ctx context.Context) error {
	c.mu.Lock()
	c.entries = nil
	c.state = Idle
	c.mu.Unlock()
	return c.LoadMore(ctx)
}

// SetSearch updates the display-text filter and reloads from page 0.
func (c *Controller) SetSearch(ctx context.Context, term string) error {
	c.mu.Lock()
	c.searchTerm = term
	c.mu.Unlock()
	return c.ResetPagination(ctx)
}

// PruneToFirstPage trims the in-memory window to the first page when the
// surrounding view is dismissed. Durable history is untouched; the next
// activation scrolls back to the top and can page forward again.
func (c *Controller) PruneToFirstPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > c.pageSize {
		c.entries = c.entries[:c.pageSize:c.pageSize]
	}
	c.state = Idle
	c.scrollToTop = true
}

// Capture runs one observed clipboard payload through fingerprint, dedup
// and persistence, and keeps the window consistent. A repeat fingerprint
// promotes the existing entry instead of inserting.
func (c *Controller) Capture(ctx context.Context, ev clipboard.CaptureEvent) error {
	fp := fingerprint.Compute(ev.Representations)

	exists, err := c.repo.Exists(ctx, fp)
	if err != nil {
		return fmt.Errorf("failed existence check: %w", err)
	}

	at := ev.CapturedAt
	if at.IsZero() {
		at = time.Now()
	}

	if exists {
		err := c.repo.Touch(ctx, fp, at, ev.SourceApp)
		switch {
		case err == nil:
			c.promoteInWindow(fp, at, ev.SourceApp)
			return nil
		case errors.Is(err, database.ErrNotFound):
			// Deleted between the check and the promote; insert fresh below.
		default:
			slog.Warn("promote not persisted", "fingerprint", fp, "err", err)
			c.promoteInWindow(fp, at, ev.SourceApp)
			return nil
		}
	}

	blob, err := clipboard.EncodeArchive(ev.Representations)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	entry := &database.Entry{
		ID:          uuid.NewString(),
		DisplayText: ev.DisplayText,
		CreatedAt:   at,
		SortKey:     at,
		ContentKind: ev.Kind,
		RawPayload:  blob,
		SourceApp:   ev.SourceApp,
		Fingerprint: fp,
	}

	// A racing identical capture makes Insert degenerate into a promote and
	// return the winner's id; the window picks up whichever id won.
	id, err := c.repo.Insert(ctx, entry)
	if err != nil {
		slog.Warn("capture not persisted, keeping in-session entry", "err", err)
		id = entry.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removeFromWindowLocked(fp) {
		// The race resolved to a promote; fall through and re-add at head.
		slog.Debug("capture collapsed into existing entry", "id", id)
	}
	c.entries = append([]*database.Summary{{
		ID:          id,
		DisplayText: entry.DisplayText,
		CreatedAt:   entry.CreatedAt,
		SortKey:     entry.SortKey,
		ContentKind: entry.ContentKind,
		SourceApp:   entry.SourceApp,
		Fingerprint: entry.Fingerprint,
	}}, c.entries...)
	return nil
}

func (c *Controller) promoteInWindow(fp string, at time.Time, sourceApp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.entries {
		if s.Fingerprint != fp {
			continue
		}
		s.SortKey = at
		if sourceApp != "" {
			s.SourceApp = sourceApp
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		c.entries = append([]*database.Summary{s}, c.entries...)
		return
	}
	// Entry exists durably but sits outside the pruned window; nothing to
	// move in memory.
}

func (c *Controller) removeFromWindowLocked(fp string) bool {
	for i, s := range c.entries {
		if s.Fingerprint == fp {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// PromoteToTop moves an entry to the head of the window with a fresh sort
// key and persists the new key.
func (c *Controller) PromoteToTop(ctx context.Context, id string) error {
	now := time.Now()

	c.mu.Lock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return database.ErrNotFound
	}
	s := c.entries[idx]
	s.SortKey = now
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	c.entries = append([]*database.Summary{s}, c.entries...)
	c.mu.Unlock()

	if err := c.repo.UpdateSortKey(ctx, id, now); err != nil {
		slog.Warn("promote not persisted", "id", id, "err", err)
	}
	return nil
}

// MoveItem reorders the window immediately for responsiveness, then assigns
// strictly decreasing sort keys baseline - i·ε across the affected prefix
// and persists each changed key. The contract is the read-back order, not
// the literal key values: replaying the same target order reproduces the
// same relative order even if the absolute keys differ.
func (c *Controller) MoveItem(ctx context.Context, from, to int) error {
	c.mu.Lock()
	if from < 0 || from >= len(c.entries) || to < 0 || to >= len(c.entries) {
		c.mu.Unlock()
		return fmt.Errorf("move out of range: %d -> %d of %d", from, to, len(c.entries))
	}
	if from == to {
		c.mu.Unlock()
		return nil
	}

	// Baseline: the head's key before the move is the window maximum.
	baseline := c.entries[0].SortKey
	if baseline.IsZero() {
		baseline = time.Now()
	}

	moved := c.entries[from]
	c.entries = append(c.entries[:from], c.entries[from+1:]...)
	c.entries = append(c.entries[:to], append([]*database.Summary{moved}, c.entries[to:]...)...)

	last := from
	if to > last {
		last = to
	}

	type keyChange struct {
		id  string
		key time.Time
	}
	var changes []keyChange
	for i := 0; i <= last; i++ {
		key := baseline.Add(-time.Duration(i) * reorderEpsilon)
		if !c.entries[i].SortKey.Equal(key) {
			c.entries[i].SortKey = key
			changes = append(changes, keyChange{id: c.entries[i].ID, key: key})
		}
	}
	c.mu.Unlock()

	for _, ch := range changes {
		if err := c.repo.UpdateSortKey(ctx, ch.id, ch.key); err != nil {
			slog.Warn("reorder not persisted", "id", ch.id, "err", err)
		}
	}
	return nil
}

// FetchPayload loads one entry's full payload on demand.
func (c *Controller) FetchPayload(ctx context.Context, id string) ([]byte, error) {
	return c.repo.FetchPayload(ctx, id)
}

// Restore writes a stored entry back onto the OS clipboard.
func (c *Controller) Restore(ctx context.Context, id string) error {
	entry, err := c.repo.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load entry for restore: %w", err)
	}
	if err := c.writer.Restore(entry.RawPayload, entry.DisplayText); err != nil {
		return fmt.Errorf("failed to restore entry: %w", err)
	}
	return nil
}

// Delete removes an entry from the window and logically deletes it.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if idx := c.indexOfLocked(id); idx >= 0 {
		c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	}
	c.mu.Unlock()

	if err := c.repo.Delete(ctx, id); err != nil {
		slog.Warn("delete not persisted", "id", id, "err", err)
	}
	return nil
}

// ClearAll empties the window and logically deletes every entry.
func (c *Controller) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	c.entries = nil
	c.state = Idle
	c.mu.Unlock()

	if err := c.repo.ClearAll(ctx); err != nil {
		slog.Warn("clear not persisted", "err", err)
	}
	return nil
}

// Run consumes capture events until ctx is cancelled. Capture errors are
// logged; the loop never stops.
func (c *Controller) Run(ctx context.Context, events <-chan clipboard.CaptureEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := c.Capture(ctx, ev); err != nil {
				slog.Warn("capture failed", "err", err)
			}
		}
	}
}

func (c *Controller) indexOfLocked(id string) int {
	for i, s := range c.entries {
		if s.ID == id {
			return i
		}
	}
	return -1
}
