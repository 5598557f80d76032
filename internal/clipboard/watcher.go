package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Watcher polls the backend change counter and emits a CaptureEvent for
// every new payload. It never writes to the clipboard itself.
type Watcher struct {
	backend     Backend
	interval    time.Duration
	maxItemSize int

	events chan CaptureEvent

	mu        sync.Mutex
	lastCount uint64
	running   bool
}

func NewWatcher(backend Backend, interval time.Duration, maxItemSize int) *Watcher {
	return &Watcher{
		backend:     backend,
		interval:    interval,
		maxItemSize: maxItemSize,
		events:      make(chan CaptureEvent, 100),
	}
}

// Start begins polling until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	w.running = true
	// Whatever is on the clipboard at startup predates this session.
	w.lastCount = w.backend.ChangeCount()
	w.mu.Unlock()

	slog.Info("clipboard watcher started", "backend", w.backend.Name(), "interval", w.interval)

	go w.watchLoop(ctx)
	return nil
}

// Events returns the channel of captured payloads.
func (w *Watcher) Events() <-chan CaptureEvent {
	return w.events
}

// NoteWrite records a change count produced by our own restore write as
// already seen, so the watcher does not recapture its own restoration.
func (w *Watcher) NoteWrite(count uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if count > w.lastCount {
		w.lastCount = count
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			slog.Info("clipboard watcher stopped")
			return
		case <-ticker.C:
			w.checkOnce()
		}
	}
}

// checkOnce captures the clipboard if its change counter moved. Any failure
// is logged and skipped; the poll loop never stops.
func (w *Watcher) checkOnce() {
	count := w.backend.ChangeCount()

	w.mu.Lock()
	if count == w.lastCount {
		w.mu.Unlock()
		return
	}
	w.lastCount = count
	w.mu.Unlock()

	items, err := w.backend.ReadItems()
	if err != nil {
		slog.Warn("failed to read clipboard", "err", err)
		return
	}
	items = usableItems(items)
	if len(items) == 0 {
		return
	}

	if w.maxItemSize > 0 {
		if size := Size(items); size > w.maxItemSize {
			slog.Warn("clipboard payload too large, skipping", "size", size, "max", w.maxItemSize)
			return
		}
	}

	now := time.Now()
	kind := Classify(items)
	ev := CaptureEvent{
		Representations: items,
		DisplayText:     DisplayText(items, kind, now),
		Kind:            kind,
		SourceApp:       SourceApp(items),
		CapturedAt:      now,
	}

	select {
	case w.events <- ev:
	default:
		slog.Warn("capture event dropped, consumer is behind")
	}
}

// usableItems drops empty maps and zero-length representations.
func usableItems(items []RepresentationMap) []RepresentationMap {
	var out []RepresentationMap
	for _, item := range items {
		m := RepresentationMap{}
		for format, data := range item {
			if format == "" || len(data) == 0 {
				continue
			}
			m[format] = data
		}
		if len(m) > 0 {
			out = append(out, m)
		}
	}
	return out
}
