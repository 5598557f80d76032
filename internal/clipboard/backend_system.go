package clipboard

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

// systemBackend reads and writes the OS clipboard through
// golang.design/x/clipboard. The library exposes no native change counter,
// so the backend derives one: a poll goroutine compares the current text and
// image bytes against the last observed ones and bumps the counter on any
// difference.
type systemBackend struct {
	mu       sync.Mutex
	count    uint64
	lastText []byte
	lastImg  []byte
	done     chan struct{}
}

// NewSystemBackend initializes the OS clipboard and starts the change
// detection poll. Fails when no display environment is available.
func NewSystemBackend(pollInterval time.Duration) (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	b := &systemBackend{done: make(chan struct{})}
	b.lastText = clipboard.Read(clipboard.FmtText)
	b.lastImg = clipboard.Read(clipboard.FmtImage)

	go b.poll(pollInterval)
	return b, nil
}

func (b *systemBackend) Name() string { return "system clipboard (poll)" }

func (b *systemBackend) poll(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			img := clipboard.Read(clipboard.FmtImage)

			b.mu.Lock()
			if !bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg) {
				b.lastText = text
				b.lastImg = img
				b.count++
			}
			b.mu.Unlock()
		}
	}
}

func (b *systemBackend) ChangeCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *systemBackend) ReadItems() ([]RepresentationMap, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := RepresentationMap{}
	if len(b.lastText) > 0 {
		item[FormatText] = append([]byte(nil), b.lastText...)
	}
	if len(b.lastImg) > 0 {
		item[FormatImage] = append([]byte(nil), b.lastImg...)
	}
	if len(item) == 0 {
		return nil, nil
	}
	return []RepresentationMap{item}, nil
}

func (b *systemBackend) WriteItems(items []RepresentationMap) (uint64, error) {
	var text, img []byte
	for _, item := range items {
		for format, data := range item {
			switch {
			case isTextFormat(format):
				if text == nil {
					text = data
				}
			case format == FormatImage:
				if img == nil {
					img = data
				}
			case format == FormatSourceApp:
				// never written back
			default:
				slog.Debug("skipping unsupported clipboard format", "format", format)
			}
		}
	}
	if text == nil && img == nil {
		return 0, fmt.Errorf("no writable representation in payload")
	}

	// golang.design/x/clipboard replaces the previous contents on write, so
	// the clear-then-write transaction collapses into the write calls.
	if text != nil {
		clipboard.Write(clipboard.FmtText, text)
	}
	if img != nil {
		clipboard.Write(clipboard.FmtImage, img)
	}

	// Record what was written so the poll attributes no further change to
	// this transaction.
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastText = text
	b.lastImg = img
	b.count++
	return b.count, nil
}

func (b *systemBackend) Close() { close(b.done) }
