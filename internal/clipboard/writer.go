package clipboard

import (
	"fmt"
	"log/slog"
)

// Writer restores stored payloads back onto the OS clipboard.
type Writer struct {
	backend Backend
	watcher *Watcher // may be nil when no watcher is running
}

func NewWriter(backend Backend, watcher *Watcher) *Writer {
	return &Writer{backend: backend, watcher: watcher}
}

// Restore writes a stored payload blob back onto the clipboard. Decode
// failures degrade to writing displayText as a plain string, so a restore
// always produces something pasteable. The resulting change count is marked
// as seen on the watcher to prevent recapturing our own write.
func (w *Writer) Restore(blob []byte, displayText string) error {
	var items []RepresentationMap

	arc, err := DecodeArchive(blob)
	if err == nil {
		items = stripSourceApp(arc.Items)
	}
	if len(items) == 0 {
		slog.Debug("payload not restorable as archive, falling back to display text")
		items = []RepresentationMap{{FormatText: []byte(displayText)}}
	}

	count, err := w.backend.WriteItems(items)
	if err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	if w.watcher != nil {
		w.watcher.NoteWrite(count)
	}
	return nil
}

// stripSourceApp removes the source pseudo-format from every item so pasted
// content is not rejected or misread by consumers. Items left empty by the
// filter are dropped.
func stripSourceApp(items []RepresentationMap) []RepresentationMap {
	var out []RepresentationMap
	for _, item := range items {
		m := RepresentationMap{}
		for format, data := range item {
			if format == FormatSourceApp {
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
