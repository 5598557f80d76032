package clipboard

import (
	"fmt"
	"strings"
	"time"
)

// Format identifiers used across backends. Backends translate their native
// clipboard types to and from these.
const (
	FormatText     = "text/plain"
	FormatImage    = "image/png"
	FormatFileList = "text/uri-list"

	// FormatSourceApp is a pseudo-format carrying the identifier of the
	// application that put the payload on the clipboard. It is stored with
	// the entry but excluded from fingerprints and never written back.
	FormatSourceApp = "application/x-clipvault-source"
)

// RepresentationMap holds every representation of one logical clipboard
// item, keyed by format identifier.
type RepresentationMap map[string][]byte

// Kind classifies a captured payload. Derived once at capture time and
// never recomputed.
type Kind string

const (
	KindPlainText     Kind = "text"
	KindFileReference Kind = "file"
	KindImage         Kind = "image"
	KindOpaque        Kind = "opaque"
)

// CaptureEvent is one observed clipboard change: the full multi-item payload
// plus derived metadata.
type CaptureEvent struct {
	Representations []RepresentationMap
	DisplayText     string
	Kind            Kind
	SourceApp       string
	CapturedAt      time.Time
}

// Classify derives the content kind for a full payload. Image wins over
// file references, which win over plain text; anything else is opaque.
func Classify(items []RepresentationMap) Kind {
	kinds := map[Kind]bool{}
	for _, item := range items {
		kinds[classifyItem(item)] = true
	}
	switch {
	case kinds[KindImage]:
		return KindImage
	case kinds[KindFileReference]:
		return KindFileReference
	case kinds[KindPlainText]:
		return KindPlainText
	default:
		return KindOpaque
	}
}

func classifyItem(item RepresentationMap) Kind {
	for format := range item {
		if strings.HasPrefix(format, "image/") {
			return KindImage
		}
	}
	for format := range item {
		if format == FormatFileList {
			return KindFileReference
		}
	}
	for format := range item {
		if isTextFormat(format) {
			return KindPlainText
		}
	}
	return KindOpaque
}

func isTextFormat(format string) bool {
	return format == FormatText || strings.HasPrefix(format, FormatText+";")
}

// DisplayText returns the first plain-text representation found across
// items, or a generated placeholder when none exists.
func DisplayText(items []RepresentationMap, kind Kind, at time.Time) string {
	for _, item := range items {
		if text, ok := textRepresentation(item); ok {
			return text
		}
	}
	label := "Item"
	switch kind {
	case KindImage:
		label = "Image"
	case KindFileReference:
		label = "Files"
	}
	return fmt.Sprintf("%s %s", label, at.Format("2006-01-02 15:04:05"))
}

func textRepresentation(item RepresentationMap) (string, bool) {
	if data, ok := item[FormatText]; ok && len(data) > 0 {
		return string(data), true
	}
	for format, data := range item {
		if isTextFormat(format) && len(data) > 0 {
			return string(data), true
		}
	}
	return "", false
}

// SourceApp extracts the declared source application from a payload, if any
// item carries the source pseudo-format.
func SourceApp(items []RepresentationMap) string {
	for _, item := range items {
		if app, ok := item[FormatSourceApp]; ok && len(app) > 0 {
			return string(app)
		}
	}
	return ""
}

// Size returns the total byte size of a payload across all representations.
func Size(items []RepresentationMap) int {
	var n int
	for _, item := range items {
		for _, data := range item {
			n += len(data)
		}
	}
	return n
}

func cloneItems(items []RepresentationMap) []RepresentationMap {
	if items == nil {
		return nil
	}
	out := make([]RepresentationMap, 0, len(items))
	for _, item := range items {
		m := make(RepresentationMap, len(item))
		for format, data := range item {
			buf := make([]byte, len(data))
			copy(buf, data)
			m[format] = buf
		}
		out = append(out, m)
	}
	return out
}
