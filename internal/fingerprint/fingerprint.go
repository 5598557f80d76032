// Package fingerprint derives the dedup key for a captured payload.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"clipvault/internal/clipboard"
)

// TextPrefix marks fingerprints derived from canonical text.
const TextPrefix = "text:"

var horizontalWhitespace = regexp.MustCompile(`[^\S\n]+`)

// Compute maps a payload to its dedup key. Payloads with a non-empty
// canonical text form get "text:" + the normalized text, so visually
// identical text dedups regardless of incidental whitespace. Everything
// else gets a content hash that is independent of the order representation
// keys were enumerated at capture time.
func Compute(items []clipboard.RepresentationMap) string {
	if text, ok := canonicalText(items); ok {
		return TextPrefix + text
	}
	return contentHash(items)
}

func canonicalText(items []clipboard.RepresentationMap) (string, bool) {
	for _, item := range items {
		for _, format := range sortedKeys(item) {
			if format != clipboard.FormatText && !strings.HasPrefix(format, clipboard.FormatText+";") {
				continue
			}
			if normalized := Normalize(string(item[format])); normalized != "" {
				return normalized, true
			}
		}
	}
	return "", false
}

// Normalize unifies line endings, collapses tabs and runs of horizontal
// whitespace to single spaces, and trims.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// contentHash streams every representation into a SHA-256 in a deterministic
// order: items in capture order, keys sorted ascending within each item, the
// source pseudo-format excluded.
func contentHash(items []clipboard.RepresentationMap) string {
	hasher := sha256.New()
	for _, item := range items {
		for _, format := range sortedKeys(item) {
			if format == clipboard.FormatSourceApp {
				continue
			}
			hasher.Write([]byte(format))
			hasher.Write(item[format])
		}
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func sortedKeys(item clipboard.RepresentationMap) []string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
