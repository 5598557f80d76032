package clipboard

import (
	"encoding/json"
	"fmt"
)

// The persisted payload blob has two encodings:
//
//	current — JSON array of representation maps, one per logical item
//	legacy  — JSON object, a single representation map (pre multi-item)
//
// Values are base64 strings, which encoding/json produces for []byte, so
// binary representations are safe inside the blob.

// ArchiveVersion tags which encoding a decoded blob carried.
type ArchiveVersion int

const (
	ArchiveCurrent ArchiveVersion = iota
	ArchiveLegacy
)

// Archive is a decoded payload blob.
type Archive struct {
	Version ArchiveVersion
	Items   []RepresentationMap
}

// EncodeArchive serializes a payload in the current encoding.
func EncodeArchive(items []RepresentationMap) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("refusing to encode empty payload")
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return data, nil
}

// DecodeArchive runs the detector chain: current list-of-maps first, then
// the legacy single map. Blobs matching neither return an error and the
// caller falls back to plain text.
func DecodeArchive(blob []byte) (Archive, error) {
	var items []RepresentationMap
	if err := json.Unmarshal(blob, &items); err == nil && len(items) > 0 {
		return Archive{Version: ArchiveCurrent, Items: items}, nil
	}

	var single RepresentationMap
	if err := json.Unmarshal(blob, &single); err == nil && len(single) > 0 {
		return Archive{Version: ArchiveLegacy, Items: []RepresentationMap{single}}, nil
	}

	return Archive{}, fmt.Errorf("payload blob matches no known encoding")
}
