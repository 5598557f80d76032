package clipboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterRestoreRoundTrip(t *testing.T) {
	b := NewMemoryBackend()
	writer := NewWriter(b, nil)

	original := []RepresentationMap{
		{
			FormatText:      []byte("hello"),
			FormatImage:     []byte{0x89, 0x50, 0x4e, 0x47},
			FormatSourceApp: []byte("com.example.editor"),
		},
	}
	blob, err := EncodeArchive(original)
	require.NoError(t, err)

	require.NoError(t, writer.Restore(blob, "hello"))

	restored, err := b.ReadItems()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, []byte("hello"), restored[0][FormatText])
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, restored[0][FormatImage])
	_, hasSource := restored[0][FormatSourceApp]
	assert.False(t, hasSource, "source pseudo-format must be filtered on restore")
}

func TestWriterRestoreLegacyArchive(t *testing.T) {
	b := NewMemoryBackend()
	writer := NewWriter(b, nil)

	blob, err := json.Marshal(RepresentationMap{FormatText: []byte("old")})
	require.NoError(t, err)

	require.NoError(t, writer.Restore(blob, "old"))

	restored, err := b.ReadItems()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, []byte("old"), restored[0][FormatText])
}

func TestWriterRestoreFallsBackToDisplayText(t *testing.T) {
	b := NewMemoryBackend()
	writer := NewWriter(b, nil)

	require.NoError(t, writer.Restore([]byte("garbage blob"), "the preview"))

	restored, err := b.ReadItems()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, []byte("the preview"), restored[0][FormatText])
}

func TestWriterRestoreFallsBackWhenOnlySourceMetadata(t *testing.T) {
	b := NewMemoryBackend()
	writer := NewWriter(b, nil)

	blob, err := EncodeArchive([]RepresentationMap{{FormatSourceApp: []byte("app")}})
	require.NoError(t, err)

	require.NoError(t, writer.Restore(blob, "preview"))

	restored, err := b.ReadItems()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, []byte("preview"), restored[0][FormatText])
}
