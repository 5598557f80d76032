package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipvault/internal/clipboard"
)

func textPayload(s string) []clipboard.RepresentationMap {
	return []clipboard.RepresentationMap{
		{clipboard.FormatText: []byte(s)},
	}
}

func TestComputeCanonicalText(t *testing.T) {
	require.Equal(t, "text:Hello", Compute(textPayload("Hello")))
	require.Equal(t, "text:Hello", Compute(textPayload("Hello ")))
	require.Equal(t, "text:Hello", Compute(textPayload("  Hello")))
}

func TestComputeUnifiesLineEndings(t *testing.T) {
	unix := Compute(textPayload("line one\nline two"))
	dos := Compute(textPayload("line one\r\nline two"))
	mac := Compute(textPayload("line one\rline two"))

	require.Equal(t, unix, dos)
	require.Equal(t, unix, mac)
}

func TestComputeCollapsesWhitespaceRuns(t *testing.T) {
	require.Equal(t, "text:a b", Compute(textPayload("a\tb")))
	require.Equal(t, "text:a b", Compute(textPayload("a   b")))
	require.Equal(t, "text:a b", Compute(textPayload("a \t b")))
}

func TestComputeBlankTextFallsThroughToHash(t *testing.T) {
	items := []clipboard.RepresentationMap{
		{
			clipboard.FormatText: []byte("   \t  "),
			"application/x-blob": []byte{0x01, 0x02},
		},
	}
	fp := Compute(items)
	assert.False(t, strings.HasPrefix(fp, TextPrefix))
	assert.Len(t, fp, 64) // hex SHA-256
}

func TestComputeHashDeterministic(t *testing.T) {
	a := []clipboard.RepresentationMap{
		{clipboard.FormatImage: []byte{0xde, 0xad}, "image/tiff": []byte{0xbe, 0xef}},
	}
	b := []clipboard.RepresentationMap{
		{"image/tiff": []byte{0xbe, 0xef}, clipboard.FormatImage: []byte{0xde, 0xad}},
	}

	require.Equal(t, Compute(a), Compute(b))
	assert.False(t, strings.HasPrefix(Compute(a), TextPrefix))

	changed := []clipboard.RepresentationMap{
		{clipboard.FormatImage: []byte{0xde, 0xae}, "image/tiff": []byte{0xbe, 0xef}},
	}
	require.NotEqual(t, Compute(a), Compute(changed))
}

func TestComputeHashIgnoresSourceMetadata(t *testing.T) {
	plain := []clipboard.RepresentationMap{
		{clipboard.FormatImage: []byte{0x01}},
	}
	tagged := []clipboard.RepresentationMap{
		{
			clipboard.FormatImage:     []byte{0x01},
			clipboard.FormatSourceApp: []byte("com.example.editor"),
		},
	}
	require.Equal(t, Compute(plain), Compute(tagged))
}

func TestComputeItemOrderIsPartOfContent(t *testing.T) {
	a := clipboard.RepresentationMap{clipboard.FormatImage: []byte{0x01}}
	b := clipboard.RepresentationMap{clipboard.FormatImage: []byte{0x02}}

	require.NotEqual(t,
		Compute([]clipboard.RepresentationMap{a, b}),
		Compute([]clipboard.RepresentationMap{b, a}),
	)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "Hello"},
		{"Hello \n", "Hello"},
		{"a\r\nb\rc", "a\nb\nc"},
		{"\t a \t b \t", "a b"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}
