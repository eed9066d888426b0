package marc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestDecodeTextUTF8IsNFC(t *testing.T) {
	// "é" as decomposed e + combining acute must compose.
	decomposed := []byte("Caf\x65\xcc\x81")
	got, err := decodeText(decomposed, true)
	require.NoError(t, err)
	assert.Equal(t, "Café", got)
	assert.True(t, norm.NFC.IsNormalString(got))
}

func TestDecodeMARC8SpacingCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "ascii passthrough", in: []byte("plain text"), want: "plain text"},
		{name: "l with stroke", in: []byte{0xb1, 'o', 'd', 'z'}, want: "łodz"},
		{name: "ae ligature", in: []byte{0xb5, 's', 'o', 'p'}, want: "æsop"},
		{name: "unmapped byte dropped", in: []byte{'a', 0x8f, 'b'}, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.in, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMARC8CombiningReorder(t *testing.T) {
	// MARC-8 places the acute before the base "e"; the decoded text must
	// carry the precomposed form.
	in := []byte{'C', 'a', 'f', 0xe2, 'e'}
	got, err := decodeText(in, false)
	require.NoError(t, err)
	assert.Equal(t, "Café", got)
	assert.True(t, norm.NFC.IsNormalString(got))
}

func TestDecodeMARC8StripsEscapes(t *testing.T) {
	// ESC ( B selects basic latin; the sequence itself must not survive.
	in := []byte{0x1b, '(', 'B', 'p', 'l', 'a', 'i', 'n'}
	got, err := decodeText(in, false)
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	// Truncated escape at end of input must not panic or leak bytes.
	in = []byte{'x', 0x1b, '('}
	got, err = decodeText(in, false)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestDecodeTextRepairsMislabeledUTF8(t *testing.T) {
	// Leader says UTF-8 but the bytes are MARC-8: repair, don't fail.
	in := []byte{'B', 0xb2, 'k'} // "Bøk" in ANSEL
	got, err := decodeText(in, true)
	require.NoError(t, err)
	assert.Equal(t, "Bøk", got)
}

func TestDecodeMARC8OrphanCombining(t *testing.T) {
	got, err := decodeText([]byte{0xe2}, false)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
