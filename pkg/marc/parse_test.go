package marc_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/marctest"
	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/marc"
)

func TestParseRoundTrip(t *testing.T) {
	// For any well-formed record, Parse recovers every subfield verbatim.
	fields := []marctest.Field{
		marctest.Control("001", "ocm12345678"),
		marctest.Control("008", "850101s1985    nyu           000 0 eng  "),
		marctest.Data("020", marctest.SF('a', "0140441166")),
		marctest.Data("100", marctest.SF('a', "Tolstoy, Leo,"), marctest.SF('d', "1828-1910.")),
		marctest.Data("245",
			marctest.SF('a', "War and peace /"),
			marctest.SF('c', "Leo Tolstoy."),
		),
		marctest.Data("650", marctest.SF('a', "Napoleonic Wars, 1800-1815")),
		marctest.Data("650", marctest.SF('a', "Russia -- History")),
	}

	rec, err := marc.Parse(marctest.Build(true, fields...))
	require.NoError(t, err)
	require.Len(t, rec.Fields, len(fields))

	for i, want := range fields {
		got := rec.Fields[i]
		assert.Equal(t, want.Tag, got.Tag)
		if len(want.Subfields) == 0 {
			assert.Equal(t, want.Value, got.Value)
			continue
		}
		require.NotNil(t, got.Data)
		require.Len(t, got.Data.Subfields, len(want.Subfields))
		for j, sf := range want.Subfields {
			assert.Equal(t, sf.Code, got.Data.Subfields[j].Code)
			assert.Equal(t, sf.Value, got.Data.Subfields[j].Value)
		}
	}
}

func TestParseBadLength(t *testing.T) {
	data := marctest.Build(true, marctest.Data("245", marctest.SF('a', "Test item")))

	truncated := data[:len(data)-3]
	_, err := marc.Parse(truncated)
	require.Error(t, err)
	assert.True(t, errors.IsBadRecord(err))
	assert.ErrorIs(t, err, errors.ErrBadLength)

	// Non-numeric length prefix.
	garbled := append([]byte("abcde"), data[5:]...)
	_, err = marc.Parse(garbled)
	assert.ErrorIs(t, err, errors.ErrBadLength)
}

func TestParseBadDirectory(t *testing.T) {
	data := marctest.Build(true, marctest.Data("245", marctest.SF('a', "Test item")))

	// Shift the directory terminator so the directory is no longer a
	// multiple of 12, keeping total length intact.
	idx := bytes.IndexByte(data[24:], 0x1e) + 24
	corrupt := append([]byte(nil), data...)
	corrupt[idx] = 'x'
	corrupt[idx-3] = 0x1e
	// Base address still points at the original terminator position, which
	// no longer holds one: force the rescan path too.
	copy(corrupt[12:17], []byte("00000"))

	_, err := marc.Parse(corrupt)
	require.Error(t, err)
	assert.True(t, errors.IsBadRecord(err))
}

func TestParseNoTerminator(t *testing.T) {
	data := marctest.Build(true, marctest.Data("245", marctest.SF('a', "Test item")))
	corrupt := append([]byte(nil), data...)
	copy(corrupt[12:17], []byte("99999")) // unusable base address
	for i := 24; i < len(corrupt); i++ {
		if corrupt[i] == 0x1e {
			corrupt[i] = ' '
		}
	}

	_, err := marc.Parse(corrupt)
	require.Error(t, err)
	assert.True(t, errors.IsBadRecord(err))
}

func TestParseRepairsOffByOneOffset(t *testing.T) {
	data := marctest.Build(true,
		marctest.Data("245", marctest.SF('a', "Test item")),
		marctest.Data("260", marctest.SF('b', "Penguin")),
	)

	// Nudge the second directory entry's offset forward by one, a common
	// drift in records re-encoded by legacy systems.
	entry := 24 + 12 // second entry
	corrupt := append([]byte(nil), data...)
	corrupt[entry+11]++ // offset "00014" -> "00015"

	rec, err := marc.Parse(corrupt)
	require.NoError(t, err)

	got, ok := rec.Subfield("260", 'b')
	require.True(t, ok)
	assert.Contains(t, got, "Penguin")
}

func TestParseSkipsEmptySubfieldSegments(t *testing.T) {
	// Hand-build a 245 whose content carries a doubled subfield delimiter.
	raw := marctest.Build(true, marctest.Data("245",
		marctest.SF('a', "Test item"),
		marctest.SF('b', ""),
	))

	rec, err := marc.Parse(raw)
	require.NoError(t, err)
	f := rec.Field("245")
	require.NotNil(t, f)
	// The empty $b survives as a coded subfield with empty value; a fully
	// empty segment (no code byte) is dropped.
	title, ok := f.Data.Subfield('a')
	require.True(t, ok)
	assert.Equal(t, "Test item", title)
}

func TestParseWrappedField(t *testing.T) {
	// A 505 contents note longer than the 9999-byte directory ceiling is
	// split across two directory entries sharing the tag.
	long := bytes.Repeat([]byte("chapter listing "), 700) // > 9999 bytes

	head := append([]byte{' ', ' ', 0x1f, 'a'}, long[:9999-4]...)
	tail := append([]byte{' ', ' '}, long[9999-4:]...)
	tail = append(tail, 0x1e)

	var directory bytes.Buffer
	var dataArea bytes.Buffer
	title := []byte{' ', ' ', 0x1f, 'a', 'T', 'e', 's', 't', 0x1e}
	directory.WriteString("2450009" + "00000")
	dataArea.Write(title)
	directory.WriteString("5059999" + formatLen5(len(title)))
	dataArea.Write(head)
	directory.WriteString("505" + formatLen4(len(tail)) + formatLen5(len(title)+len(head)))
	dataArea.Write(tail)

	base := 24 + directory.Len() + 1
	total := base + dataArea.Len() + 1
	leader := []byte(formatLen5(total) + "nam a22" + formatLen5(base) + "   4500")

	var rec bytes.Buffer
	rec.Write(leader)
	rec.Write(directory.Bytes())
	rec.WriteByte(0x1e)
	rec.Write(dataArea.Bytes())
	rec.WriteByte(0x1d)

	parsed, err := marc.Parse(rec.Bytes())
	require.NoError(t, err)

	notes := parsed.FieldsByTag("505")
	require.Len(t, notes, 1, "wrapped segments must reassemble into one logical field")
	note, ok := notes[0].Data.Subfield('a')
	require.True(t, ok)
	assert.Equal(t, string(long), note)
}

func TestParseLinkedAlternateScript(t *testing.T) {
	data := marctest.Build(true,
		marctest.Data("245",
			marctest.SF('6', "880-01"),
			marctest.SF('a', "Voina i mir"),
		),
		marctest.Data("880",
			marctest.SF('6', "245-01/(N"),
			marctest.SF('a', "Война и миръ"),
		),
	)

	rec, err := marc.Parse(data)
	require.NoError(t, err)

	title := rec.Field("245")
	require.NotNil(t, title)

	alt := rec.Linked(title)
	require.NotNil(t, alt, "linkage token must resolve the 880 field")
	got, ok := alt.Data.Subfield('a')
	require.True(t, ok)
	assert.Equal(t, "Война и миръ", got)

	// A field without $6 has no linked alternate.
	assert.Nil(t, rec.Linked(rec.Field("880")))
}

func TestParseNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("0"),
		[]byte("00024"),
		bytes.Repeat([]byte{0x1e}, 40),
		bytes.Repeat([]byte("9"), 64),
		append([]byte("00040nam a2200000   4500"), bytes.Repeat([]byte{0xff}, 16)...),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, _ = marc.Parse(in) //nolint:errcheck // only panic safety matters here
		})
	}
}

func formatLen4(n int) string {
	s := "0000" + itoa(n)
	return s[len(s)-4:]
}

func formatLen5(n int) string {
	s := "00000" + itoa(n)
	return s[len(s)-5:]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
