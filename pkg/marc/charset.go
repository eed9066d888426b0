package marc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// decodeText converts raw field bytes to NFC-normalized text. The leader's
// character-coding flag selects between direct UTF-8 and the legacy MARC-8
// encoding, which needs a two-stage decode: escape-sequence normalization,
// then byte-to-codepoint mapping.
func decodeText(data []byte, isUTF8 bool) (string, error) {
	if isUTF8 {
		if utf8.Valid(data) {
			return norm.NFC.String(string(data)), nil
		}
		// Legacy artifact: records flagged UTF-8 occasionally carry
		// MARC-8 bytes. Repair rather than fail.
		return decodeMARC8(data), nil
	}
	return decodeMARC8(data), nil
}

// decodeMARC8 maps a MARC-8 byte sequence to NFC-normalized text.
func decodeMARC8(data []byte) string {
	stripped := stripEscapes(data)

	var b strings.Builder
	b.Grow(len(stripped))

	// MARC-8 combining diacritics precede their base character; Unicode
	// combining marks follow it. Pending marks are emitted after the next
	// base character.
	var pending []rune

	for _, c := range stripped {
		if c < 0x80 {
			b.WriteByte(c)
			for _, m := range pending {
				b.WriteRune(m)
			}
			pending = pending[:0]
			continue
		}
		if mark, ok := marc8Combining[c]; ok {
			pending = append(pending, mark)
			continue
		}
		if r, ok := marc8Spacing[c]; ok {
			b.WriteRune(r)
			for _, m := range pending {
				b.WriteRune(m)
			}
			pending = pending[:0]
			continue
		}
		// Unmapped byte: drop it rather than emit mojibake.
	}
	// Orphaned combining marks with no base character are dropped.

	return norm.NFC.String(b.String())
}

// stripEscapes removes ISO 2022 escape sequences used by MARC-8 to switch
// graphic character sets. The sequences are ESC, zero or more intermediate
// bytes from "()$,-", and one final byte.
func stripEscapes(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != 0x1b {
			out = append(out, data[i])
			continue
		}
		j := i + 1
		for j < len(data) && strings.IndexByte("()$,-", data[j]) >= 0 {
			j++
		}
		if j < len(data) {
			j++ // final byte
		}
		i = j - 1
	}
	return out
}

// marc8Spacing maps ANSEL spacing characters to their Unicode equivalents.
var marc8Spacing = map[byte]rune{
	0xa1: 'Ł', // L with stroke
	0xa2: 'Ø', // O with stroke
	0xa3: 'Đ', // D with stroke
	0xa4: 'Þ', // thorn
	0xa5: 'Æ', // AE
	0xa6: 'Œ', // OE
	0xa7: 'ʹ', // modifier prime (soft sign)
	0xa8: '·', // middle dot
	0xa9: '♭', // music flat
	0xaa: '®', // registered
	0xab: '±', // plus-minus
	0xac: 'Ơ', // O with horn
	0xad: 'Ư', // U with horn
	0xae: 'ʼ', // apostrophe (alif)
	0xb0: 'ʻ', // ayn
	0xb1: 'ł', // l with stroke
	0xb2: 'ø', // o with stroke
	0xb3: 'đ', // d with stroke
	0xb4: 'þ', // thorn
	0xb5: 'æ', // ae
	0xb6: 'œ', // oe
	0xb7: 'ʺ', // modifier double prime (hard sign)
	0xb8: 'ı', // dotless i
	0xb9: '£', // pound
	0xba: 'ð', // eth
	0xbc: 'ơ', // o with horn
	0xbd: 'ư', // u with horn
	0xc0: '°', // degree
	0xc1: 'ℓ', // script l
	0xc2: '℗', // sound recording copyright
	0xc3: '©', // copyright
	0xc4: '♯', // music sharp
	0xc5: '¿', // inverted question mark
	0xc6: '¡', // inverted exclamation
	0xc7: 'ß', // sharp s
	0xc8: '€', // euro
}

// marc8Combining maps ANSEL combining diacritics to Unicode combining marks.
var marc8Combining = map[byte]rune{
	0xe0: '̉', // hook above
	0xe1: '̀', // grave
	0xe2: '́', // acute
	0xe3: '̂', // circumflex
	0xe4: '̃', // tilde
	0xe5: '̄', // macron
	0xe6: '̆', // breve
	0xe7: '̇', // dot above
	0xe8: '̈', // diaeresis
	0xe9: '̌', // caron
	0xea: '̊', // ring above
	0xeb: '︠', // ligature left half
	0xec: '︡', // ligature right half
	0xed: '̕', // comma above right
	0xee: '̋', // double acute
	0xef: '̐', // candrabindu
	0xf0: '̧', // cedilla
	0xf1: '̨', // ogonek
	0xf2: '̣', // dot below
	0xf3: '̤', // diaeresis below
	0xf4: '̥', // ring below
	0xf5: '̳', // double underscore
	0xf6: '̲', // underscore
	0xf7: '̦', // comma below
	0xf8: '̜', // left half ring below
	0xf9: '̮', // breve below
	0xfa: '︢', // double tilde left half
	0xfb: '︣', // double tilde right half
	0xfe: '̓', // comma above
}
