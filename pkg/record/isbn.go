package record

import (
	"strings"
)

// CleanISBN extracts the bare identifier from a MARC 020 value, which may
// carry qualifiers and an appended price suffix: "0140441166 (pbk.) :
// $4.95" yields "0140441166". Returns "" when no plausible ISBN remains.
func CleanISBN(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// First whitespace-delimited token is the identifier; everything after
	// is qualifier or price.
	token := raw
	if i := strings.IndexAny(raw, " ("); i >= 0 {
		token = raw[:i]
	}
	token = strings.ReplaceAll(token, "-", "")
	token = strings.TrimRight(token, ".:;")

	switch len(token) {
	case 10, 13:
	default:
		return ""
	}
	for i, c := range token {
		if c >= '0' && c <= '9' {
			continue
		}
		// ISBN-10 check digit may be X.
		if len(token) == 10 && i == 9 && (c == 'X' || c == 'x') {
			continue
		}
		return ""
	}
	return strings.ToUpper(token)
}

// ISBN10To13 converts a bare ISBN-10 to its ISBN-13 form, or returns ""
// when the input is not a valid-length ISBN-10.
func ISBN10To13(isbn10 string) string {
	if len(isbn10) != 10 {
		return ""
	}
	core := "978" + isbn10[:9]
	sum := 0
	for i, c := range core {
		d := int(c - '0')
		if d < 0 || d > 9 {
			return ""
		}
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return core + string(rune('0'+check))
}

// ISBN13To10 converts a 978-prefixed ISBN-13 to its ISBN-10 form, or
// returns "" when no ISBN-10 form exists.
func ISBN13To10(isbn13 string) string {
	if len(isbn13) != 13 || !strings.HasPrefix(isbn13, "978") {
		return ""
	}
	core := isbn13[3:12]
	sum := 0
	for i, c := range core {
		d := int(c - '0')
		if d < 0 || d > 9 {
			return ""
		}
		sum += d * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return core + "X"
	}
	return core + string(rune('0'+check))
}

// CleanLCCN normalizes a MARC 010 value: surrounding whitespace removed,
// internal spaces dropped, any "/revised" suffix discarded.
func CleanLCCN(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	return strings.ReplaceAll(raw, " ", "")
}

// CleanOCLC extracts the bare OCLC number from a MARC 035 value, stripping
// the "(OCoLC)" source prefix and legacy "ocm"/"ocn"/"on" prefixes.
// Returns "" when the value is not an OCLC number at all.
func CleanOCLC(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "(") {
		end := strings.IndexByte(raw, ')')
		if end < 0 {
			return ""
		}
		source := strings.ToLower(raw[1:end])
		if source != "ocolc" {
			return ""
		}
		raw = raw[end+1:]
	}
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"ocm", "ocn", "on"} {
		if strings.HasPrefix(lower, prefix) {
			raw = raw[len(prefix):]
			break
		}
	}
	raw = strings.TrimLeft(raw, "0")
	for _, c := range raw {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return raw
}
