package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare isbn10", in: "0140441166", want: "0140441166"},
		{name: "price suffix stripped", in: "0140441166 : $4.95", want: "0140441166"},
		{name: "qualifier stripped", in: "0140441166 (pbk.)", want: "0140441166"},
		{name: "qualifier without space", in: "0140441166(pbk.)", want: "0140441166"},
		{name: "hyphenated", in: "0-14-044116-6", want: "0140441166"},
		{name: "isbn13", in: "9780140441161", want: "9780140441161"},
		{name: "check digit x", in: "080442957X", want: "080442957X"},
		{name: "lowercase x uppercased", in: "080442957x", want: "080442957X"},
		{name: "garbage", in: "not an isbn", want: ""},
		{name: "wrong length", in: "12345", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanISBN(tt.in))
		})
	}
}

func TestISBNConversion(t *testing.T) {
	assert.Equal(t, "9780140441161", ISBN10To13("0140441166"))
	assert.Equal(t, "0140441166", ISBN13To10("9780140441161"))

	// Round trip.
	assert.Equal(t, "080442957X", ISBN13To10(ISBN10To13("080442957X")))

	// 979-prefixed ISBN-13s have no ISBN-10 form.
	assert.Equal(t, "", ISBN13To10("9791234567896"))
	assert.Equal(t, "", ISBN10To13("bogus"))
}

func TestCleanLCCN(t *testing.T) {
	assert.Equal(t, "85012345", CleanLCCN("   85012345 "))
	assert.Equal(t, "85012345", CleanLCCN("85 012345"))
	assert.Equal(t, "sn85012345", CleanLCCN("sn85012345 /r86"))
}

func TestCleanOCLC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "(OCoLC)12345678", want: "12345678"},
		{in: "(OCoLC)ocm12345678", want: "12345678"},
		{in: "ocn987654321", want: "987654321"},
		{in: "(OCoLC)00012345", want: "12345"},
		{in: "(DLC)12345", want: ""}, // different source
		{in: "not a number", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanOCLC(tt.in))
		})
	}
}
