// Package marctest builds synthetic binary MARC records for tests.
package marctest

import (
	"bytes"
	"fmt"
)

const (
	fieldTerminator   = 0x1e
	recordTerminator  = 0x1d
	subfieldDelimiter = 0x1f
)

// Subfield is one (code, value) pair of a data field to build.
type Subfield struct {
	Code  byte
	Value string
}

// Field specifies one field of a synthetic record. Control fields set Value;
// data fields set Subfields (and optionally indicators, defaulting to blanks).
type Field struct {
	Tag       string
	Value     string
	Ind1      byte
	Ind2      byte
	Subfields []Subfield
}

// Control describes a control field to build.
func Control(tag, value string) Field {
	return Field{Tag: tag, Value: value}
}

// Data describes a data field to build, with blank indicators.
func Data(tag string, subfields ...Subfield) Field {
	return Field{Tag: tag, Subfields: subfields}
}

// SF describes one subfield.
func SF(code byte, value string) Subfield {
	return Subfield{Code: code, Value: value}
}

// Build assembles a well-formed binary MARC record. The leader's
// character-coding flag is 'a' (UTF-8) when utf8 is true, blank (MARC-8)
// otherwise.
func Build(utf8 bool, fields ...Field) []byte {
	var dataArea bytes.Buffer
	var directory bytes.Buffer

	offset := 0
	for _, f := range fields {
		encoded := encodeField(f)
		directory.WriteString(fmt.Sprintf("%s%04d%05d", f.Tag, len(encoded), offset))
		dataArea.Write(encoded)
		offset += len(encoded)
	}

	base := 24 + directory.Len() + 1
	total := base + dataArea.Len() + 1

	flag := byte(' ')
	if utf8 {
		flag = 'a'
	}

	leader := fmt.Sprintf("%05dnam %c22%05d   4500", total, flag, base)

	var rec bytes.Buffer
	rec.WriteString(leader)
	rec.Write(directory.Bytes())
	rec.WriteByte(fieldTerminator)
	rec.Write(dataArea.Bytes())
	rec.WriteByte(recordTerminator)
	return rec.Bytes()
}

func encodeField(f Field) []byte {
	var b bytes.Buffer
	if len(f.Subfields) == 0 {
		b.WriteString(f.Value)
		b.WriteByte(fieldTerminator)
		return b.Bytes()
	}

	ind1, ind2 := f.Ind1, f.Ind2
	if ind1 == 0 {
		ind1 = ' '
	}
	if ind2 == 0 {
		ind2 = ' '
	}
	b.WriteByte(ind1)
	b.WriteByte(ind2)
	for _, sf := range f.Subfields {
		b.WriteByte(subfieldDelimiter)
		b.WriteByte(sf.Code)
		b.WriteString(sf.Value)
	}
	b.WriteByte(fieldTerminator)
	return b.Bytes()
}

// BuildBook assembles a minimal book record with the given title and
// optional author, the shape most pipeline tests need.
func BuildBook(title, author string, extra ...Field) []byte {
	fields := []Field{
		Control("008", "850101s1985    nyu           000 0 eng  "),
	}
	if author != "" {
		fields = append(fields, Data("100", SF('a', author)))
	}
	fields = append(fields, Data("245", SF('a', title)))
	fields = append(fields, extra...)
	return Build(true, fields...)
}
