// Package marc decodes binary MARC-21 bibliographic records into a logical
// field/subfield tree. Decoding is pure: no I/O, no panics on arbitrary
// input, and typed errors for every failure mode.
package marc

import (
	"strings"
)

// Structural byte values of the ISO 2709 wire format.
const (
	// LeaderLength is the fixed size of the record leader.
	LeaderLength = 24

	// DirectoryEntryLength is the fixed size of one directory entry:
	// 3-char tag, 4-digit length, 5-digit offset.
	DirectoryEntryLength = 12

	// FieldTerminator ends every field's data.
	FieldTerminator = 0x1e

	// RecordTerminator ends the whole record.
	RecordTerminator = 0x1d

	// SubfieldDelimiter separates subfield segments within a data field.
	SubfieldDelimiter = 0x1f

	// MaxFieldLength is the directory length ceiling. Fields longer than
	// this are wrapped across multiple directory entries sharing one tag.
	MaxFieldLength = 9999
)

// Subfield is one labelled sub-value within a data field.
type Subfield struct {
	Code  byte
	Value string
}

// DataField carries two one-character indicators and an ordered sequence
// of subfields.
type DataField struct {
	Ind1      byte
	Ind2      byte
	Subfields []Subfield
}

// Subfield returns the value of the first subfield with the given code
// and whether one was present.
func (d *DataField) Subfield(code byte) (string, bool) {
	for _, sf := range d.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// SubfieldValues returns the values of every subfield with the given code,
// in field order.
func (d *DataField) SubfieldValues(code byte) []string {
	var values []string
	for _, sf := range d.Subfields {
		if sf.Code == code {
			values = append(values, sf.Value)
		}
	}
	return values
}

// Field is one (tag, content) pair of a record. Control fields (tags
// beginning "00") carry raw text in Value; all other fields carry Data.
type Field struct {
	Tag   string
	Value string     // control fields only
	Data  *DataField // data fields only
}

// IsControl reports whether the field is a control field.
func (f *Field) IsControl() bool {
	return strings.HasPrefix(f.Tag, "00")
}

// Record is the decoded form of one binary MARC record: the 24-byte leader
// plus an ordered sequence of fields.
type Record struct {
	Leader string
	Fields []Field
}

// Field returns the first field with the given tag, or nil.
func (r *Record) Field(tag string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Tag == tag {
			return &r.Fields[i]
		}
	}
	return nil
}

// FieldsByTag returns every field with the given tag, in record order.
func (r *Record) FieldsByTag(tag string) []*Field {
	var fields []*Field
	for i := range r.Fields {
		if r.Fields[i].Tag == tag {
			fields = append(fields, &r.Fields[i])
		}
	}
	return fields
}

// Subfield returns the first value of the given subfield code under the
// first field with the given tag.
func (r *Record) Subfield(tag string, code byte) (string, bool) {
	f := r.Field(tag)
	if f == nil || f.Data == nil {
		return "", false
	}
	return f.Data.Subfield(code)
}

// Linked resolves the alternate-script field linked to f. A field declares
// linkage through subfield $6 carrying an occurrence token of the form
// "880-NN"; the matching 880 field carries "TAG-NN" in its own $6, where TAG
// is f's tag. Returns nil when f declares no linkage or no 880 field matches.
func (r *Record) Linked(f *Field) *Field {
	if f == nil || f.Data == nil {
		return nil
	}
	link, ok := f.Data.Subfield('6')
	if !ok {
		return nil
	}
	// "880-01" -> occurrence "01"
	parts := strings.SplitN(link, "-", 2)
	if len(parts) != 2 {
		return nil
	}
	occurrence := parts[1]
	// Occurrence tokens may carry a trailing script code ("880-01/(2/r").
	if i := strings.IndexByte(occurrence, '/'); i >= 0 {
		occurrence = occurrence[:i]
	}
	want := f.Tag + "-" + occurrence

	for _, alt := range r.FieldsByTag("880") {
		if alt.Data == nil {
			continue
		}
		back, ok := alt.Data.Subfield('6')
		if !ok {
			continue
		}
		if i := strings.IndexByte(back, '/'); i >= 0 {
			back = back[:i]
		}
		if back == want {
			return alt
		}
	}
	return nil
}
