package marc

import (
	"bytes"
	"strconv"

	"github.com/openshelf/openshelf/pkg/errors"
)

// directoryEntry is one decoded (tag, length, offset) triple.
type directoryEntry struct {
	tag    string
	length int
	offset int
}

// segment is a raw field extracted from the field-data area, before
// wrapped-field reassembly and charset decoding.
type segment struct {
	tag        string
	data       []byte
	terminated bool // segment ended in a field terminator
	declared   int  // directory-declared length
}

// Parse decodes one binary MARC record. The input must be exactly one
// record: a 5-digit ASCII length prefix that equals len(data), a 24-byte
// leader, a directory of 12-byte entries, and the field-data area.
//
// Recoverable oddities (off-by-one directory offsets, stray wrapped-field
// continuations, legacy-encoding artifacts) are repaired defensively;
// structural problems fail with a typed error.
func Parse(data []byte) (*Record, error) {
	if len(data) < LeaderLength+1 {
		return nil, errors.NewParseError("length", -1, "record shorter than leader")
	}

	declared, err := strconv.Atoi(string(data[0:5]))
	if err != nil {
		return nil, errors.NewParseError("length", 0, "length prefix is not numeric")
	}
	if declared != len(data) {
		return nil, errors.NewParseError("length", 0,
			"declared length "+strconv.Itoa(declared)+" != actual "+strconv.Itoa(len(data)))
	}

	leader := string(data[0:LeaderLength])
	utf8 := leader[9] == 'a'

	directory, base, err := readDirectory(data, leader)
	if err != nil {
		return nil, err
	}

	segments := make([]segment, 0, len(directory))
	for _, entry := range directory {
		seg, err := extractField(data, base, entry)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	segments = reassembleWrapped(segments)

	rec := &Record{Leader: leader, Fields: make([]Field, 0, len(segments))}
	for _, seg := range segments {
		field, err := buildField(seg, utf8)
		if err != nil {
			return nil, err
		}
		if field != nil {
			rec.Fields = append(rec.Fields, *field)
		}
	}
	return rec, nil
}

// readDirectory locates and decodes the directory section. The base address
// in the leader is preferred; when it is unusable the directory end is
// re-located by scanning for the first field terminator.
func readDirectory(data []byte, leader string) ([]directoryEntry, int, error) {
	base, err := strconv.Atoi(leader[12:17])
	if err != nil || base <= LeaderLength || base > len(data) || data[base-1] != FieldTerminator {
		// Base address is unreliable. The directory ends at the first
		// field terminator after the leader.
		end := bytes.IndexByte(data[LeaderLength:], FieldTerminator)
		if end < 0 {
			return nil, 0, errors.NewParseError("terminator", LeaderLength,
				"no field terminator ends the directory")
		}
		base = LeaderLength + end + 1
	}

	dir := data[LeaderLength : base-1]
	if len(dir)%DirectoryEntryLength != 0 {
		return nil, 0, errors.NewParseError("directory", LeaderLength,
			"directory length "+strconv.Itoa(len(dir))+" is not a multiple of 12")
	}

	entries := make([]directoryEntry, 0, len(dir)/DirectoryEntryLength)
	for o := 0; o < len(dir); o += DirectoryEntryLength {
		tag := string(dir[o : o+3])
		length, lerr := strconv.Atoi(string(dir[o+3 : o+7]))
		offset, oerr := strconv.Atoi(string(dir[o+7 : o+12]))
		if lerr != nil || oerr != nil {
			return nil, 0, errors.NewParseError("directory", LeaderLength+o,
				"directory entry for tag "+tag+" is not numeric")
		}
		entries = append(entries, directoryEntry{tag: tag, length: length, offset: offset})
	}
	return entries, base, nil
}

// extractField pulls one field's bytes out of the field-data area,
// tolerating the common off-by-one offset drift of legacy encoders: when
// the stated window is not terminated, the true terminator is re-located
// by scanning.
func extractField(data []byte, base int, entry directoryEntry) (segment, error) {
	start := base + entry.offset
	end := start + entry.length

	if start >= len(data) || start < base {
		return segment{}, errors.NewParseError("directory", start,
			"field offset for tag "+entry.tag+" is outside the record")
	}
	if end > len(data) {
		end = len(data)
	}

	window := data[start:end]
	if n := len(window); n > 0 && window[n-1] == FieldTerminator {
		return segment{
			tag:        entry.tag,
			data:       window[:n-1],
			terminated: true,
			declared:   entry.length,
		}, nil
	}

	// Offset drift: shift the window back one byte if that lands on a
	// terminator, otherwise scan forward for the true terminator.
	if start > base && end-1 > start && data[end-2] == FieldTerminator {
		return segment{
			tag:        entry.tag,
			data:       data[start-1 : end-2],
			terminated: true,
			declared:   entry.length,
		}, nil
	}
	if idx := bytes.IndexByte(data[start:], FieldTerminator); idx >= 0 {
		// Wrapped continuation segments legitimately lack a terminator
		// inside their declared window; only widen within one extra byte.
		if idx <= entry.length {
			return segment{
				tag:        entry.tag,
				data:       data[start : start+idx],
				terminated: true,
				declared:   entry.length,
			}, nil
		}
	}

	// No terminator inside the window: a wrapped-field continuation.
	return segment{
		tag:        entry.tag,
		data:       window,
		terminated: false,
		declared:   entry.length,
	}, nil
}

// reassembleWrapped concatenates split fields back into single logical
// fields. A field is wrapped when consecutive directory entries share a tag,
// every segment but the last hits the directory length ceiling, and the
// non-final segments end without a terminator. Continuation segments drop
// their leading indicator bytes, which repeat the head segment's.
func reassembleWrapped(segments []segment) []segment {
	out := make([]segment, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		if seg.terminated || seg.declared < MaxFieldLength {
			out = append(out, seg)
			continue
		}

		joined := append([]byte(nil), seg.data...)
		j := i + 1
		for ; j < len(segments) && segments[j].tag == seg.tag; j++ {
			cont := segments[j].data
			if len(cont) >= 2 && !seg.isControl() {
				cont = cont[2:] // repeated indicators
			}
			joined = append(joined, cont...)
			if segments[j].terminated {
				j++
				break
			}
		}
		out = append(out, segment{tag: seg.tag, data: joined, terminated: true, declared: len(joined)})
		i = j - 1
	}
	return out
}

func (s segment) isControl() bool {
	return len(s.tag) == 3 && s.tag[0] == '0' && s.tag[1] == '0'
}

// buildField converts a raw segment into a Field, decoding the record
// charset. Fields that decode to nothing are dropped.
func buildField(seg segment, utf8 bool) (*Field, error) {
	if seg.isControl() {
		value, err := decodeText(seg.data, utf8)
		if err != nil {
			return nil, err
		}
		return &Field{Tag: seg.tag, Value: value}, nil
	}

	df := &DataField{Ind1: ' ', Ind2: ' '}
	content := seg.data
	if len(content) > 0 && content[0] != SubfieldDelimiter {
		df.Ind1 = content[0]
		content = content[1:]
	}
	if len(content) > 0 && content[0] != SubfieldDelimiter {
		df.Ind2 = content[0]
		content = content[1:]
	}

	for _, part := range bytes.Split(content, []byte{SubfieldDelimiter}) {
		if len(part) == 0 {
			continue
		}
		value, err := decodeText(part[1:], utf8)
		if err != nil {
			return nil, err
		}
		df.Subfields = append(df.Subfields, Subfield{Code: part[0], Value: value})
	}

	if len(df.Subfields) == 0 {
		return nil, nil
	}
	return &Field{Tag: seg.tag, Data: df}, nil
}
