package record

import (
	"strings"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/marc"
)

// MARC tags consumed by the normalizer.
const (
	tagControlNumber = "001"
	tagFixedData     = "008"
	tagLCCN          = "010"
	tagISBN          = "020"
	tagSystemControl = "035"
	tagLanguageCodes = "041"
	tagTitle         = "245"
	tagImprint       = "260"
	tagProduction    = "264"
	tagPhysical      = "300"
	tagElectronic    = "856"
)

var authorTags = map[string]string{
	"100": "person", "110": "org", "111": "event",
	"700": "person", "710": "org", "711": "event",
}

// Normalize converts a parsed field tree into an ImportRecord. The title
// is the single required field: a record without a usable 245 $a fails
// with a MissingFieldError before any store access can occur.
func Normalize(rec *marc.Record) (*ImportRecord, error) {
	out := &ImportRecord{}

	if err := normalizeTitleField(rec, out); err != nil {
		return nil, err
	}

	normalizeAuthors(rec, out)
	normalizeIdentifiers(rec, out)
	normalizeSubjects(rec, out)
	normalizeLanguages(rec, out)
	normalizeImprint(rec, out)
	normalizePhysical(rec, out)
	normalizeSource(rec, out)

	return out, nil
}

func normalizeTitleField(rec *marc.Record, out *ImportRecord) error {
	f := rec.Field(tagTitle)
	if f == nil || f.Data == nil {
		return errors.NewMissingFieldError("title")
	}
	data := f.Data
	title, _ := data.Subfield('a')
	title = trimFieldPunct(title)

	// Vernacular-only records leave 245 $a blank and carry the title
	// in the linked alternate-script field.
	if title == "" {
		if alt := rec.Linked(f); alt != nil {
			data = alt.Data
			t, _ := data.Subfield('a')
			title = trimFieldPunct(t)
		}
	}
	if title == "" {
		return errors.NewMissingFieldError("title")
	}
	out.Title = title

	if sub, ok := data.Subfield('b'); ok {
		out.Subtitle = trimFieldPunct(sub)
	}
	if by, ok := data.Subfield('c'); ok {
		out.ByStatement = strings.TrimRight(strings.TrimSpace(by), ".")
	}
	return nil
}

func normalizeAuthors(rec *marc.Record, out *ImportRecord) {
	for i := range rec.Fields {
		f := &rec.Fields[i]
		entity, ok := authorTags[f.Tag]
		if !ok || f.Data == nil {
			continue
		}
		data := f.Data
		name, ok := data.Subfield('a')
		if !ok || strings.TrimSpace(name) == "" {
			// Fall back to the linked alternate-script heading.
			alt := rec.Linked(f)
			if alt == nil {
				continue
			}
			data = alt.Data
			if name, ok = data.Subfield('a'); !ok {
				continue
			}
		}
		author := Author{
			Name:       strings.TrimRight(trimFieldPunct(name), "."),
			EntityType: entity,
		}
		if dates, ok := data.Subfield('d'); ok {
			author.BirthDate, author.DeathDate, author.Date = splitLifeDates(dates)
		}
		if role, ok := data.Subfield('e'); ok {
			author.Role = trimFieldPunct(role)
		} else if code, ok := data.Subfield('4'); ok {
			author.Role = trimFieldPunct(code)
		}
		if author.Name != "" {
			out.Authors = append(out.Authors, author)
		}
	}
}

// splitLifeDates parses a MARC $d value like "1828-1910." into birth and
// death dates; a value without a dash is kept as a single date.
func splitLifeDates(d string) (birth, death, single string) {
	d = strings.TrimRight(strings.TrimSpace(d), ".,")
	if d == "" {
		return "", "", ""
	}
	if i := strings.IndexByte(d, '-'); i >= 0 {
		return strings.TrimSpace(d[:i]), strings.TrimSpace(d[i+1:]), ""
	}
	return "", "", d
}

func normalizeIdentifiers(rec *marc.Record, out *ImportRecord) {
	for _, f := range rec.FieldsByTag(tagISBN) {
		for _, raw := range f.Data.SubfieldValues('a') {
			isbn := CleanISBN(raw)
			switch len(isbn) {
			case 10:
				out.AddIdentifier(ISBN10, isbn)
			case 13:
				out.AddIdentifier(ISBN13, isbn)
			}
		}
	}

	if f := rec.Field(tagLCCN); f != nil && f.Data != nil {
		if raw, ok := f.Data.Subfield('a'); ok {
			out.AddIdentifier(LCCN, CleanLCCN(raw))
		}
	}

	for _, f := range rec.FieldsByTag(tagSystemControl) {
		for _, raw := range f.Data.SubfieldValues('a') {
			out.AddIdentifier(OCLC, CleanOCLC(raw))
		}
	}

	// Digitized-item identifiers arrive as archive item links.
	for _, f := range rec.FieldsByTag(tagElectronic) {
		for _, u := range f.Data.SubfieldValues('u') {
			if ocaid := ocaidFromURL(u); ocaid != "" {
				out.AddIdentifier(OCAID, ocaid)
			}
		}
	}
}

// ocaidFromURL extracts a digitized-item identifier from an
// "archive.org/details/<id>" link.
func ocaidFromURL(u string) string {
	const marker = "archive.org/details/"
	i := strings.Index(u, marker)
	if i < 0 {
		return ""
	}
	id := u[i+len(marker):]
	if j := strings.IndexAny(id, "/?#"); j >= 0 {
		id = id[:j]
	}
	return id
}

func normalizeSubjects(rec *marc.Record, out *ImportRecord) {
	for _, tag := range []string{"650", "651"} {
		for _, f := range rec.FieldsByTag(tag) {
			subject, ok := f.Data.Subfield('a')
			if !ok {
				continue
			}
			parts := []string{trimFieldPunct(subject)}
			// Subdivisions join the heading with " -- ".
			for _, code := range []byte{'x', 'y', 'z', 'v'} {
				for _, sub := range f.Data.SubfieldValues(code) {
					parts = append(parts, trimFieldPunct(sub))
				}
			}
			joined := strings.TrimRight(strings.Join(parts, " -- "), ".")
			if joined != "" {
				out.Subjects = append(out.Subjects, joined)
			}
		}
	}
}

func normalizeLanguages(rec *marc.Record, out *ImportRecord) {
	seen := make(map[string]bool)
	add := func(code string) {
		code = strings.ToLower(strings.TrimSpace(code))
		if len(code) == 3 && code != "   " && !seen[code] {
			seen[code] = true
			out.Languages = append(out.Languages, code)
		}
	}

	if f := rec.Field(tagFixedData); f != nil && len(f.Value) >= 38 {
		add(f.Value[35:38])
	}
	for _, f := range rec.FieldsByTag(tagLanguageCodes) {
		for _, v := range f.Data.SubfieldValues('a') {
			// A single $a may pack several 3-letter codes.
			for i := 0; i+3 <= len(v); i += 3 {
				add(v[i : i+3])
			}
		}
	}
}

func normalizeImprint(rec *marc.Record, out *ImportRecord) {
	for _, tag := range []string{tagImprint, tagProduction} {
		for _, f := range rec.FieldsByTag(tag) {
			for _, place := range f.Data.SubfieldValues('a') {
				if p := trimFieldPunct(place); p != "" {
					out.PublishPlaces = append(out.PublishPlaces, p)
				}
			}
			for _, pub := range f.Data.SubfieldValues('b') {
				if p := trimFieldPunct(pub); p != "" {
					out.Publishers = append(out.Publishers, p)
				}
			}
			if out.PublishDate == "" {
				if date, ok := f.Data.Subfield('c'); ok {
					out.PublishDate = strings.TrimRight(trimFieldPunct(date), ".")
				}
			}
		}
	}
}

func normalizePhysical(rec *marc.Record, out *ImportRecord) {
	f := rec.Field(tagPhysical)
	if f == nil || f.Data == nil {
		return
	}
	extent, ok := f.Data.Subfield('a')
	if !ok {
		return
	}
	out.Pagination = trimFieldPunct(extent)
	out.NumberOfPages = extractPageCount(out.Pagination)
}

// extractPageCount pulls the page count out of a pagination statement.
// "xii, 345 p." counts front matter in roman numerals; the largest run of
// digits is the usable count.
func extractPageCount(pagination string) int {
	best := 0
	n := 0
	inNumber := false
	for _, c := range pagination + " " {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			inNumber = true
			continue
		}
		if inNumber && n > best {
			best = n
		}
		n = 0
		inNumber = false
	}
	return best
}

func normalizeSource(rec *marc.Record, out *ImportRecord) {
	if f := rec.Field(tagControlNumber); f != nil && strings.TrimSpace(f.Value) != "" {
		out.SourceRecords = append(out.SourceRecords, "marc:"+strings.TrimSpace(f.Value))
	}
}
