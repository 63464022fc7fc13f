// Package schema maps raw source columns onto canonical fields.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/triplecrown/internal/domain/model"
)

// Source kinds.
const (
	KindBasic    = "basic"
	KindChip     = "chip"
	KindHandicap = "handicap"
)

// Sentinel error kinds for this package.
var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrUnknownKind    = errors.New("unknown source kind")
)

// Mapping binds one raw column to one canonical field.
type Mapping struct {
	Raw      string
	Field    string
	Required bool
}

// Schema is the typed column map of a source kind.
type Schema struct {
	Kind     string
	Mappings []Mapping
	// Derived fields are computed by the normalizer, not read.
	Derived []string
}

// ForKind returns the built-in schema of kind.
func ForKind(kind string) (Schema, error) {
	var m []Mapping
	var derived []string
	switch kind {
	case KindBasic:
		m = []Mapping{
			{"Position", model.FieldPosition, true},
			{"Bib", model.FieldBib, false},
			{"Name", model.FieldNameFull, true},
			{"Time", model.FieldTimeGun, true},
			{"Age", model.FieldAge, true},
			{"Gender", model.FieldGender, true},
			{"City", model.FieldCity, false},
		}
	case KindChip:
		m = []Mapping{
			{"race_placement", model.FieldPosition, true},
			{"bib_num", model.FieldBib, false},
			{"name", model.FieldNameFull, true},
			{"gender", model.FieldGender, true},
			{"city", model.FieldCity, false},
			{"state", model.FieldState, false},
			{"countrycode", model.FieldCountry, false},
			{"clock_time", model.FieldTimeGun, true},
			{"chip_time", model.FieldTimeChip, false},
			{"avg_pace", model.FieldAvgPace, false},
			{"division_place", model.FieldDivisionPlace, false},
			{"division", model.FieldDivision, true},
		}
	case KindHandicap:
		m = []Mapping{
			{"Place", model.FieldPositionHandicap, true},
			{"Name", model.FieldNameFull, true},
			{"City", model.FieldCity, false},
			{"Bib", model.FieldBib, false},
			{"Age", model.FieldAge, true},
			{"Gender", model.FieldGender, true},
			{"Actual Time", model.FieldTimeGun, true},
			{"Handicap", model.FieldHandicap, false},
			{"Net Time", model.FieldTimeHandicap, false},
		}
		derived = []string{model.FieldPositionGun}
	default:
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return Schema{Kind: kind, Mappings: m, Derived: derived}, nil
}

// WithOverrides returns a copy whose raw names are replaced per canonical
// field. Overriding a field the schema does not map is an error.
func (s Schema) WithOverrides(columns map[string]string) (Schema, error) {
	out := Schema{Kind: s.Kind, Mappings: make([]Mapping, len(s.Mappings)), Derived: s.Derived}
	copy(out.Mappings, s.Mappings)
	for field, raw := range columns {
		if !model.KnownField(field) {
			return Schema{}, fmt.Errorf("%w: %s: unknown field %q", ErrSchemaMismatch, s.Kind, field)
		}
		found := false
		for i := range out.Mappings {
			if out.Mappings[i].Field == field {
				out.Mappings[i].Raw = raw
				found = true
			}
		}
		if !found {
			return Schema{}, fmt.Errorf("%w: %s does not map field %q", ErrSchemaMismatch, s.Kind, field)
		}
	}
	return out, nil
}

// Fields lists the canonical fields this schema produces, in column order.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s.Mappings)+len(s.Derived))
	for _, m := range s.Mappings {
		out = append(out, m.Field)
	}
	return append(out, s.Derived...)
}

// Has reports whether the schema produces field.
func (s Schema) Has(field string) bool {
	for _, f := range s.Fields() {
		if f == field {
			return true
		}
	}
	return false
}

// Index locates canonical fields within a raw row.
type Index map[string]int

// Get returns the trimmed cell of field in row. Missing columns and short
// rows yield "".
func (ix Index) Get(row []string, field string) string {
	i, ok := ix[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Validate checks header against the schema and returns the field index.
// Every required raw column must be present.
func (s Schema) Validate(header []string) (Index, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	ix := make(Index, len(s.Mappings))
	var missing []string
	for _, m := range s.Mappings {
		i, ok := pos[m.Raw]
		if !ok {
			if m.Required {
				missing = append(missing, m.Raw)
			}
			continue
		}
		ix[m.Field] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s source lacks required columns %q", ErrSchemaMismatch, s.Kind, missing)
	}
	return ix, nil
}
