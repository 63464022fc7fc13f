// Package model contains the data model passed between pipeline stages.
package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/triplecrown/internal/domain/racetime"
)

// RawTable is a fully materialized source dataset with a header row.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// NormalizedRow is one runner's result in the canonical schema.
// Pointer fields are absent when nil.
type NormalizedRow struct {
	Source string // source tag
	Line   int    // 1-based data row in the source

	NameFull string
	Age      *int
	Gender   string
	City     string
	State    string
	Country  string
	Bib      string

	TimeGun      time.Duration
	TimeChip     *time.Duration
	TimeHandicap *time.Duration
	Handicap     string
	AvgPace      string

	// Position is the source-reported rank. For handicap sources it is the
	// handicap place.
	Position         int
	PositionGun      *int
	PositionHandicap *int
	DivisionPlace    *int
	Division         string
}

// Value returns the display value of a canonical field and whether it is set.
func (r *NormalizedRow) Value(field string) (string, bool) { //nolint:cyclop // one case per field
	switch field {
	case FieldPosition:
		return strconv.Itoa(r.Position), true
	case FieldPositionGun:
		return optInt(r.PositionGun)
	case FieldPositionHandicap:
		return optInt(r.PositionHandicap)
	case FieldBib:
		return r.Bib, r.Bib != ""
	case FieldNameFull:
		return r.NameFull, r.NameFull != ""
	case FieldAge:
		return optInt(r.Age)
	case FieldGender:
		return r.Gender, r.Gender != ""
	case FieldCity:
		return r.City, r.City != ""
	case FieldState:
		return r.State, r.State != ""
	case FieldCountry:
		return r.Country, r.Country != ""
	case FieldTimeGun:
		return racetime.Format(r.TimeGun), true
	case FieldTimeChip:
		return optDuration(r.TimeChip)
	case FieldTimeHandicap:
		return optDuration(r.TimeHandicap)
	case FieldHandicap:
		return r.Handicap, r.Handicap != ""
	case FieldAvgPace:
		return r.AvgPace, r.AvgPace != ""
	case FieldDivisionPlace:
		return optInt(r.DivisionPlace)
	case FieldDivision:
		return r.Division, r.Division != ""
	}
	return "", false
}

func optInt(v *int) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.Itoa(*v), true
}

func optDuration(v *time.Duration) (string, bool) {
	if v == nil {
		return "", false
	}
	return racetime.Format(*v), true
}

// Dataset is the normalized output of one source.
type Dataset struct {
	Tag    string
	Kind   string
	Fields []string // canonical fields the source provides, in column order
	Rows   []NormalizedRow
}

// NameBlock is the blocked form of a full name.
type NameBlock struct {
	First string
	Last  string
}

// BlockingKey is the exact-match join key. It is comparable and usable as a
// map key.
type BlockingKey struct {
	Name     NameBlock
	AgeGroup string
	Gender   string
}

func (k BlockingKey) String() string {
	return fmt.Sprintf("%s/%s|%s|%s", k.Name.First, k.Name.Last, k.AgeGroup, k.Gender)
}

// KeyedDataset pairs a dataset with the blocking key of each row.
// Keys[i] belongs to Rows[i].
type KeyedDataset struct {
	Dataset
	Keys []BlockingKey
}

// MergedRecord is one join result. Parts is aligned with the joined
// datasets; a nil part means that source had no row for Key.
type MergedRecord struct {
	Key   BlockingKey
	Parts []*NormalizedRow
}

// Complete reports whether every source contributed a row.
func (m MergedRecord) Complete() bool {
	for _, p := range m.Parts {
		if p == nil {
			return false
		}
	}
	return true
}

// Table is a rendered output table. Empty cells are nulls.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}
