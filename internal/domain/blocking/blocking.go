// Package blocking derives the exact-match join key of a normalized row:
// a name block, an age band and the gender.
package blocking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/triplecrown/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	ErrEmptyName     = errors.New("name is empty after stripping punctuation")
	ErrNegativeAge   = errors.New("age is negative")
	ErrDivisionLabel = errors.New("division label has no age band")
	ErrNoAge         = errors.New("row has neither age nor division")
	ErrEmptyGender   = errors.New("gender is empty")
)

// Params tunes key generation.
type Params struct {
	// FirstWidth is the number of leading characters kept from the first name token.
	FirstWidth int
	// LastWidth is the number of leading characters kept from the last name token.
	// Widening it separates runners sharing initials.
	LastWidth int
	// FoldAccents removes diacritics before slicing, so "José" blocks as "JOS".
	FoldAccents bool
	// ValidateDivision rejects division labels whose band is not in Bands.
	ValidateDivision bool
}

// DefaultParams returns k1=1, k2=3.
func DefaultParams() Params {
	return Params{FirstWidth: 1, LastWidth: 3}
}

// Bands are the fixed age groups, in ascending order.
var Bands = []string{ //nolint:gochecknoglobals // fixed table
	"1-17", "18-29", "30-34", "35-39", "40-44", "45-49",
	"50-54", "55-59", "60-64", "65-69", "70-99",
}

// AgeGroup maps a non-negative age to its band. Bands are inclusive.
func AgeGroup(age int) (string, error) {
	switch {
	case age < 0:
		return "", fmt.Errorf("%w: %d", ErrNegativeAge, age)
	case age < 18:
		return "1-17", nil
	case age < 30:
		return "18-29", nil
	case age >= 70:
		return "70-99", nil
	}
	// 30..69 in five-year steps starting at index 2.
	return Bands[2+(age-30)/5], nil
}

// DivisionAgeGroup takes the second whitespace token of a division label,
// e.g. "M 45-49" -> "45-49". With validate set the token must be a band.
func DivisionAgeGroup(label string, validate bool) (string, error) {
	tokens := strings.Fields(label)
	if len(tokens) < 2 {
		return "", fmt.Errorf("%w: %q", ErrDivisionLabel, label)
	}
	group := tokens[1]
	if validate && !isBand(group) {
		return "", fmt.Errorf("%w: %q is not a known band", ErrDivisionLabel, group)
	}
	return group, nil
}

func isBand(s string) bool {
	for _, b := range Bands {
		if b == s {
			return true
		}
	}
	return false
}

// asciiPunctuation is every printable ASCII character that is neither a
// letter, a digit nor a space.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// NameTokens strips ASCII punctuation from name and splits it on whitespace.
func NameTokens(name string) []string {
	return strings.Fields(strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, name))
}

// NameBlock returns the uppercased prefixes of the first and last name
// tokens. A single-token name uses that token for both. Tokens shorter than
// the width are kept whole.
func NameBlock(fullName string, firstWidth, lastWidth int, foldAccents bool) (model.NameBlock, error) {
	if foldAccents {
		fullName = Fold(fullName)
	}
	tokens := NameTokens(fullName)
	if len(tokens) == 0 {
		return model.NameBlock{}, fmt.Errorf("%w: %q", ErrEmptyName, fullName)
	}
	return model.NameBlock{
		First: prefix(tokens[0], firstWidth),
		Last:  prefix(tokens[len(tokens)-1], lastWidth),
	}, nil
}

func prefix(token string, width int) string {
	r := []rune(token)
	if width < len(r) {
		r = r[:width]
	}
	return strings.ToUpper(string(r))
}

// Fold strips combining marks after canonical decomposition.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Compute derives the blocking key of row. A missing name or gender is a
// malformed row; an age without a band is unblockable.
func Compute(row *model.NormalizedRow, p Params) (model.BlockingKey, error) {
	nb, err := NameBlock(row.NameFull, p.FirstWidth, p.LastWidth, p.FoldAccents)
	if err != nil {
		return model.BlockingKey{}, model.Malformed(row.Source, row.Line, model.FieldNameFull, row.NameFull, err)
	}
	if row.Gender == "" {
		return model.BlockingKey{}, model.Malformed(row.Source, row.Line, model.FieldGender, "", ErrEmptyGender)
	}

	var group string
	switch {
	case row.Age != nil:
		group, err = AgeGroup(*row.Age)
		if err != nil {
			return model.BlockingKey{}, model.Unblockable(row.Source, row.Line, model.FieldAge, strconv.Itoa(*row.Age), err)
		}
	case row.Division != "":
		group, err = DivisionAgeGroup(row.Division, p.ValidateDivision)
		if err != nil {
			return model.BlockingKey{}, model.Unblockable(row.Source, row.Line, model.FieldDivision, row.Division, err)
		}
	default:
		return model.BlockingKey{}, model.Unblockable(row.Source, row.Line, model.FieldAge, "", ErrNoAge)
	}

	return model.BlockingKey{Name: nb, AgeGroup: group, Gender: row.Gender}, nil
}

// Block computes the key of every row in ds. The first failure aborts.
func Block(ds model.Dataset, p Params) (model.KeyedDataset, error) {
	keys := make([]model.BlockingKey, len(ds.Rows))
	for i := range ds.Rows {
		k, err := Compute(&ds.Rows[i], p)
		if err != nil {
			return model.KeyedDataset{}, err
		}
		keys[i] = k
	}
	return model.KeyedDataset{Dataset: ds, Keys: keys}, nil
}
