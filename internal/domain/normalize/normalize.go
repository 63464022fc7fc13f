// Package normalize converts raw source tables into normalized rows.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/okian/triplecrown/internal/domain/blocking"
	"github.com/okian/triplecrown/internal/domain/model"
	"github.com/okian/triplecrown/internal/domain/racetime"
	"github.com/okian/triplecrown/internal/domain/schema"
)

// Policy decides what happens to malformed rows.
type Policy string

// Supported policies.
const (
	// PolicyAbort fails the run on the first malformed row.
	PolicyAbort Policy = "abort"
	// PolicySkip drops malformed rows and reports them.
	PolicySkip Policy = "skip"
)

// Sentinel error kinds for this package.
var (
	ErrMissingValue  = errors.New("required value is missing")
	ErrNotInteger    = errors.New("not an integer")
	ErrUnknownPolicy = errors.New("unknown row policy")
)

// ParsePolicy reads "abort" or "skip". Empty means abort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Result is a normalized dataset plus the rows dropped under PolicySkip.
type Result struct {
	Dataset  model.Dataset
	Rejected []*model.RowError
}

// Normalizer applies a schema to raw tables.
type Normalizer struct {
	policy Policy
}

// New creates a Normalizer. The default policy is PolicyAbort.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{policy: PolicyAbort}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize validates raw's header against s and converts every row.
// Schema mismatches always fail. Malformed rows fail under PolicyAbort and
// are collected in Result.Rejected under PolicySkip.
func (n *Normalizer) Normalize(tag string, s schema.Schema, raw model.RawTable) (Result, error) {
	ix, err := s.Validate(raw.Header)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", tag, err)
	}

	res := Result{Dataset: model.Dataset{
		Tag:    tag,
		Kind:   s.Kind,
		Fields: s.Fields(),
		Rows:   make([]model.NormalizedRow, 0, len(raw.Rows)),
	}}
	for i, cells := range raw.Rows {
		row, err := normalizeRow(tag, i+1, s.Kind, ix, cells)
		if err != nil {
			var rowErr *model.RowError
			if n.policy == PolicySkip && errors.As(err, &rowErr) && errors.Is(err, model.ErrMalformedRow) {
				res.Rejected = append(res.Rejected, rowErr)
				continue
			}
			return Result{}, err
		}
		res.Dataset.Rows = append(res.Dataset.Rows, row)
	}

	if s.Kind == schema.KindHandicap {
		RankGun(res.Dataset.Rows)
	}
	return res, nil
}

// RankGun sets PositionGun on every row by ascending gun time. Equal times
// keep input order.
func RankGun(rows []model.NormalizedRow) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rows[order[a]].TimeGun < rows[order[b]].TimeGun
	})
	for rank, i := range order {
		p := rank + 1
		rows[i].PositionGun = &p
	}
}

func normalizeRow(tag string, line int, kind string, ix schema.Index, cells []string) (model.NormalizedRow, error) { //nolint:cyclop,funlen // one step per field
	get := func(f string) string { return ix.Get(cells, f) }
	bad := func(f string, cause error) error { return model.Malformed(tag, line, f, get(f), cause) }

	r := model.NormalizedRow{
		Source:   tag,
		Line:     line,
		NameFull: get(model.FieldNameFull),
		Gender:   get(model.FieldGender),
		City:     get(model.FieldCity),
		State:    get(model.FieldState),
		Country:  get(model.FieldCountry),
		Bib:      get(model.FieldBib),
		Handicap: get(model.FieldHandicap),
		AvgPace:  get(model.FieldAvgPace),
		Division: get(model.FieldDivision),
	}

	if len(blocking.NameTokens(r.NameFull)) == 0 {
		return r, bad(model.FieldNameFull, blocking.ErrEmptyName)
	}
	if r.Gender == "" {
		return r, bad(model.FieldGender, ErrMissingValue)
	}

	gun, err := requiredDuration(get(model.FieldTimeGun))
	if err != nil {
		return r, bad(model.FieldTimeGun, err)
	}
	r.TimeGun = gun

	if r.TimeChip, err = optionalDuration(get(model.FieldTimeChip)); err != nil {
		return r, bad(model.FieldTimeChip, err)
	}
	if r.TimeHandicap, err = optionalDuration(get(model.FieldTimeHandicap)); err != nil {
		return r, bad(model.FieldTimeHandicap, err)
	}

	posField := model.FieldPosition
	if kind == schema.KindHandicap {
		posField = model.FieldPositionHandicap
	}
	pos, err := requiredInt(get(posField))
	if err != nil {
		return r, bad(posField, err)
	}
	r.Position = pos
	if kind == schema.KindHandicap {
		r.PositionHandicap = &pos
	}

	if r.Age, err = optionalInt(get(model.FieldAge)); err != nil {
		return r, bad(model.FieldAge, err)
	}
	if r.DivisionPlace, err = optionalInt(get(model.FieldDivisionPlace)); err != nil {
		return r, bad(model.FieldDivisionPlace, err)
	}
	return r, nil
}

func requiredDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, ErrMissingValue
	}
	return racetime.Parse(s)
}

func optionalDuration(s string) (*time.Duration, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent value
	}
	d, err := racetime.Parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func requiredInt(s string) (int, error) {
	if s == "" {
		return 0, ErrMissingValue
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, s)
	}
	return v, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent value
	}
	v, err := requiredInt(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
