// Package aggregate totals matched records, ranks them and renders the
// combined leaderboard.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/triplecrown/internal/domain/model"
	"github.com/okian/triplecrown/internal/domain/racetime"
	"github.com/okian/triplecrown/internal/domain/schema"
	"github.com/okian/triplecrown/internal/domain/types"
)

// TieMode decides positions for equal totals.
type TieMode string

// Supported tie modes.
const (
	// TieAverage gives tied runners the floor of the mean of their sorted
	// positions, e.g. a tie for 2nd and 3rd yields 2 and 2.
	TieAverage TieMode = "average"
	// TieOrdinal keeps the sorted position; ties keep input order.
	TieOrdinal TieMode = "ordinal"
)

// Display columns of the ranked table.
const (
	ColumnPositionTotal = "position_total"
	ColumnName          = "name"
	ColumnCity          = "city"
	ColumnGender        = "gender"
	ColumnAge           = "age"
	ColumnDivision      = "division"
	ColumnTimeTotal     = "time_total"
)

// Sentinel error kinds for this package.
var (
	ErrUnknownTieMode = errors.New("unknown tie mode")
	ErrUnknownSource  = errors.New("unknown source")
	ErrNoSources      = errors.New("no sources")
)

// ParseTieMode reads "average" or "ordinal". Empty means average.
func ParseTieMode(s string) (TieMode, error) {
	switch TieMode(s) {
	case "", TieAverage:
		return TieAverage, nil
	case TieOrdinal:
		return TieOrdinal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTieMode, s)
}

// Source describes one joined dataset, in join order.
type Source struct {
	Tag  string
	Kind string
}

// Standing is one ranked matched record.
type Standing struct {
	Position int
	Total    time.Duration
	Record   model.MergedRecord
}

// Aggregator ranks the inner join.
type Aggregator struct {
	sources   []Source
	tieMode   TieMode
	preferred string
	display   int // index of the source whose name and city are shown
}

// New creates an Aggregator for records joined from sources.
func New(sources []Source, opts ...Option) (*Aggregator, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	a := &Aggregator{sources: sources, tieMode: TieAverage}
	for _, opt := range opts {
		opt(a)
	}
	if a.preferred != "" {
		a.display = -1
		for i, s := range sources {
			if s.Tag == a.preferred {
				a.display = i
			}
		}
		if a.display < 0 {
			return nil, fmt.Errorf("%w: preferred source %q", ErrUnknownSource, a.preferred)
		}
	}
	return a, nil
}

// Total sums the gun times of every part of m.
func Total(m model.MergedRecord) time.Duration {
	var total time.Duration
	for _, p := range m.Parts {
		if p != nil {
			total += p.TimeGun
		}
	}
	return total
}

// Rank sorts matched by total time and assigns positions 1..N.
// Equal totals keep their input order.
func (a *Aggregator) Rank(matched []model.MergedRecord) []Standing {
	out := make([]Standing, len(matched))
	for i, m := range matched {
		out[i] = Standing{Record: m, Total: Total(m)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total < out[j].Total })

	for start := 0; start < len(out); {
		end := start
		for end+1 < len(out) && out[end+1].Total == out[start].Total {
			end++
		}
		for i := start; i <= end; i++ {
			if a.tieMode == TieOrdinal {
				out[i].Position = i + 1
			} else {
				// Mean of positions start+1..end+1, truncated.
				out[i].Position = (start + end + 2) / 2
			}
		}
		start = end + 1
	}
	return out
}

// Columns returns the ranked table header.
func (a *Aggregator) Columns() []string {
	cols := []string{ColumnPositionTotal, ColumnName, ColumnCity, ColumnGender, ColumnAge, ColumnDivision}
	for _, s := range a.sources {
		if s.Kind == schema.KindHandicap {
			cols = append(cols,
				model.FieldPositionHandicap+"_"+s.Tag,
				model.FieldPositionGun+"_"+s.Tag,
			)
		} else {
			cols = append(cols, model.FieldPosition+"_"+s.Tag)
		}
		cols = append(cols, model.FieldTimeGun+"_"+s.Tag)
	}
	return append(cols, ColumnTimeTotal)
}

// Table renders standings under Columns.
func (a *Aggregator) Table(name string, standings []Standing) model.Table {
	rows := make([][]string, 0, len(standings))
	for _, st := range standings {
		e := a.entry(st)
		age := ""
		if e.Age != nil {
			age = fmt.Sprint(*e.Age)
		}
		row := []string{fmt.Sprint(st.Position), e.Name, e.City, e.Gender, age, e.Division}
		for i, s := range a.sources {
			p := part(st.Record, i)
			if s.Kind == schema.KindHandicap {
				row = append(row, cell(p, model.FieldPositionHandicap), cell(p, model.FieldPositionGun))
			} else {
				row = append(row, cell(p, model.FieldPosition))
			}
			row = append(row, cell(p, model.FieldTimeGun))
		}
		rows = append(rows, append(row, e.TimeTotal))
	}
	return model.Table{Name: name, Columns: a.Columns(), Rows: rows}
}

// Entries converts standings into leaderboard entries.
func (a *Aggregator) Entries(standings []Standing) []types.Entry {
	out := make([]types.Entry, len(standings))
	for i, st := range standings {
		out[i] = a.entry(st)
	}
	return out
}

func (a *Aggregator) entry(st Standing) types.Entry {
	e := types.Entry{
		Position:     st.Position,
		Gender:       st.Record.Key.Gender,
		TimeTotal:    racetime.Format(st.Total),
		TotalSeconds: st.Total.Seconds(),
		Splits:       make([]types.Split, 0, len(a.sources)),
	}
	// Display fields from the preferred source, then the rest in order.
	for _, i := range a.displayOrder() {
		p := part(st.Record, i)
		if p == nil {
			continue
		}
		if e.Name == "" {
			e.Name = p.NameFull
		}
		if e.City == "" {
			e.City = p.City
		}
	}
	for i, s := range a.sources {
		p := part(st.Record, i)
		if p == nil {
			continue
		}
		if e.Age == nil && p.Age != nil {
			age := *p.Age
			e.Age = &age
		}
		if e.Division == "" {
			e.Division = p.Division
		}
		e.Splits = append(e.Splits, types.Split{
			Source:   s.Tag,
			Position: p.Position,
			TimeGun:  racetime.Format(p.TimeGun),
		})
	}
	return e
}

func (a *Aggregator) displayOrder() []int {
	order := make([]int, 0, len(a.sources))
	order = append(order, a.display)
	for i := range a.sources {
		if i != a.display {
			order = append(order, i)
		}
	}
	return order
}

func part(m model.MergedRecord, i int) *model.NormalizedRow {
	if i < len(m.Parts) {
		return m.Parts[i]
	}
	return nil
}

func cell(p *model.NormalizedRow, field string) string {
	if p == nil {
		return ""
	}
	v, _ := p.Value(field)
	return v
}
