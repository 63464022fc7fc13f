// Package linkage joins keyed datasets on exact blocking-key equality.
//
// Joins run left to right: ((A ⋈ B) ⋈ C) ⋈ ... Records are aligned with the
// input datasets, so the source of every part is its index. Record order is
// deterministic but carries no meaning; ranking happens later.
package linkage

import (
	"errors"
	"fmt"

	"github.com/okian/triplecrown/internal/domain/model"
)

// ErrTooFewSources is returned when fewer than two datasets are joined.
var ErrTooFewSources = errors.New("linkage needs at least two datasets")

// Result holds both joins of one run.
type Result struct {
	Tags     []string
	Matched  []model.MergedRecord // inner join
	Superset []model.MergedRecord // full outer join
}

// Link runs the inner and the outer join over sets.
func Link(sets []model.KeyedDataset) (Result, error) {
	if len(sets) < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrTooFewSources, len(sets))
	}
	tags := make([]string, len(sets))
	for i, s := range sets {
		tags[i] = s.Tag
	}
	return Result{
		Tags:     tags,
		Matched:  Inner(sets),
		Superset: Outer(sets),
	}, nil
}

// index maps each key to the row positions carrying it, in input order.
func index(ds model.KeyedDataset) map[model.BlockingKey][]int {
	ix := make(map[model.BlockingKey][]int, len(ds.Keys))
	for i, k := range ds.Keys {
		ix[k] = append(ix[k], i)
	}
	return ix
}

func seed(ds model.KeyedDataset, width int) []model.MergedRecord {
	out := make([]model.MergedRecord, len(ds.Rows))
	for i := range ds.Rows {
		parts := make([]*model.NormalizedRow, 1, width)
		parts[0] = &ds.Rows[i]
		out[i] = model.MergedRecord{Key: ds.Keys[i], Parts: parts}
	}
	return out
}

func extend(m model.MergedRecord, row *model.NormalizedRow) model.MergedRecord {
	parts := make([]*model.NormalizedRow, len(m.Parts)+1)
	copy(parts, m.Parts)
	parts[len(m.Parts)] = row
	return model.MergedRecord{Key: m.Key, Parts: parts}
}

// Inner keeps only keys present in every dataset. Keys carried by several
// rows of a dataset produce every combination.
func Inner(sets []model.KeyedDataset) []model.MergedRecord {
	if len(sets) == 0 {
		return nil
	}
	acc := seed(sets[0], len(sets))
	for _, ds := range sets[1:] {
		ix := index(ds)
		next := make([]model.MergedRecord, 0, len(acc))
		for _, m := range acc {
			for _, i := range ix[m.Key] {
				next = append(next, extend(m, &ds.Rows[i]))
			}
		}
		acc = next
	}
	return acc
}

// Outer keeps every row of every dataset at least once. Sources without a
// row for a record's key contribute a nil part.
func Outer(sets []model.KeyedDataset) []model.MergedRecord {
	if len(sets) == 0 {
		return nil
	}
	acc := seed(sets[0], len(sets))
	for j, ds := range sets[1:] {
		ix := index(ds)
		used := make([]bool, len(ds.Rows))
		next := make([]model.MergedRecord, 0, len(acc)+len(ds.Rows))
		for _, m := range acc {
			hits := ix[m.Key]
			if len(hits) == 0 {
				next = append(next, extend(m, nil))
				continue
			}
			for _, i := range hits {
				used[i] = true
				next = append(next, extend(m, &ds.Rows[i]))
			}
		}
		// Right-only rows: nil for the j+1 datasets joined so far.
		for i := range ds.Rows {
			if used[i] {
				continue
			}
			parts := make([]*model.NormalizedRow, j+2, len(sets))
			parts[j+1] = &ds.Rows[i]
			next = append(next, model.MergedRecord{Key: ds.Keys[i], Parts: parts})
		}
		acc = next
	}
	return acc
}
