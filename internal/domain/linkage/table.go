package linkage

import (
	"github.com/okian/triplecrown/internal/domain/model"
)

// Key columns lead every superset row.
const (
	ColumnBlockFirst = "block_first"
	ColumnBlockLast  = "block_last"
	ColumnAgeGroup   = "age_group"
	ColumnGender     = "gender"
)

// ColumnName is the superset column of field from the source tagged tag.
func ColumnName(field, tag string) string {
	return field + "__" + tag
}

// SupersetTable renders records with the blocking key followed by every
// field of every dataset, named by ColumnName. Missing parts leave empty
// cells.
func SupersetTable(name string, sets []model.KeyedDataset, records []model.MergedRecord) model.Table {
	cols := []string{ColumnBlockFirst, ColumnBlockLast, ColumnAgeGroup, ColumnGender}
	for _, ds := range sets {
		for _, f := range ds.Fields {
			cols = append(cols, ColumnName(f, ds.Tag))
		}
	}

	rows := make([][]string, 0, len(records))
	for _, m := range records {
		row := make([]string, 0, len(cols))
		row = append(row, m.Key.Name.First, m.Key.Name.Last, m.Key.AgeGroup, m.Key.Gender)
		for j, ds := range sets {
			var part *model.NormalizedRow
			if j < len(m.Parts) {
				part = m.Parts[j]
			}
			for _, f := range ds.Fields {
				v := ""
				if part != nil {
					v, _ = part.Value(f)
				}
				row = append(row, v)
			}
		}
		rows = append(rows, row)
	}
	return model.Table{Name: name, Columns: cols, Rows: rows}
}
