package source

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/okian/triplecrown/internal/domain/model"
)

// ParseResultSet reads a results document shaped as
//
//	{"headings": [{"key": "name"}, ...], "resultSet": {"results": [[...], ...]}}
//
// Header names come from headings[].key, one row per results entry.
func ParseResultSet(tag string, body []byte) (model.RawTable, error) {
	if !gjson.ValidBytes(body) {
		return model.RawTable{}, fmt.Errorf("%w: %s: invalid json", ErrFormat, tag)
	}

	keys := gjson.GetBytes(body, "headings.#.key").Array()
	if len(keys) == 0 {
		return model.RawTable{}, fmt.Errorf("%w: %s: no headings", ErrFormat, tag)
	}
	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = k.String()
	}

	results := gjson.GetBytes(body, "resultSet.results")
	if !results.IsArray() {
		return model.RawTable{}, fmt.Errorf("%w: %s: resultSet.results is not an array", ErrFormat, tag)
	}

	t := model.RawTable{Source: tag, Header: header}
	for i, r := range results.Array() {
		if !r.IsArray() {
			return model.RawTable{}, fmt.Errorf("%w: %s: result %d is not an array", ErrFormat, tag, i+1)
		}
		cells := r.Array()
		row := make([]string, len(cells))
		for j, c := range cells {
			if c.Type != gjson.Null {
				row[j] = c.String()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
