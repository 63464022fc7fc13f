package output

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okian/triplecrown/internal/domain/types"
)

// RenderLeaderboard prints the first top entries as a table. top < 1
// prints all of them.
func RenderLeaderboard(w io.Writer, entries []types.Entry, top int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := table.Row{"#", "Name", "City", "G", "Age", "Division"}
	if len(entries) > 0 {
		for _, s := range entries[0].Splits {
			header = append(header, s.Source)
		}
	}
	header = append(header, "Total")
	t.AppendHeader(header)

	shown := entries
	if top > 0 && top < len(shown) {
		shown = shown[:top]
	}
	for _, e := range shown {
		age := ""
		if e.Age != nil {
			age = strconv.Itoa(*e.Age)
		}
		row := table.Row{e.Position, e.Name, e.City, e.Gender, age, e.Division}
		for _, s := range e.Splits {
			row = append(row, s.TimeGun)
		}
		t.AppendRow(append(row, e.TimeTotal))
	}

	t.AppendFooter(table.Row{"Total", len(entries)})
	t.Render()
}
