// Package output writes result tables to delimited files, spreadsheets,
// SQLite and the console.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/triplecrown/internal/domain/model"
)

// Write stores t at path in the format implied by its extension: .csv,
// .tsv or .xlsx. With index set a leading unnamed column numbers the rows
// from zero.
func Write(path string, t model.Table, index bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeDelimitedFile(path, t, ',', index)
	case ".tsv", ".txt":
		return writeDelimitedFile(path, t, '\t', index)
	case ".xlsx":
		return WriteXLSX(path, t, index)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func writeDelimitedFile(path string, t model.Table, comma rune, index bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := WriteDelimited(f, t, comma, index); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// WriteDelimited writes a header line and every row of t to w.
func WriteDelimited(w io.Writer, t model.Table, comma rune, index bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	for i, rec := range records(t, index) {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("%w: %s row %d: %v", ErrWrite, t.Name, i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, t.Name, err)
	}
	return nil
}

// WriteXLSX writes t to a workbook with a single sheet named after the table.
func WriteXLSX(path string, t model.Table, index bool) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	for i, rec := range records(t, index) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%w: %s row %d: %v", ErrWrite, t.Name, i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// records returns the header followed by the rows, optionally indexed.
func records(t model.Table, index bool) [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	if !index {
		out = append(out, t.Columns)
		return append(out, t.Rows...)
	}
	out = append(out, append([]string{""}, t.Columns...))
	for i, r := range t.Rows {
		out = append(out, append([]string{strconv.Itoa(i)}, r...))
	}
	return out
}

func sheetName(name string) string {
	const maxSheetName = 31
	if name == "" {
		return "Sheet1"
	}
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}
