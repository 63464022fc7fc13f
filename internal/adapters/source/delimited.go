package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/okian/triplecrown/internal/domain/model"
)

const utf8BOM = "\ufeff"

// ReadDelimited reads a header line and every following record from r.
// Rows may be ragged; missing trailing cells read as empty.
func ReadDelimited(tag string, r io.Reader, comma rune) (model.RawTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	if comma == '\t' {
		cr.LazyQuotes = true
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.RawTable{}, fmt.Errorf("%w: %s: empty file", ErrFormat, tag)
	}
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %s: header: %v", ErrFormat, tag, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := model.RawTable{Source: tag, Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.RawTable{}, fmt.Errorf("%w: %s: %v", ErrFormat, tag, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadDelimitedFile opens path and reads it with ReadDelimited.
func ReadDelimitedFile(tag, path, delimiter string) (model.RawTable, error) {
	comma, err := Comma(delimiter)
	if err != nil {
		return model.RawTable{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("open %s source: %w", tag, err)
	}
	defer f.Close()
	return ReadDelimited(tag, f, comma)
}

// Comma converts a one-character delimiter to a rune. Empty means ','.
func Comma(delimiter string) (rune, error) {
	if delimiter == "" {
		return ',', nil
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return 0, fmt.Errorf("%w: delimiter %q must be one character", ErrFormat, delimiter)
	}
	r, _ := utf8.DecodeRuneInString(delimiter)
	return r, nil
}
