package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/triplecrown/internal/domain/model"
)

// ExportSQLite replaces one table per model.Table in the database at path.
// Every column is TEXT; empty cells are stored as NULL.
func ExportSQLite(ctx context.Context, path string, tables ...model.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrWrite, path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		if err := replaceTable(ctx, tx, t); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWrite, err)
	}
	return nil
}

func replaceTable(ctx context.Context, tx *sql.Tx, t model.Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("no columns")
	}
	name := quoteIdent(t.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return err
	}

	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c) + " TEXT"
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+name+" ("+strings.Join(cols, ", ")+")"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+name+" VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i := range args {
			args[i] = nil
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
