package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
)

// validIdent accepts the identifiers we are willing to splice into SQL.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func checkIdents(table string, columns []string) error {
	if !validIdent(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	for _, c := range columns {
		if !validIdent(c) {
			return fmt.Errorf("invalid column name %q", c)
		}
	}
	return nil
}

// EnsureRecordsTable creates table with one TEXT column per schema column.
func EnsureRecordsTable(ctx context.Context, db *sql.DB, table string, schema dataset.Schema) error {
	cols := schema.Columns()
	if err := checkIdents(table, cols); err != nil {
		return err
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " TEXT NOT NULL"
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            %s
        );`, table, strings.Join(defs, ",\n            "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// InsertRecords appends rows to table in one transaction. Every row must
// have one value per schema column.
func InsertRecords(ctx context.Context, db *sql.DB, table string, schema dataset.Schema, rows [][]string) error {
	cols := schema.Columns()
	if err := checkIdents(table, cols); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(%s) VALUES(%s)`,
		table, strings.Join(cols, ","), marks))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("row %d: got %d values, want %d", i, len(row), len(cols))
		}
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ReadRecords returns every row of table in insertion order, columns in
// schema order.
func ReadRecords(ctx context.Context, db *sql.DB, table string, schema dataset.Schema) ([][]string, error) {
	cols := schema.Columns()
	if err := checkIdents(table, cols); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, strings.Join(cols, ","), table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		rec := make([]string, len(cols))
		ptrs := make([]any, len(cols))
		for i := range rec {
			ptrs[i] = &rec[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountRecords returns the number of rows in table.
func CountRecords(ctx context.Context, db *sql.DB, table string) (int64, error) {
	if !validIdent(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n)
	return n, err
}

// LoadDataset reads table into an in-memory dataset.
func LoadDataset(ctx context.Context, db *sql.DB, table string, schema dataset.Schema, opts ...dataset.Option) (*dataset.Dataset, error) {
	rows, err := ReadRecords(ctx, db, table, schema)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return dataset.FromRecords(rows, schema, opts...)
}

// DropRecordsTable removes table if it exists.
func DropRecordsTable(ctx context.Context, db *sql.DB, table string) error {
	if !validIdent(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	return nil
}
