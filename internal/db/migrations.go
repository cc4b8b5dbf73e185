package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is what a caller needs from the database: tables created in order,
// then columns added to tables that predate them.
type Schema struct {
	Tables  []string
	Columns []Column
}

// Column is a column added to an existing table when missing.
type Column struct {
	Table      string
	Name       string
	Definition string
}

func (s Schema) apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range s.Tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	for _, c := range s.Columns {
		if err := addColumnIfNotExists(ctx, db, c); err != nil {
			return fmt.Errorf("adding %s.%s: %w", c.Table, c.Name, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, c Column) error {
	exists, err := columnExists(ctx, db, c.Table, c.Name)
	if err != nil || exists {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.Table, c.Name, c.Definition))
	return err
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (found bool, err error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}
	return found, nil
}
