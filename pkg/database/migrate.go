package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. The locations table name is
// configurable, so "{{locations}}" in schema.sql is replaced by table.
// The caller is expected to have validated table.
func Migrate(db *sql.DB, table string) error {
	stmt := strings.ReplaceAll(schemaSQL, "{{locations}}", table)
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	// author_stats predates canonical_id in older data files
	if err := addColumn(db, "author_stats", "canonical_id", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	return nil
}

// addColumn adds column to table unless it is already there.
func addColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table info %s: %w", table, err)
	}
	rows.Close()

	if _, err := db.Exec(`ALTER TABLE ` + table + ` ADD COLUMN ` + column + ` ` + decl); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}
