package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Table names of an exported catalog
const (
	TableMetadata    = "_metadata"
	TableLocations   = "locations"
	TableBundles     = "bundles"
	TableBundlePaths = "bundle_paths"
)

// tableDefs lists each table's columns in creation order. Tables referenced
// by foreign keys come first.
var tableDefs = []struct {
	name    string
	columns []string
	extra   []string
}{
	{
		name: TableMetadata,
		columns: []string{
			`"key" TEXT PRIMARY KEY`,
			`"value" TEXT NOT NULL`,
		},
	},
	{
		name: TableBundles,
		columns: []string{
			`"name" TEXT PRIMARY KEY`,
			`"position" INTEGER NOT NULL`,
		},
	},
	{
		name: TableBundlePaths,
		columns: []string{
			`"bundle" TEXT NOT NULL`,
			`"path" TEXT NOT NULL`,
		},
		extra: []string{
			`PRIMARY KEY ("bundle", "path")`,
			`FOREIGN KEY ("bundle") REFERENCES "bundles"("name")`,
		},
	},
	{
		name: TableLocations,
		columns: []string{
			`"_index" INTEGER PRIMARY KEY`,
			`"internal_id" TEXT NOT NULL`,
			`"provider_id" TEXT NOT NULL`,
			`"dependency_key" TEXT`,
			`"dependency_hash" INTEGER NOT NULL`,
			`"primary_key" TEXT`,
			`"primary_key_type" TEXT`,
			`"resource_assembly" TEXT NOT NULL`,
			`"resource_class" TEXT NOT NULL`,
			`"extra_data" TEXT`,
		},
	},
}

var indexDefs = []string{
	`CREATE INDEX IF NOT EXISTS "idx_bundle_paths_path" ON "bundle_paths"("path")`,
	`CREATE INDEX IF NOT EXISTS "idx_locations_primary_key" ON "locations"("primary_key")`,
	`CREATE INDEX IF NOT EXISTS "idx_locations_dependency_key" ON "locations"("dependency_key")`,
}

// GenerateTableDDL returns the CREATE TABLE statements for all tables
func GenerateTableDDL() []string {
	ddl := make([]string, 0, len(tableDefs))
	for _, t := range tableDefs {
		parts := append(append([]string{}, t.columns...), t.extra...)
		ddl = append(ddl, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
			quoteSQLIdentifier(t.name),
			strings.Join(parts, ",\n    ")))
	}
	return ddl
}

// CreateSchema creates every table and index in one transaction
func (d *Database) CreateSchema(ctx context.Context) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range append(GenerateTableDDL(), indexDefs...) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL %q: %w", firstLine(stmt), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	slog.Debug("Created database schema", "tables", len(tableDefs), "indexes", len(indexDefs))
	return nil
}

// DropSchema removes every exported table
func (d *Database) DropSchema(ctx context.Context) error {
	for i := len(tableDefs) - 1; i >= 0; i-- {
		if _, err := d.Exec(ctx, "DROP TABLE IF EXISTS "+quoteSQLIdentifier(tableDefs[i].name)); err != nil {
			return fmt.Errorf("dropping table %s: %w", tableDefs[i].name, err)
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// quoteSQLIdentifier quotes SQL identifiers to prevent conflicts with reserved words
func quoteSQLIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, identifier)
}
