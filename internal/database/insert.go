package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brellorand/memento-mori-client/internal/catalog"
)

// BulkInserter handles efficient batch insertion of catalog rows
type BulkInserter struct {
	db        *Database
	batchSize int
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows to insert per transaction
	BatchSize int
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize: 5000,
	}
}

// NewBulkInserter creates a new bulk inserter with the given database and options
func NewBulkInserter(db *Database, options *BulkInsertOptions) *BulkInserter {
	if options == nil || options.BatchSize <= 0 {
		options = DefaultBulkInsertOptions()
	}

	return &BulkInserter{
		db:        db,
		batchSize: options.BatchSize,
	}
}

// InsertMetadata stores key/value pairs describing the export
func (bi *BulkInserter) InsertMetadata(ctx context.Context, values map[string]string) error {
	rows := make([][]any, 0, len(values))
	for k, v := range values {
		rows = append(rows, []any{k, v})
	}
	return bi.insertRows(ctx, TableMetadata, []string{"key", "value"}, rows)
}

// InsertLocations stores every resolved location with its position as _index
func (bi *BulkInserter) InsertLocations(ctx context.Context, locations []catalog.ResourceLocation) error {
	rows := make([][]any, 0, len(locations))
	for i, loc := range locations {
		depKey, err := valueColumn(loc.DependencyKey)
		if err != nil {
			return fmt.Errorf("location %d dependency key: %w", i, err)
		}
		primaryKey, err := valueColumn(loc.PrimaryKey)
		if err != nil {
			return fmt.Errorf("location %d primary key: %w", i, err)
		}
		extra, err := valueColumn(loc.ExtraData)
		if err != nil {
			return fmt.Errorf("location %d extra data: %w", i, err)
		}

		var keyType any
		if loc.PrimaryKey != nil {
			keyType = loc.PrimaryKey.Type().String()
		}

		rows = append(rows, []any{
			i,
			loc.InternalID,
			loc.ProviderID,
			depKey,
			loc.DependencyHash,
			primaryKey,
			keyType,
			loc.SerializedType.AssemblyName,
			loc.SerializedType.ClassName,
			extra,
		})
	}

	return bi.insertRows(ctx, TableLocations, []string{
		"_index", "internal_id", "provider_id", "dependency_key", "dependency_hash",
		"primary_key", "primary_key_type", "resource_assembly", "resource_class", "extra_data",
	}, rows)
}

// InsertBundlePaths stores the bundle names and the paths packed in each
func (bi *BulkInserter) InsertBundlePaths(ctx context.Context, m *catalog.BundlePathMap) error {
	bundleRows := make([][]any, 0, m.Len())
	var pathRows [][]any
	for bundle, paths := range m.All() {
		bundleRows = append(bundleRows, []any{bundle, len(bundleRows)})
		for _, p := range paths {
			pathRows = append(pathRows, []any{bundle, p})
		}
	}

	if err := bi.insertRows(ctx, TableBundles, []string{"name", "position"}, bundleRows); err != nil {
		return err
	}
	return bi.insertRows(ctx, TableBundlePaths, []string{"bundle", "path"}, pathRows)
}

// valueColumn renders a decoded catalog value as a column value: strings
// and numbers as text, JSON records as JSON, absent values as NULL.
func valueColumn(v catalog.Value) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case *catalog.JSONRecord:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serializing record to JSON: %w", err)
		}
		return string(data), nil
	default:
		return v.String(), nil
	}
}

func (bi *BulkInserter) insertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		slog.Debug("No rows to insert", "table", table)
		return nil
	}

	insertSQL := generateInsertSQL(table, columns)

	for i := 0; i < len(rows); i += bi.batchSize {
		end := min(i+bi.batchSize, len(rows))

		if err := bi.insertBatch(ctx, insertSQL, rows[i:end]); err != nil {
			return fmt.Errorf("inserting batch %d-%d for table %s: %w", i, end-1, table, err)
		}
	}

	slog.Debug("Inserted rows", "table", table, "rows", len(rows))
	return nil
}

func generateInsertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteSQLIdentifier(c)
		placeholders[i] = "?"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteSQLIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
}

// insertBatch inserts a single batch of rows within a transaction
func (bi *BulkInserter) insertBatch(ctx context.Context, insertSQL string, batch [][]any) error {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range batch {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
