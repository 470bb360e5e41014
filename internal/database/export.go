package database

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/brellorand/memento-mori-client/internal/catalog"
	"github.com/brellorand/memento-mori-client/internal/utils"
)

// ExportOptions controls Export
type ExportOptions struct {
	// AssetVersion and System are recorded in the _metadata table
	AssetVersion string
	System       string
	// Force replaces an existing export
	Force     bool
	BatchSize int
}

// Export writes the resolved locations and the bundle path map of a catalog
// into the database. A database that already holds tables is refused unless
// opts.Force is set, in which case they are dropped first.
func Export(ctx context.Context, db *Database, c *catalog.Catalog, opts ExportOptions) error {
	start := time.Now()

	exists, err := db.HasUserTables(ctx)
	if err != nil {
		return err
	}
	if exists {
		if !opts.Force {
			return fmt.Errorf("database %s already contains an export (use --force to replace it)", db.path)
		}
		if err := db.DropSchema(ctx); err != nil {
			return err
		}
	}

	if err := db.CreateSchema(ctx); err != nil {
		return err
	}

	bi := NewBulkInserter(db, &BulkInsertOptions{BatchSize: opts.BatchSize})

	if err := bi.InsertMetadata(ctx, map[string]string{
		"asset_version": opts.AssetVersion,
		"system":        opts.System,
		"locator_id":    c.LocatorID(),
		"exported_at":   time.Now().UTC().Format(time.RFC3339),
		"locations":     strconv.Itoa(len(c.Locations())),
	}); err != nil {
		return fmt.Errorf("inserting metadata: %w", err)
	}
	if err := bi.InsertBundlePaths(ctx, c.BundlePathMap()); err != nil {
		return fmt.Errorf("inserting bundle paths: %w", err)
	}
	if err := bi.InsertLocations(ctx, c.Locations()); err != nil {
		return fmt.Errorf("inserting locations: %w", err)
	}

	slog.Info("Exported catalog",
		"database", db.path,
		"locations", utils.Number(int64(len(c.Locations()))),
		"bundles", utils.Number(int64(c.BundlePathMap().Len())),
		"elapsed", utils.Duration(time.Since(start)))
	return nil
}
