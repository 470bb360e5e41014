package main

import (
	"fmt"

	"github.com/brellorand/memento-mori-client/internal/database"
	"github.com/spf13/cobra"
)

var (
	dbPath      string
	exportForce bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export resolved locations and bundle paths to a SQLite database",
	Long: `Export writes the resolved resource locations and the bundle path map of
the catalog into SQLite tables (locations, bundles, bundle_paths) for ad-hoc
querying with the query command or any SQLite client.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(dbPath))
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		defer db.Close()

		return database.Export(cmd.Context(), db, c, database.ExportOptions{
			AssetVersion: s.version,
			System:       cfg.System,
			Force:        exportForce,
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.PersistentFlags().StringVar(&dbPath, "database", "mmassets.db", "database file path")
	exportCmd.Flags().BoolVarP(&exportForce, "force", "F", false, "replace an existing export")
}
