package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/brellorand/memento-mori-client/internal/database"
	"github.com/spf13/cobra"
)

var (
	queryTables bool
	querySchema string
)

var queryCmd = &cobra.Command{
	Use:   "query [SQL]",
	Short: "Query an exported catalog database",
	Long: `Query executes SQL against a database written by the export command, lists
its tables, or shows the columns of one table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := database.DefaultDatabaseOptions(dbPath)
		opts.ReadOnly = true
		db, err := database.NewDatabase(opts)
		if err != nil {
			return err
		}
		defer db.Close()

		w := cmd.OutOrStdout()
		switch {
		case queryTables:
			return listTables(cmd.Context(), w, db)
		case querySchema != "":
			return showSchema(cmd.Context(), w, db, querySchema)
		case len(args) > 0:
			return runQuery(cmd.Context(), w, db, args[0])
		}
		return errors.New("no query provided, use --tables to list tables or --schema <table> to show schema")
	},
}

func listTables(ctx context.Context, w io.Writer, db *database.Database) error {
	tables, err := db.Tables(ctx)
	if err != nil {
		return err
	}
	for _, name := range tables {
		fmt.Fprintln(w, name)
	}
	return nil
}

func showSchema(ctx context.Context, w io.Writer, db *database.Database, table string) error {
	slog.Debug("Getting table schema", "table", table)

	cols, err := db.Columns(ctx, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %q does not exist", table)
	}

	fmt.Fprintf(w, "%-20s %-10s %-8s %-10s %s\n", "Column", "Type", "NotNull", "Default", "Primary")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, c := range cols {
		def := "NULL"
		if c.Default != nil {
			def = *c.Default
		}
		fmt.Fprintf(w, "%-20s %-10s %-8s %-10s %s\n", c.Name, c.Type, yesNo(c.NotNull), def, yesNo(c.PrimaryKey))
	}
	return nil
}

// runQuery prints the result set as tab separated columns under a header row.
func runQuery(ctx context.Context, w io.Writer, db *database.Database, query string) error {
	slog.Debug("Executing SQL query", "query", query)

	rows, err := db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting column names: %w", err)
	}
	fmt.Fprintln(w, strings.Join(columns, "\t"))

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	cells := make([]string, len(columns))

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range values {
			switch v := v.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = string(v)
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&queryTables, "tables", false, "list available tables")
	queryCmd.Flags().StringVar(&querySchema, "schema", "", "show the columns of a table")
}
