package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/Dosada05/league-buysell/repositories"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies the idempotent schema for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var file string
	switch driver {
	case repositories.DriverPostgres:
		file = "schema/postgres.sql"
	case repositories.DriverSQLite:
		file = "schema/sqlite.sql"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	ddl, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", file, err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply schema %s: %w", file, err)
	}
	return nil
}
