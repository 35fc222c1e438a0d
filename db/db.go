package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
	_ "modernc.org/sqlite"

	"github.com/Dosada05/league-buysell/repositories"
)

// Open connects to the configured driver and verifies the connection.
func Open(driver, dsn string, timeout time.Duration) (*sql.DB, error) {
	switch driver {
	case repositories.DriverPostgres:
		return Connect(dsn, timeout)
	case repositories.DriverSQLite:
		return OpenSQLite(dsn, timeout)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, ping(db, timeout)
}

// OpenSQLite opens a SQLite file. Transactions start IMMEDIATE so a writer holds
// the database lock from BEGIN, which is what serializes marketplace submits
// when there is no row-level locking.
func OpenSQLite(path string, timeout time.Duration) (*sql.DB, error) {
	dsn := sqliteDSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite handle: %w", err)
	}
	return db, ping(db, timeout)
}

func sqliteDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(10000)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_txlock", "immediate")
	params.Set("_time_format", "sqlite")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + strings.TrimPrefix(path, "file:") + sep + params.Encode()
}

func ping(db *sql.DB, timeout time.Duration) error {
	// Verify the connection with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		// Close the handle if ping fails
		_ = db.Close()
		return fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}
	return nil
}
