package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported dialects of the sync store.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Open connects to the relational store. A postgres:// DSN selects the pgx
// driver; anything else is treated as a SQLite database path.
func Open(dsn string) (*sql.DB, string, error) {
	dialect := DialectSQLite
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialect = DialectPostgres
		driver = "pgx"
	}

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s store: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// modernc's driver is not safe for concurrent writers on one file.
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(5)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, "", fmt.Errorf("ping %s store: %w", dialect, err)
	}
	return database, dialect, nil
}
