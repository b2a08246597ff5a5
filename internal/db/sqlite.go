package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"aquadash/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens the SQLite database named by cfg.DatabaseURL, applies pool
// settings and verifies connectivity.
func OpenSQLite(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dsn, err := BuildSQLiteDSN(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		connector, err := NewLoggingConnector(dsn, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(config.DriverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	// SQLite serialises writers; one connection keeps inserts ordered.
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

// BuildSQLiteDSN turns DATABASE_URL into a go-sqlite3 DSN. Accepted forms are
// "sqlite://<path>", "sqlite:<path>", "file:<path>[?params]", ":memory:" and a
// bare filesystem path.
func BuildSQLiteDSN(databaseURL string) (string, error) {
	path := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = strings.TrimPrefix(path, "sqlite://")
	case strings.HasPrefix(path, "sqlite:"):
		path = strings.TrimPrefix(path, "sqlite:")
	}
	if path == "" {
		return "", fmt.Errorf("empty sqlite path in %q", databaseURL)
	}
	if path == ":memory:" {
		return path, nil
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
