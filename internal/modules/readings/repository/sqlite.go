package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aquadash/internal/modules/readings/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/list-recent-readings.sql
var listRecentReadingsSQL string

//go:embed sql/latest-created-at.sql
var latestCreatedAtSQL string

// timeLayout is fixed width so lexical order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type sqliteRepository struct {
	db    *sql.DB
	clock *clock
}

// NewSQLiteRepository expects the schema from internal/migrate to be applied.
func NewSQLiteRepository(ctx context.Context, db *sql.DB, opts ...Option) (ReadingRepository, error) {
	r := &sqliteRepository{db: db, clock: newClock(opts)}

	var ts string
	err := db.QueryRowContext(ctx, latestCreatedAtSQL).Scan(&ts)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("read latest timestamp: %w", err)
	default:
		t, err := parseTime(ts)
		if err != nil {
			return nil, err
		}
		r.clock.seed(t)
	}
	return r, nil
}

func (r *sqliteRepository) Create(ctx context.Context, in types.NewReading) (types.Reading, error) {
	now := r.clock.next()
	rec := types.Reading{
		ID:          uuid.NewString(),
		Temperature: in.Temperature,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ts := now.Format(timeLayout)
	if _, err := r.db.ExecContext(ctx, insertReadingSQL, rec.ID, rec.Temperature, int(rec.Status), ts, ts); err != nil {
		return types.Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	return rec, nil
}

func (r *sqliteRepository) ListRecent(ctx context.Context, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, listRecentReadingsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	out := make([]types.Reading, 0, limit)
	for rows.Next() {
		var (
			rec                  types.Reading
			status               int
			createdAt, updatedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Temperature, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec.Status = types.Status(status)
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	var ok int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	return nil
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	t, err2 := time.Parse(time.RFC3339Nano, s)
	if err2 != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w; RFC3339Nano: %w", s, err, err2)
	}
	return t.UTC(), nil
}
