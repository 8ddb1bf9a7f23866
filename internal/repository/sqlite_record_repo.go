package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"ypg-dashboard/internal/model"
)

// sqliteTimeLayout is fixed width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRecordRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLiteRecordRepository(db *sqlx.DB) *SQLiteRecordRepository {
	return &SQLiteRecordRepository{db: db, now: time.Now}
}

type sqliteRow struct {
	ID        int64          `db:"id"`
	Label     string         `db:"label"`
	Detail    string         `db:"detail"`
	Media     string         `db:"media"`
	Deleted   bool           `db:"deleted"`
	DeletedAt sql.NullString `db:"deleted_at"`
	CreatedAt sql.NullString `db:"created_at"`
	UpdatedAt sql.NullString `db:"updated_at"`
}

func (s sqliteRow) normalize() recordRow {
	row := recordRow{
		ID:        s.ID,
		Label:     s.Label,
		Detail:    s.Detail,
		Media:     s.Media,
		Deleted:   s.Deleted,
		CreatedAt: parseSQLiteTime(s.CreatedAt),
		UpdatedAt: parseSQLiteTime(s.UpdatedAt),
	}
	if deletedAt := parseSQLiteTime(s.DeletedAt); !deletedAt.IsZero() {
		row.DeletedAt = &deletedAt
	}
	return row
}

func parseSQLiteTime(raw sql.NullString) time.Time {
	value := strings.TrimSpace(raw.String)
	if !raw.Valid || value == "" {
		return time.Time{}
	}
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (r *SQLiteRecordRepository) timestamp() string {
	return r.now().UTC().Format(sqliteTimeLayout)
}

func (r *SQLiteRecordRepository) List(ctx context.Context, c model.Category, deleted bool) ([]model.Record, error) {
	q, err := queriesFor(c)
	if err != nil {
		return nil, err
	}

	var rows []sqliteRow
	if err := r.db.SelectContext(ctx, &rows, q.list, deleted); err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, q.toRecord(row.normalize()))
	}
	return records, nil
}

func (r *SQLiteRecordRepository) Get(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}
	return r.one(ctx, q, "get", q.get, key.ID)
}

func (r *SQLiteRecordRepository) Create(ctx context.Context, c model.Category, req model.CreateRecordRequest) (model.Record, error) {
	q, err := queriesFor(c)
	if err != nil {
		return model.Record{}, err
	}
	return r.one(ctx, q, "create", q.insert, q.insertArgs(req, r.timestamp())...)
}

func (r *SQLiteRecordRepository) SoftDelete(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}

	now := r.timestamp()
	rec, err := r.one(ctx, q, "soft delete", q.softDelete, now, now, key.ID)
	if errors.Is(err, model.ErrRecordNotFound) {
		current, lookupErr := r.Get(ctx, key)
		return current, missError(lookupErr, false)
	}
	return rec, err
}

func (r *SQLiteRecordRepository) Restore(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}

	rec, err := r.one(ctx, q, "restore", q.restore, r.timestamp(), key.ID)
	if errors.Is(err, model.ErrRecordNotFound) {
		_, lookupErr := r.Get(ctx, key)
		return model.Record{}, missError(lookupErr, true)
	}
	return rec, err
}

func (r *SQLiteRecordRepository) Purge(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}

	rec, err := r.one(ctx, q, "purge", q.purge, key.ID)
	if errors.Is(err, model.ErrRecordNotFound) {
		_, lookupErr := r.Get(ctx, key)
		return model.Record{}, missError(lookupErr, true)
	}
	return rec, err
}

func (r *SQLiteRecordRepository) HardDelete(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}
	return r.one(ctx, q, "hard delete", q.hardDelete, key.ID)
}

func (r *SQLiteRecordRepository) one(ctx context.Context, q recordQueries, op string, query string, args ...any) (model.Record, error) {
	var row sqliteRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, model.ErrRecordNotFound
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("%s %s: %w", op, q.desc.Key, err)
	}
	return q.toRecord(row.normalize()), nil
}
