package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"ypg-dashboard/internal/model"
)

type PostgresRecordRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRecordRepository(pool *pgxpool.Pool) *PostgresRecordRepository {
	return &PostgresRecordRepository{pool: pool}
}

func pg(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

func scanPgRow(row pgx.Row) (recordRow, error) {
	var r recordRow
	err := row.Scan(&r.ID, &r.Label, &r.Detail, &r.Media, &r.Deleted, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *PostgresRecordRepository) List(ctx context.Context, c model.Category, deleted bool) ([]model.Record, error) {
	q, err := queriesFor(c)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, pg(q.list), deleted)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		row, err := scanPgRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s record: %w", c, err)
		}
		records = append(records, q.toRecord(row))
	}
	return records, rows.Err()
}

func (r *PostgresRecordRepository) Get(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}
	return r.one(ctx, q, "get", pg(q.get), key.ID)
}

func (r *PostgresRecordRepository) Create(ctx context.Context, c model.Category, req model.CreateRecordRequest) (model.Record, error) {
	q, err := queriesFor(c)
	if err != nil {
		return model.Record{}, err
	}
	return r.one(ctx, q, "create", pg(q.insert), q.insertArgs(req, time.Now().UTC())...)
}

func (r *PostgresRecordRepository) SoftDelete(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}

	now := time.Now().UTC()
	rec, err := r.one(ctx, q, "soft delete", pg(q.softDelete), now, now, key.ID)
	if errors.Is(err, model.ErrRecordNotFound) {
		current, lookupErr := r.Get(ctx, key)
		return current, missError(lookupErr, false)
	}
	return rec, err
}

func (r *PostgresRecordRepository) Restore(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}

	rec, err := r.one(ctx, q, "restore", pg(q.restore), time.Now().UTC(), key.ID)
	if errors.Is(err, model.ErrRecordNotFound) {
		_, lookupErr := r.Get(ctx, key)
		return model.Record{}, missError(lookupErr, true)
	}
	return rec, err
}

func (r *PostgresRecordRepository) Purge(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}

	rec, err := r.one(ctx, q, "purge", pg(q.purge), key.ID)
	if errors.Is(err, model.ErrRecordNotFound) {
		_, lookupErr := r.Get(ctx, key)
		return model.Record{}, missError(lookupErr, true)
	}
	return rec, err
}

func (r *PostgresRecordRepository) HardDelete(ctx context.Context, key model.Key) (model.Record, error) {
	q, err := queriesFor(key.Category)
	if err != nil {
		return model.Record{}, err
	}
	return r.one(ctx, q, "hard delete", pg(q.hardDelete), key.ID)
}

func (r *PostgresRecordRepository) one(ctx context.Context, q recordQueries, op string, query string, args ...any) (model.Record, error) {
	row, err := scanPgRow(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Record{}, model.ErrRecordNotFound
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("%s %s: %w", op, q.desc.Key, err)
	}
	return q.toRecord(row), nil
}
