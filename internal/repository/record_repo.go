package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/model"
)

// RecordRepository persists deletable records for every registered category.
// Implementations normalize each table's deletion column onto
// Record.DashboardDeleted.
type RecordRepository interface {
	List(ctx context.Context, c model.Category, deleted bool) ([]model.Record, error)
	Get(ctx context.Context, key model.Key) (model.Record, error)
	Create(ctx context.Context, c model.Category, req model.CreateRecordRequest) (model.Record, error)
	SoftDelete(ctx context.Context, key model.Key) (model.Record, error)
	Restore(ctx context.Context, key model.Key) (model.Record, error)
	// Purge removes a record that is in the trash.
	Purge(ctx context.Context, key model.Key) (model.Record, error)
	// HardDelete removes a record regardless of its state.
	HardDelete(ctx context.Context, key model.Key) (model.Record, error)
}

// recordQueries holds the statements for one category. Identifiers come
// from the static registry only, never from request input.
type recordQueries struct {
	desc       category.Descriptor
	columns    string
	list       string
	get        string
	insert     string
	softDelete string
	restore    string
	purge      string
	hardDelete string
}

func queriesFor(c model.Category) (recordQueries, error) {
	desc, ok := category.Lookup(c)
	if !ok {
		return recordQueries{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}

	media := "''"
	if desc.MediaColumn != "" {
		media = "COALESCE(" + desc.MediaColumn + ", '')"
	}

	columns := strings.Join([]string{
		"id",
		"COALESCE(" + desc.LabelColumn + ", '') AS label",
		"COALESCE(" + desc.DetailColumn + ", '') AS detail",
		media + " AS media",
		desc.DeletedColumn + " AS deleted",
		"deleted_at",
		"created_at",
		"updated_at",
	}, ", ")

	insertColumns := []string{desc.LabelColumn, desc.DetailColumn}
	if desc.MediaColumn != "" {
		insertColumns = append(insertColumns, desc.MediaColumn)
	}
	insertColumns = append(insertColumns, "created_at", "updated_at")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", ")

	flag := desc.DeletedColumn
	return recordQueries{
		desc:    desc,
		columns: columns,
		list: fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY COALESCE(deleted_at, updated_at) DESC, id DESC`,
			columns, desc.Table, flag),
		get: fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, columns, desc.Table),
		insert: fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
			desc.Table, strings.Join(insertColumns, ", "), placeholders, columns),
		softDelete: fmt.Sprintf(`UPDATE %s SET %s = TRUE, deleted_at = ?, updated_at = ? WHERE id = ? AND %s = FALSE RETURNING %s`,
			desc.Table, flag, flag, columns),
		restore: fmt.Sprintf(`UPDATE %s SET %s = FALSE, deleted_at = NULL, updated_at = ? WHERE id = ? AND %s = TRUE RETURNING %s`,
			desc.Table, flag, flag, columns),
		purge: fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND %s = TRUE RETURNING %s`,
			desc.Table, flag, columns),
		hardDelete: fmt.Sprintf(`DELETE FROM %s WHERE id = ? RETURNING %s`, desc.Table, columns),
	}, nil
}

func (q recordQueries) insertArgs(req model.CreateRecordRequest, now any) []any {
	args := []any{strings.TrimSpace(req.Label), strings.TrimSpace(req.Detail)}
	if q.desc.MediaColumn != "" {
		args = append(args, strings.TrimSpace(req.MediaPath))
	}
	return append(args, now, now)
}

// recordRow is the normalized projection produced by every query above.
type recordRow struct {
	ID        int64
	Label     string
	Detail    string
	Media     string
	Deleted   bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q recordQueries) toRecord(row recordRow) model.Record {
	fields := map[string]string{
		q.desc.LabelColumn:  row.Label,
		q.desc.DetailColumn: row.Detail,
	}
	if q.desc.MediaColumn != "" && q.desc.MediaColumn != "image" {
		fields[q.desc.MediaColumn] = row.Media
	}

	return model.Record{
		ID:               row.ID,
		Category:         q.desc.Key,
		DashboardDeleted: row.Deleted,
		Label:            row.Label,
		Detail:           row.Detail,
		MediaPath:        row.Media,
		DeletedAt:        row.DeletedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		Fields:           fields,
	}
}

// missError explains why a state transition touched no rows. A missing
// record keeps its lookup error; a record in the wrong state fails only when
// the transition required it to be in the trash.
func missError(lookupErr error, requireTrashed bool) error {
	if lookupErr != nil {
		return lookupErr
	}
	if requireTrashed {
		return model.ErrRecordNotInTrash
	}
	return nil
}
