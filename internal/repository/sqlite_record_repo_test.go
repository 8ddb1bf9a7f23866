package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/database"
	"ypg-dashboard/internal/model"
)

func setupSQLiteRepo(t *testing.T) *SQLiteRecordRepository {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))

	return NewSQLiteRecordRepository(db.Conn)
}

func TestSQLiteRecordRepository_Lifecycle(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CategoryTeam, model.CreateRecordRequest{
		Label: "Jane Doe", Detail: "Serving is joy", MediaPath: "team/jane.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryTeam, created.Category)
	assert.False(t, created.DashboardDeleted)
	assert.Equal(t, "Jane Doe", created.Fields["name"])
	assert.Equal(t, "team/jane.jpg", created.MediaPath)

	key := created.Key()

	trashed, err := repo.SoftDelete(ctx, key)
	require.NoError(t, err)
	assert.True(t, trashed.DashboardDeleted)
	require.NotNil(t, trashed.DeletedAt)

	deleted, err := repo.List(ctx, model.CategoryTeam, true)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, key, deleted[0].Key())

	active, err := repo.List(ctx, model.CategoryTeam, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	restored, err := repo.Restore(ctx, key)
	require.NoError(t, err)
	assert.False(t, restored.DashboardDeleted)
	assert.Nil(t, restored.DeletedAt)

	_, err = repo.Restore(ctx, key)
	assert.ErrorIs(t, err, model.ErrRecordNotInTrash)

	_, err = repo.Purge(ctx, key)
	assert.ErrorIs(t, err, model.ErrRecordNotInTrash)
}

func TestSQLiteRecordRepository_SoftDeleteIsIdempotent(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CategoryEvents, model.CreateRecordRequest{Label: "Youth Camp"})
	require.NoError(t, err)

	_, err = repo.SoftDelete(ctx, created.Key())
	require.NoError(t, err)

	again, err := repo.SoftDelete(ctx, created.Key())
	require.NoError(t, err)
	assert.True(t, again.DashboardDeleted)
}

func TestSQLiteRecordRepository_PurgeRemovesRow(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CategoryMedia, model.CreateRecordRequest{Label: "Banner", MediaPath: "media/banner.png"})
	require.NoError(t, err)
	_, err = repo.SoftDelete(ctx, created.Key())
	require.NoError(t, err)

	purged, err := repo.Purge(ctx, created.Key())
	require.NoError(t, err)
	assert.Equal(t, "media/banner.png", purged.MediaPath)

	_, err = repo.Get(ctx, created.Key())
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	_, err = repo.Purge(ctx, created.Key())
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
}

func TestSQLiteRecordRepository_NormalizesLegacyDeletedColumn(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CategoryPastExecutives, model.CreateRecordRequest{Label: "John Mensah", Detail: "2019-2021"})
	require.NoError(t, err)
	_, err = repo.SoftDelete(ctx, created.Key())
	require.NoError(t, err)

	deleted, err := repo.List(ctx, model.CategoryPastExecutives, true)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].DashboardDeleted)
	assert.Equal(t, "2019-2021", deleted[0].Fields["reign_period"])
	assert.Equal(t, model.VisibilityHiddenFromAdmin, deleted[0].Visibility())
}

func TestSQLiteRecordRepository_CategoriesAreIsolated(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	team, err := repo.Create(ctx, model.CategoryTeam, model.CreateRecordRequest{Label: "Ama"})
	require.NoError(t, err)
	event, err := repo.Create(ctx, model.CategoryEvents, model.CreateRecordRequest{Label: "Retreat"})
	require.NoError(t, err)
	require.Equal(t, team.ID, event.ID)

	_, err = repo.SoftDelete(ctx, team.Key())
	require.NoError(t, err)

	events, err := repo.List(ctx, model.CategoryEvents, true)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteRecordRepository_ListOrdersByDeletedTime(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first, err := repo.Create(ctx, model.CategoryBlog, model.CreateRecordRequest{Label: "First"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, model.CategoryBlog, model.CreateRecordRequest{Label: "Second"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	_, err = repo.SoftDelete(ctx, second.Key())
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = repo.SoftDelete(ctx, first.Key())
	require.NoError(t, err)

	deleted, err := repo.List(ctx, model.CategoryBlog, true)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, first.ID, deleted[0].ID)
	assert.Equal(t, second.ID, deleted[1].ID)
}

func TestSQLiteRecordRepository_UnknownCategory(t *testing.T) {
	repo := setupSQLiteRepo(t)

	_, err := repo.List(context.Background(), "quizzes", true)
	assert.ErrorIs(t, err, model.ErrUnknownCategory)
}
