package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/event"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/model"
	"ypg-dashboard/internal/storage"
)

type mockRecordRepo struct {
	mock.Mock
}

func (m *mockRecordRepo) List(ctx context.Context, c model.Category, deleted bool) ([]model.Record, error) {
	args := m.Called(ctx, c, deleted)
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *mockRecordRepo) Get(ctx context.Context, key model.Key) (model.Record, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *mockRecordRepo) Create(ctx context.Context, c model.Category, req model.CreateRecordRequest) (model.Record, error) {
	args := m.Called(ctx, c, req)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *mockRecordRepo) SoftDelete(ctx context.Context, key model.Key) (model.Record, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *mockRecordRepo) Restore(ctx context.Context, key model.Key) (model.Record, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *mockRecordRepo) Purge(ctx context.Context, key model.Key) (model.Record, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *mockRecordRepo) HardDelete(ctx context.Context, key model.Key) (model.Record, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Record), args.Error(1)
}

type serviceFixture struct {
	svc   *RecordService
	repo  *mockRecordRepo
	media *storage.MockMediaStore
	audit *AuditService
	bus   *event.InMemoryBus
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()

	audit, err := NewAuditService(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	repo := &mockRecordRepo{}
	media := &storage.MockMediaStore{}
	bus := event.NewBus()

	return serviceFixture{
		svc:   NewRecordService(repo, media, audit, bus, metrics.New()),
		repo:  repo,
		media: media,
		audit: audit,
		bus:   bus,
	}
}

func TestRecordService_PermanentDeleteRemovesMedia(t *testing.T) {
	f := newServiceFixture(t)
	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	key := model.NewKey(model.CategoryTeam, 1)
	purged := model.Record{ID: 1, Category: model.CategoryTeam, DashboardDeleted: true, Label: "Jane", MediaPath: "team/jane.jpg"}
	f.repo.On("Purge", mock.Anything, key).Return(purged, nil)
	f.media.On("Remove", "team/jane.jpg").Return(nil)

	rec, err := f.svc.PermanentDelete(context.Background(), key, model.AuditActor{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, purged, rec)

	f.repo.AssertExpectations(t)
	f.media.AssertExpectations(t)

	e := <-events
	assert.Equal(t, event.TypeRecordPurged, e.Type)

	entries, meta, err := f.audit.Query(model.AuditQuery{Action: AuditActionPurge})
	require.NoError(t, err)
	require.Equal(t, 1, meta.Total)
	assert.Equal(t, "team-1", entries[0].Resource)
	assert.Equal(t, AuditStatusSuccess, entries[0].Status)
}

func TestRecordService_PermanentDeleteToleratesMissingMedia(t *testing.T) {
	f := newServiceFixture(t)

	key := model.NewKey(model.CategoryMedia, 4)
	f.repo.On("Purge", mock.Anything, key).Return(model.Record{ID: 4, Category: model.CategoryMedia, MediaPath: "media/gone.png"}, nil)
	f.media.On("Remove", "media/gone.png").Return(model.ErrMediaNotFound)

	_, err := f.svc.PermanentDelete(context.Background(), key, model.AuditActor{})
	assert.NoError(t, err)
}

func TestRecordService_PermanentDeleteOutsideTrash(t *testing.T) {
	f := newServiceFixture(t)

	key := model.NewKey(model.CategoryEvents, 2)
	f.repo.On("Purge", mock.Anything, key).Return(model.Record{}, model.ErrRecordNotInTrash)

	_, err := f.svc.PermanentDelete(context.Background(), key, model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrRecordNotInTrash)
	f.media.AssertNotCalled(t, "Remove", mock.Anything)

	entries, _, err := f.audit.Query(model.AuditQuery{Status: AuditStatusFailure})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "events-2", entries[0].Resource)
}

func TestRecordService_RestorePublishesEvent(t *testing.T) {
	f := newServiceFixture(t)
	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	key := model.NewKey(model.CategoryEvents, 5)
	f.repo.On("Restore", mock.Anything, key).Return(model.Record{ID: 5, Category: model.CategoryEvents, Label: "Camp"}, nil)

	_, err := f.svc.Restore(context.Background(), key, model.AuditActor{Username: "admin"})
	require.NoError(t, err)

	e := <-events
	assert.Equal(t, event.TypeRecordRestored, e.Type)
	assert.Equal(t, "admin", e.Actor)
}

func TestRecordService_RejectsInvalidInput(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, model.CategoryBlog, model.CreateRecordRequest{Label: "  "}, model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.Restore(ctx, model.NewKey("quizzes", 1), model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrUnknownCategory)

	_, err = f.svc.List(ctx, "quizzes", true)
	assert.ErrorIs(t, err, model.ErrUnknownCategory)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
