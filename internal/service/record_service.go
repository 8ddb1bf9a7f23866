package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/event"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/model"
	"ypg-dashboard/internal/repository"
	"ypg-dashboard/internal/storage"
)

// RecordService applies lifecycle transitions to category records and
// records each one in the audit log and on the event bus.
type RecordService struct {
	repo    repository.RecordRepository
	media   storage.MediaStore
	audit   *AuditService
	bus     event.Bus
	metrics *metrics.Metrics
}

func NewRecordService(repo repository.RecordRepository, media storage.MediaStore, audit *AuditService, bus event.Bus, m *metrics.Metrics) *RecordService {
	return &RecordService{repo: repo, media: media, audit: audit, bus: bus, metrics: m}
}

func (s *RecordService) List(ctx context.Context, c model.Category, deleted bool) ([]model.Record, error) {
	if !category.Known(c) {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}
	return s.repo.List(ctx, c, deleted)
}

func (s *RecordService) Create(ctx context.Context, c model.Category, req model.CreateRecordRequest, actor model.AuditActor) (model.Record, error) {
	if !category.Known(c) {
		return model.Record{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}
	if strings.TrimSpace(req.Label) == "" {
		return model.Record{}, fmt.Errorf("%w: label is required", model.ErrInvalidInput)
	}

	rec, err := s.repo.Create(ctx, c, req)
	s.finish(AuditActionCreate, event.TypeRecordCreated, "create", c, rec, actor, err)
	return rec, err
}

func (s *RecordService) SoftDelete(ctx context.Context, key model.Key, actor model.AuditActor) (model.Record, error) {
	if err := validateKey(key); err != nil {
		return model.Record{}, err
	}

	rec, err := s.repo.SoftDelete(ctx, key)
	s.finish(AuditActionSoftDelete, event.TypeRecordSoftDeleted, "soft_delete", key.Category, rec, actor, err)
	return rec, err
}

func (s *RecordService) Restore(ctx context.Context, key model.Key, actor model.AuditActor) (model.Record, error) {
	if err := validateKey(key); err != nil {
		return model.Record{}, err
	}

	rec, err := s.repo.Restore(ctx, key)
	s.finish(AuditActionRestore, event.TypeRecordRestored, "restore", key.Category, recordOrKey(rec, key), actor, err)
	return rec, err
}

// PermanentDelete removes a trashed record and the media file it owns. A
// media file that is already gone does not fail the operation.
func (s *RecordService) PermanentDelete(ctx context.Context, key model.Key, actor model.AuditActor) (model.Record, error) {
	if err := validateKey(key); err != nil {
		return model.Record{}, err
	}

	rec, err := s.repo.Purge(ctx, key)
	if err == nil {
		s.removeMedia(rec)
	}
	s.finish(AuditActionPurge, event.TypeRecordPurged, "purge", key.Category, recordOrKey(rec, key), actor, err)
	return rec, err
}

// HardDelete bypasses the trash entirely.
func (s *RecordService) HardDelete(ctx context.Context, key model.Key, actor model.AuditActor) (model.Record, error) {
	if err := validateKey(key); err != nil {
		return model.Record{}, err
	}

	rec, err := s.repo.HardDelete(ctx, key)
	if err == nil {
		s.removeMedia(rec)
	}
	s.finish(AuditActionHardDelete, event.TypeRecordPurged, "hard_delete", key.Category, recordOrKey(rec, key), actor, err)
	return rec, err
}

func (s *RecordService) removeMedia(rec model.Record) {
	if s.media == nil || strings.TrimSpace(rec.MediaPath) == "" {
		return
	}

	err := s.media.Remove(rec.MediaPath)
	switch {
	case err == nil:
		slog.Info("media removed", "key", rec.Key().String(), "path", rec.MediaPath)
	case errors.Is(err, model.ErrMediaNotFound):
		slog.Warn("media already missing", "key", rec.Key().String(), "path", rec.MediaPath)
	default:
		slog.Error("failed to remove media", "key", rec.Key().String(), "path", rec.MediaPath, "error", err)
	}
}

func (s *RecordService) finish(auditAction string, eventType event.Type, transition string, c model.Category, rec model.Record, actor model.AuditActor, err error) {
	if s.metrics != nil {
		s.metrics.LifecycleTotal.WithLabelValues(string(c), transition, metrics.Outcome(err)).Inc()
	}

	resource := string(c)
	if rec.ID > 0 {
		resource = rec.Key().String()
	}
	s.audit.Log(auditAction, actor, resource, nil, auditSnapshot(rec), err)

	if err != nil || s.bus == nil {
		return
	}
	s.bus.Publish(event.New(eventType, rec, actor.Username))
}

func auditSnapshot(rec model.Record) any {
	if rec.ID == 0 {
		return nil
	}
	return map[string]any{
		"key":               rec.Key().String(),
		"label":             rec.Label,
		"dashboard_deleted": rec.DashboardDeleted,
	}
}

func recordOrKey(rec model.Record, key model.Key) model.Record {
	if rec.ID != 0 {
		return rec
	}
	return model.Record{ID: key.ID, Category: key.Category}
}

func validateKey(key model.Key) error {
	if !category.Known(key.Category) {
		return fmt.Errorf("%w: %q", model.ErrUnknownCategory, key.Category)
	}
	if key.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", model.ErrInvalidKey)
	}
	return nil
}
