package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"ypg-dashboard/internal/model"
	"ypg-dashboard/pkg/apierror"
)

const (
	AuditActionCreate     = "record.create"
	AuditActionSoftDelete = "record.soft_delete"
	AuditActionRestore    = "record.restore"
	AuditActionPurge      = "record.purge"
	AuditActionHardDelete = "record.hard_delete"

	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// AuditService appends lifecycle transitions to a JSON-lines file.
type AuditService struct {
	filePath string
	mu       sync.Mutex
	now      func() time.Time
}

func NewAuditService(filePath string) (*AuditService, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("initialize audit file: %w", err)
	}
	_ = f.Close()

	return &AuditService{filePath: filePath, now: time.Now}, nil
}

func (s *AuditService) Log(action string, actor model.AuditActor, resource string, before any, after any, opErr error) {
	if s == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: s.now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     AuditStatusSuccess,
		Resource:   resource,
		Before:     before,
		After:      after,
	}
	if opErr != nil {
		entry.Status = AuditStatusFailure
		entry.Error = opErr.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Error("marshal audit entry", "error", err, "action", action)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Error("open audit log", "error", err, "path", s.filePath)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		slog.Error("write audit entry", "error", err, "action", action)
	}
}

func (s *AuditService) Query(query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'from' datetime format", query.From)
	}

	to, err := parseOptionalAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'to' datetime format", query.To)
	}

	action := strings.ToLower(strings.TrimSpace(query.Action))
	status := strings.ToLower(strings.TrimSpace(query.Status))
	resource := strings.ToLower(strings.TrimSpace(query.Resource))

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, model.Meta{}, err
	}
	defer f.Close()

	type timedEntry struct {
		entry model.AuditEntry
		at    time.Time
	}

	matched := make([]timedEntry, 0, 128)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.AuditEntry
		if json.Unmarshal([]byte(line), &entry) != nil {
			continue
		}

		if action != "" && strings.ToLower(entry.Action) != action {
			continue
		}
		if status != "" && strings.ToLower(entry.Status) != status {
			continue
		}
		if resource != "" && !strings.Contains(strings.ToLower(entry.Resource), resource) {
			continue
		}

		at, timeErr := parseAuditTime(entry.OccurredAt)
		if timeErr != nil {
			continue
		}
		if !from.IsZero() && at.Before(from) {
			continue
		}
		if !to.IsZero() && at.After(to) {
			continue
		}

		matched = append(matched, timedEntry{entry: entry, at: at})
	}

	if err := scanner.Err(); err != nil {
		return nil, model.Meta{}, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].at.After(matched[j].at)
	})

	total := len(matched)
	start := min((query.Page-1)*query.Limit, total)
	end := min(start+query.Limit, total)

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	items := make([]model.AuditEntry, 0, end-start)
	for _, m := range matched[start:end] {
		items = append(items, m.entry)
	}

	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}
	return items, meta, nil
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	return parseAuditTime(trimmed)
}

func parseAuditTime(raw string) (time.Time, error) {
	value, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
