// Package trash is the admin-side core of the trash dashboard: it loads
// soft-deleted records from every category, tracks the selection, and
// drives restore and permanent-delete calls against the entity store.
package trash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/model"
)

// Backend is the entity store as seen from the dashboard.
type Backend interface {
	ListDeleted(ctx context.Context, c model.Category) ([]model.Record, error)
	Restore(ctx context.Context, key model.Key) error
	PermanentDelete(ctx context.Context, key model.Key) error
}

// Apply dispatches action to the matching backend call.
func Apply(ctx context.Context, b Backend, action model.Action, key model.Key) error {
	switch action {
	case model.ActionRestore:
		return b.Restore(ctx, key)
	case model.ActionDelete:
		return b.PermanentDelete(ctx, key)
	default:
		return fmt.Errorf("%w: %q", model.ErrInvalidAction, action)
	}
}

const maxResponseBytes = 8 << 20

// HTTPClient talks to the entity store REST API. Every call is bounded by
// the configured per-request timeout.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	actor   string
}

type ClientOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.http = c }
}

// WithActor sets the X-Actor header used by the entity store audit log.
func WithActor(name string) ClientOption {
	return func(h *HTTPClient) { h.actor = name }
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) ListDeleted(ctx context.Context, cat model.Category) ([]model.Record, error) {
	body, status, err := c.do(ctx, http.MethodGet, category.ListDeletedPath(cat))
	if err != nil {
		return nil, fmt.Errorf("list deleted %s: %w", cat, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("list deleted %s: unexpected status %d", cat, status)
	}
	return DecodeRecords(cat, body)
}

func (c *HTTPClient) Restore(ctx context.Context, key model.Key) error {
	return c.act(ctx, http.MethodPost, category.RestorePath(key), key)
}

func (c *HTTPClient) PermanentDelete(ctx context.Context, key model.Key) error {
	return c.act(ctx, http.MethodDelete, category.DeletePath(key), key)
}

// act succeeds only on a 2xx status whose body reports success:true.
func (c *HTTPClient) act(ctx context.Context, method string, path string, key model.Key) error {
	body, status, err := c.do(ctx, method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(method), key, err)
	}

	var resp model.ActionResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status < 200 || status > 299 {
		return fmt.Errorf("%w: %s returned status %d%s", model.ErrActionRejected, key, status, reason(resp))
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s returned an unreadable body", model.ErrActionRejected, key)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s reported failure%s", model.ErrActionRejected, key, reason(resp))
	}
	return nil
}

func reason(resp model.ActionResponse) string {
	for _, s := range []string{resp.Error, resp.Message} {
		if strings.TrimSpace(s) != "" {
			return ": " + s
		}
	}
	return ""
}

func (c *HTTPClient) do(ctx context.Context, method string, path string) ([]byte, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.actor != "" {
		req.Header.Set("X-Actor", c.actor)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

var (
	labelFields  = []string{"label", "title", "name", "donor_name", "donor", "subject"}
	detailFields = []string{"detail", "description", "quote", "message", "purpose", "content", "excerpt"}
	mediaFields  = []string{"image", "media", "file"}
)

// DecodeRecords reads a category list response. The canonical envelope key
// is "items"; older servers use a per-category key, and a bare array is
// accepted too.
func DecodeRecords(cat model.Category, body []byte) ([]model.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []model.Record{}, nil
	}

	var raw json.RawMessage
	if trimmed[0] == '[' {
		raw = trimmed
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode %s envelope: %w", cat, err)
		}
		if flag, ok := envelope["success"]; ok && string(bytes.TrimSpace(flag)) == "false" {
			return nil, fmt.Errorf("%s list reported failure", cat)
		}
		raw = pickList(cat, envelope)
	}
	if raw == nil {
		return []model.Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode %s items: %w", cat, err)
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		rec, ok := normalize(cat, row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func pickList(cat model.Category, envelope map[string]json.RawMessage) json.RawMessage {
	if items, ok := envelope["items"]; ok {
		return items
	}
	if desc, ok := category.Lookup(cat); ok {
		if items, ok := envelope[desc.ResponseKey]; ok {
			return items
		}
	}
	if data, ok := envelope["data"]; ok && len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '[' {
		return data
	}
	return nil
}

func normalize(cat model.Category, row map[string]any) (model.Record, bool) {
	id, ok := toInt64(row["id"])
	if !ok || id <= 0 {
		return model.Record{}, false
	}

	rec := model.Record{
		ID:               id,
		Category:         cat,
		DashboardDeleted: toBool(row["dashboard_deleted"]) || toBool(row["is_deleted"]),
		Label:            firstString(row, labelFields),
		Detail:           firstString(row, detailFields),
		MediaPath:        firstString(row, mediaFields),
		CreatedAt:        toTime(row["created_at"]),
		UpdatedAt:        toTime(row["updated_at"]),
		Fields:           map[string]string{},
	}
	if rec.Label == "" {
		rec.Label = "Untitled"
	}
	if deletedAt := toTime(row["deleted_at"]); !deletedAt.IsZero() {
		rec.DeletedAt = &deletedAt
	}

	for k, v := range row {
		if s, ok := v.(string); ok {
			rec.Fields[k] = s
		}
	}
	return rec, true
}

func firstString(row map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := row[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case float64:
		return int64(t), t == float64(int64(t))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		return t.String() == "1"
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

func toTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
