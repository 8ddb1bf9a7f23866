package trash

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/model"
)

type Options struct {
	Concurrency int
	IntentTTL   time.Duration
	Metrics     *metrics.Metrics
}

// Dashboard owns the store, the selection, the executor and the active
// category filter for one admin session.
type Dashboard struct {
	store     *Store
	selection *Selection
	executor  *Executor

	mu     sync.RWMutex
	filter string
}

func NewDashboard(backend Backend, notifier Notifier, opts Options) *Dashboard {
	store := NewStore(backend, notifier, opts.Concurrency, opts.Metrics)
	selection := NewSelection()
	return &Dashboard{
		store:     store,
		selection: selection,
		executor: NewExecutor(backend, store, selection, notifier, ExecutorOptions{
			Concurrency: opts.Concurrency,
			IntentTTL:   opts.IntentTTL,
			Metrics:     opts.Metrics,
		}),
		filter: model.FilterAll,
	}
}

func (d *Dashboard) Store() *Store         { return d.store }
func (d *Dashboard) Selection() *Selection { return d.selection }
func (d *Dashboard) Executor() *Executor   { return d.executor }

func (d *Dashboard) Filter() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filter
}

// SetFilter switches the visible category and always clears the selection,
// even when the filter does not change. The filter and the selection change
// together under d.mu, so a concurrent SelectAllVisible cannot write keys
// from the old view back afterwards.
func (d *Dashboard) SetFilter(filter string) error {
	if !category.ValidFilter(filter) {
		return fmt.Errorf("%w: %q", model.ErrInvalidFilter, filter)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = filter
	d.selection.Clear()
	return nil
}

func (d *Dashboard) Refresh(ctx context.Context) (RefreshResult, error) {
	return d.store.Refresh(ctx)
}

func (d *Dashboard) Visible() []model.Record {
	return d.store.Items(d.Filter())
}

func (d *Dashboard) Toggle(rawKey string) (bool, error) {
	key, err := category.ParseKey(rawKey)
	if err != nil {
		return false, err
	}
	return d.selection.Toggle(key), nil
}

func (d *Dashboard) SelectAllVisible() {
	d.mu.Lock()
	defer d.mu.Unlock()

	visible := d.store.Items(d.filter)
	keys := make([]model.Key, 0, len(visible))
	for _, rec := range visible {
		keys = append(keys, rec.Key())
	}
	d.selection.SelectAll(keys)
}

func (d *Dashboard) ClearSelection() {
	d.selection.Clear()
}

func (d *Dashboard) OpenIntent(action model.Action, rawKey string) (Intent, error) {
	return d.executor.Open(action, rawKey)
}

func (d *Dashboard) ConfirmIntent(ctx context.Context, intentID string) (Outcome, error) {
	return d.executor.Confirm(ctx, intentID)
}

func (d *Dashboard) CancelIntent(intentID string) error {
	return d.executor.Cancel(intentID)
}

// Bulk runs action over rawKeys, or over the current selection when no keys
// are given.
func (d *Dashboard) Bulk(ctx context.Context, action model.Action, rawKeys []string) (BulkOutcome, error) {
	if len(rawKeys) == 0 {
		for _, key := range d.selection.Keys() {
			rawKeys = append(rawKeys, key.String())
		}
	}
	return d.executor.Bulk(ctx, action, rawKeys)
}

type CategoryChip struct {
	Key    model.Category `json:"key"`
	Label  string         `json:"label"`
	Plural string         `json:"plural"`
	Icon   string         `json:"icon"`
	Color  string         `json:"color"`
	Count  int            `json:"count"`
}

type Item struct {
	Key           string         `json:"key"`
	Category      model.Category `json:"category"`
	CategoryLabel string         `json:"category_label"`
	Icon          string         `json:"icon"`
	Color         string         `json:"color"`
	Label         string         `json:"label"`
	Detail        string         `json:"detail,omitempty"`
	DeletedAt     time.Time      `json:"deleted_at"`
	Selected      bool           `json:"selected"`
	InFlight      bool           `json:"in_flight"`
	Record        model.Record   `json:"record"`
}

type Snapshot struct {
	Filter     string         `json:"filter"`
	Loading    bool           `json:"loading"`
	Total      int            `json:"total"`
	Categories []CategoryChip `json:"categories"`
	Items      []Item         `json:"items"`
	Selected   []string       `json:"selected"`
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	filter := d.filter
	selected := d.selection.Keys()
	d.mu.RUnlock()

	view := d.store.View(filter)

	snap := Snapshot{
		Filter:     filter,
		Loading:    view.Loading,
		Total:      view.Counts[model.FilterAll],
		Categories: make([]CategoryChip, 0, len(category.Keys())),
		Items:      make([]Item, 0, len(view.Items)),
		Selected:   make([]string, 0, len(selected)),
	}

	for _, desc := range category.All() {
		snap.Categories = append(snap.Categories, CategoryChip{
			Key:    desc.Key,
			Label:  desc.Label,
			Plural: desc.Plural,
			Icon:   desc.Icon,
			Color:  desc.Color,
			Count:  view.Counts[string(desc.Key)],
		})
	}

	isSelected := make(map[model.Key]struct{}, len(selected))
	for _, key := range selected {
		isSelected[key] = struct{}{}
		snap.Selected = append(snap.Selected, key.String())
	}

	for _, rec := range view.Items {
		desc := category.Describe(rec.Category)
		key := rec.Key()
		_, sel := isSelected[key]
		snap.Items = append(snap.Items, Item{
			Key:           key.String(),
			Category:      rec.Category,
			CategoryLabel: desc.Label,
			Icon:          desc.Icon,
			Color:         desc.Color,
			Label:         rec.Label,
			Detail:        rec.Detail,
			DeletedAt:     rec.DisplayTime(),
			Selected:      sel,
			InFlight:      d.executor.InFlight(key),
			Record:        rec,
		})
	}
	return snap
}
