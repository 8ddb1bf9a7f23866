package trash

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/model"
)

// RefreshResult summarizes one committed refresh.
type RefreshResult struct {
	Loaded int              `json:"loaded"`
	Failed []model.Category `json:"failed,omitempty"`
}

// Store holds the deleted records of every category. Records only enter it
// through Refresh and only leave it through Remove or a later Refresh.
type Store struct {
	backend     Backend
	notifier    Notifier
	concurrency int
	metrics     *metrics.Metrics

	mu         sync.Mutex
	items      map[model.Category][]model.Record
	loading    bool
	generation uint64
	cancel     context.CancelFunc
	// tombstones are keys removed while a refresh was in flight; that
	// refresh must not bring them back.
	tombstones map[model.Key]struct{}
}

func NewStore(backend Backend, notifier Notifier, concurrency int, m *metrics.Metrics) *Store {
	if concurrency <= 0 {
		concurrency = len(category.Keys())
	}
	return &Store{
		backend:     backend,
		notifier:    notifier,
		concurrency: concurrency,
		metrics:     m,
		items:       make(map[model.Category][]model.Record),
		tombstones:  make(map[model.Key]struct{}),
	}
}

type categoryResult struct {
	records []model.Record
	err     error
}

// Refresh reloads every category in parallel. Each category fails on its
// own and is shown empty; when all of them fail the previous state is kept
// and ErrRefreshFailed is returned. Starting a refresh cancels the one in
// flight, and a superseded refresh returns ErrRefreshStale without
// committing anything.
func (s *Store) Refresh(ctx context.Context) (RefreshResult, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.loading = true
	s.tombstones = make(map[model.Key]struct{})
	s.mu.Unlock()
	defer cancel()

	started := time.Now()
	descriptors := category.All()
	results := make([]categoryResult, len(descriptors))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, d := range descriptors {
		i, d := i, d
		g.Go(func() error {
			records, err := s.backend.ListDeleted(ctx, d.Key)
			results[i] = categoryResult{records: records, err: err}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return RefreshResult{}, model.ErrRefreshStale
	}
	s.loading = false
	s.cancel = nil

	// the caller gave up; nothing fetched under a dead context is trusted
	if err := ctx.Err(); err != nil {
		return RefreshResult{}, err
	}

	var result RefreshResult
	next := make(map[model.Category][]model.Record, len(descriptors))
	for i, d := range descriptors {
		res := results[i]
		if res.err != nil {
			slog.Error("failed to load deleted items", "category", d.Key, "error", res.err)
			result.Failed = append(result.Failed, d.Key)
			next[d.Key] = []model.Record{}
			continue
		}
		next[d.Key] = s.admit(d.Key, res.records)
		result.Loaded += len(next[d.Key])
	}

	if len(result.Failed) == len(descriptors) {
		s.notify(failure("Failed to load deleted items"))
		return result, model.ErrRefreshFailed
	}

	s.items = next
	s.observe(time.Since(started))
	return result, nil
}

// admit keeps only records that are really in the trash, once per key, and
// not removed while this refresh was running.
func (s *Store) admit(c model.Category, records []model.Record) []model.Record {
	seen := make(map[model.Key]struct{}, len(records))
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		rec.Category = c
		key := rec.Key()
		if !rec.DashboardDeleted {
			slog.Warn("dropping record not flagged as deleted", "key", key.String())
			continue
		}
		if _, gone := s.tombstones[key]; gone {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Items returns the view for filter: one category, or every category
// flattened for "all". Both are ordered newest deletion first. An unknown
// filter yields an empty view.
func (s *Store) Items(filter string) []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked(filter)
}

func (s *Store) itemsLocked(filter string) []model.Record {
	var out []model.Record
	switch {
	case filter == model.FilterAll:
		for _, c := range category.Keys() {
			out = append(out, s.items[c]...)
		}
	case category.Known(model.Category(filter)):
		out = append(out, s.items[model.Category(filter)]...)
	default:
		return []model.Record{}
	}

	sortNewestFirst(out)
	if out == nil {
		out = []model.Record{}
	}
	return out
}

// View is a point-in-time copy of the store for one filter.
type View struct {
	Loading bool
	Counts  map[string]int
	Items   []model.Record
}

// View reads the loading flag, the counts and the filtered items under a
// single lock, so the counts always agree with the items.
func (s *Store) View(filter string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Loading: s.loading,
		Counts:  s.countsLocked(),
		Items:   s.itemsLocked(filter),
	}
}

// Get returns the record for key when it is in the store.
func (s *Store) Get(key model.Key) (model.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.items[key.Category] {
		if rec.ID == key.ID {
			return rec, true
		}
	}
	return model.Record{}, false
}

// Counts returns the number of items per category plus the "all" total.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked()
}

func (s *Store) countsLocked() map[string]int {
	counts := make(map[string]int, len(s.items)+1)
	total := 0
	for _, c := range category.Keys() {
		n := len(s.items[c])
		counts[string(c)] = n
		total += n
	}
	counts[model.FilterAll] = total
	return counts
}

// Remove drops keys from the store. Absent keys are ignored.
func (s *Store) Remove(keys ...model.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if s.loading {
			s.tombstones[key] = struct{}{}
		}
		list := s.items[key.Category]
		for i, rec := range list {
			if rec.ID == key.ID {
				s.items[key.Category] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	s.observeCountsLocked()
}

func (s *Store) notify(n model.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func (s *Store) observe(elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RefreshDuration.Observe(elapsed.Seconds())
	s.observeCountsLocked()
}

func (s *Store) observeCountsLocked() {
	if s.metrics == nil {
		return
	}
	for _, c := range category.Keys() {
		s.metrics.TrashItems.WithLabelValues(string(c)).Set(float64(len(s.items[c])))
	}
}

func sortNewestFirst(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].DisplayTime(), records[j].DisplayTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].Key().String() < records[j].Key().String()
	})
}
