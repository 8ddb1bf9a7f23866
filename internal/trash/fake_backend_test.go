package trash

import (
	"context"
	"sync"
	"time"

	"ypg-dashboard/internal/model"
)

// fakeBackend is an in-memory entity store. Lists are served from records;
// actions fail for keys listed in failKeys.
type fakeBackend struct {
	mu       sync.Mutex
	records  map[model.Category][]model.Record
	listErr  map[model.Category]error
	failKeys map[model.Key]error
	calls    []string

	// blockCategory makes ListDeleted for that category wait for release or
	// context cancellation; entered is signalled once it is waiting.
	blockCategory model.Category
	entered       chan struct{}
	release       chan struct{}

	// blockKey makes actions on that key wait for release.
	blockKey model.Key
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		records:  make(map[model.Category][]model.Record),
		listErr:  make(map[model.Category]error),
		failKeys: make(map[model.Key]error),
		entered:  make(chan struct{}, 16),
		release:  make(chan struct{}),
	}
}

func (f *fakeBackend) add(c model.Category, id int64, label string, deletedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at := deletedAt
	f.records[c] = append(f.records[c], model.Record{
		ID: id, Category: c, DashboardDeleted: true, Label: label, DeletedAt: &at,
	})
}

func (f *fakeBackend) ListDeleted(ctx context.Context, c model.Category) ([]model.Record, error) {
	f.mu.Lock()
	block := f.blockCategory == c
	err := f.listErr[c]
	records := append([]model.Record(nil), f.records[c]...)
	f.mu.Unlock()

	if block {
		f.entered <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *fakeBackend) Restore(ctx context.Context, key model.Key) error {
	return f.act(ctx, "restore", key)
}

func (f *fakeBackend) PermanentDelete(ctx context.Context, key model.Key) error {
	return f.act(ctx, "delete", key)
}

func (f *fakeBackend) act(ctx context.Context, name string, key model.Key) error {
	f.mu.Lock()
	f.calls = append(f.calls, name+" "+key.String())
	err := f.failKeys[key]
	block := f.blockKey == key
	f.mu.Unlock()

	if block {
		f.entered <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.records[key.Category]
	for i, rec := range list {
		if rec.ID == key.ID {
			f.records[key.Category] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func keysOf(records []model.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Key().String())
	}
	return out
}
