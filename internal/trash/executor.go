package trash

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/model"
)

// Intent is an action waiting for the user's confirmation.
type Intent struct {
	ID           string       `json:"id"`
	Action       model.Action `json:"action"`
	Key          string       `json:"key"`
	Title        string       `json:"title"`
	Message      string       `json:"message"`
	Warning      string       `json:"warning,omitempty"`
	Irreversible bool         `json:"irreversible"`
	ExpiresAt    time.Time    `json:"expires_at"`

	key model.Key
}

// Outcome is the result of one confirmed action.
type Outcome struct {
	Action       model.Action       `json:"action"`
	Key          string             `json:"key"`
	Succeeded    bool               `json:"succeeded"`
	Error        string             `json:"error,omitempty"`
	Notification model.Notification `json:"notification"`
}

type KeyFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// BulkOutcome folds every per-item result of a batch.
type BulkOutcome struct {
	Action       model.Action       `json:"action"`
	Requested    int                `json:"requested"`
	Succeeded    []string           `json:"succeeded"`
	Failed       []KeyFailure       `json:"failed"`
	Notification model.Notification `json:"notification"`
}

type ExecutorOptions struct {
	Concurrency int
	IntentTTL   time.Duration
	Metrics     *metrics.Metrics
}

// Executor runs single and bulk actions. Local state changes only after the
// server confirms success, and only for the items that succeeded.
type Executor struct {
	backend     Backend
	store       *Store
	selection   *Selection
	notifier    Notifier
	concurrency int
	ttl         time.Duration
	metrics     *metrics.Metrics
	now         func() time.Time

	mu       sync.Mutex
	inFlight map[model.Key]struct{}
	intents  map[string]Intent
}

func NewExecutor(backend Backend, store *Store, selection *Selection, notifier Notifier, opts ExecutorOptions) *Executor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.IntentTTL <= 0 {
		opts.IntentTTL = 5 * time.Minute
	}
	return &Executor{
		backend:     backend,
		store:       store,
		selection:   selection,
		notifier:    notifier,
		concurrency: opts.Concurrency,
		ttl:         opts.IntentTTL,
		metrics:     opts.Metrics,
		now:         time.Now,
		inFlight:    make(map[model.Key]struct{}),
		intents:     make(map[string]Intent),
	}
}

// Open records an intent for action on key. Nothing is sent to the server
// until the intent is confirmed.
func (e *Executor) Open(action model.Action, rawKey string) (Intent, error) {
	if !action.Valid() {
		return Intent{}, fmt.Errorf("%w: %q", model.ErrInvalidAction, action)
	}
	key, err := category.ParseKey(rawKey)
	if err != nil {
		return Intent{}, err
	}

	desc := category.Describe(key.Category)
	label := desc.Label
	if rec, ok := e.store.Get(key); ok {
		label = fmt.Sprintf("%s %q", desc.Label, rec.Label)
	}

	intent := Intent{
		ID:        uuid.NewString(),
		Action:    action,
		Key:       key.String(),
		ExpiresAt: e.now().Add(e.ttl),
		key:       key,
	}
	if action == model.ActionRestore {
		intent.Title = "Restore Item"
		intent.Message = fmt.Sprintf("Restore %s? It will be visible on the dashboard again.", label)
	} else {
		intent.Title = "Permanently Delete Item"
		intent.Message = fmt.Sprintf("Permanently delete %s?", label)
		intent.Warning = "This action cannot be undone. The item and its files will be removed forever."
		intent.Irreversible = true
	}

	e.mu.Lock()
	e.pruneIntentsLocked()
	e.intents[intent.ID] = intent
	e.mu.Unlock()

	return intent, nil
}

// Cancel discards an intent without side effects.
func (e *Executor) Cancel(intentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.intents[intentID]; !ok {
		return model.ErrIntentNotFound
	}
	delete(e.intents, intentID)
	return nil
}

// Confirm consumes the intent and executes its action.
func (e *Executor) Confirm(ctx context.Context, intentID string) (Outcome, error) {
	e.mu.Lock()
	intent, ok := e.intents[intentID]
	if ok {
		delete(e.intents, intentID)
	}
	e.mu.Unlock()

	if !ok {
		return Outcome{}, model.ErrIntentNotFound
	}
	if e.now().After(intent.ExpiresAt) {
		return Outcome{}, model.ErrIntentExpired
	}

	return e.Execute(ctx, intent.Action, intent.key)
}

// Execute runs a single action. A server-side failure is reported through
// the outcome; the returned error covers only requests that never ran.
func (e *Executor) Execute(ctx context.Context, action model.Action, key model.Key) (Outcome, error) {
	if !action.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", model.ErrInvalidAction, action)
	}
	if !e.acquire(key) {
		return Outcome{}, fmt.Errorf("%w: %s", model.ErrActionInFlight, key)
	}
	defer e.release(key)

	err := Apply(ctx, e.backend, action, key)
	e.count(key.Category, action, err)

	outcome := Outcome{Action: action, Key: key.String()}
	if err != nil {
		slog.Warn("trash action failed", "action", action, "key", key.String(), "error", err)
		outcome.Error = err.Error()
		outcome.Notification = failure(failureMessage(action))
	} else {
		e.store.Remove(key)
		e.selection.Remove(key)
		outcome.Succeeded = true
		outcome.Notification = success(successMessage(action, key))
	}

	e.notify(outcome.Notification)
	return outcome, nil
}

// Bulk applies action to every key with bounded concurrency and waits for
// all requests to settle. Successes leave the store and the selection;
// failures stay selected. Exactly one notification is emitted.
func (e *Executor) Bulk(ctx context.Context, action model.Action, rawKeys []string) (BulkOutcome, error) {
	if !action.Valid() {
		return BulkOutcome{}, fmt.Errorf("%w: %q", model.ErrInvalidAction, action)
	}
	if len(rawKeys) == 0 {
		return BulkOutcome{}, model.ErrNothingSelected
	}

	out := BulkOutcome{Action: action, Requested: len(rawKeys), Succeeded: []string{}, Failed: []KeyFailure{}}

	keys := make([]model.Key, 0, len(rawKeys))
	seen := make(map[model.Key]struct{}, len(rawKeys))
	for _, raw := range rawKeys {
		key, err := category.ParseKey(raw)
		if err != nil {
			out.Failed = append(out.Failed, KeyFailure{Key: raw, Error: err.Error()})
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !e.acquire(key) {
			out.Failed = append(out.Failed, KeyFailure{Key: raw, Error: model.ErrActionInFlight.Error()})
			continue
		}
		keys = append(keys, key)
	}

	errs := make([]error, len(keys))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			errs[i] = Apply(ctx, e.backend, action, key)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := make([]model.Key, 0, len(keys))
	for i, key := range keys {
		e.count(key.Category, action, errs[i])
		if errs[i] != nil {
			slog.Warn("bulk item failed", "action", action, "key", key.String(), "error", errs[i])
			out.Failed = append(out.Failed, KeyFailure{Key: key.String(), Error: errs[i].Error()})
			continue
		}
		succeeded = append(succeeded, key)
		out.Succeeded = append(out.Succeeded, key.String())
	}

	e.store.Remove(succeeded...)
	e.selection.Remove(succeeded...)
	for _, key := range keys {
		e.release(key)
	}

	if len(succeeded) > 0 {
		out.Notification = success(bulkSuccessMessage(action, len(succeeded)))
	} else {
		out.Notification = failure(bulkFailureMessage(action))
	}
	e.notify(out.Notification)

	slog.Info("bulk action settled", "action", action, "requested", out.Requested,
		"succeeded", len(out.Succeeded), "failed", len(out.Failed))
	return out, nil
}

// InFlight reports whether key has an outstanding request.
func (e *Executor) InFlight(key model.Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[key]
	return ok
}

func (e *Executor) acquire(key model.Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.inFlight[key]; busy {
		return false
	}
	e.inFlight[key] = struct{}{}
	return true
}

func (e *Executor) release(key model.Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, key)
}

func (e *Executor) pruneIntentsLocked() {
	now := e.now()
	for id, intent := range e.intents {
		if now.After(intent.ExpiresAt) {
			delete(e.intents, id)
		}
	}
}

func (e *Executor) notify(n model.Notification) {
	if e.notifier != nil {
		e.notifier.Notify(n)
	}
}

func (e *Executor) count(c model.Category, action model.Action, err error) {
	if e.metrics != nil {
		e.metrics.TrashActions.WithLabelValues(string(c), string(action), metrics.Outcome(err)).Inc()
	}
}
