package trash

import (
	"sort"
	"sync"

	"ypg-dashboard/internal/model"
)

// Selection is the set of composite keys picked for a bulk action.
type Selection struct {
	mu   sync.Mutex
	keys map[model.Key]struct{}
}

func NewSelection() *Selection {
	return &Selection{keys: make(map[model.Key]struct{})}
}

// Toggle flips membership of key and reports whether it is now selected.
func (s *Selection) Toggle(key model.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// SelectAll selects exactly the visible keys, or clears the selection when
// every visible key is already selected.
func (s *Selection) SelectAll(visible []model.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(visible) > 0 && len(s.keys) == len(visible) {
		all := true
		for _, key := range visible {
			if _, ok := s.keys[key]; !ok {
				all = false
				break
			}
		}
		if all {
			s.keys = make(map[model.Key]struct{})
			return
		}
	}

	next := make(map[model.Key]struct{}, len(visible))
	for _, key := range visible {
		next[key] = struct{}{}
	}
	s.keys = next
}

func (s *Selection) Remove(keys ...model.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.keys, key)
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[model.Key]struct{})
}

func (s *Selection) Contains(key model.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Keys returns the selected keys in a stable order.
func (s *Selection) Keys() []model.Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Key, 0, len(s.keys))
	for key := range s.keys {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
