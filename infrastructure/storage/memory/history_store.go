package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/shrdlu/domain/history"
)

// HistoryStore is an in-memory plan history.
type HistoryStore struct {
	mu      sync.RWMutex
	records []history.Record
	index   map[string]int
}

// NewHistoryStore creates an empty history.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{index: make(map[string]int)}
}

// Append adds a record. IDs are unique.
func (s *HistoryStore) Append(ctx context.Context, r history.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return history.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[r.ID]; exists {
		return history.ErrExists
	}
	s.index[r.ID] = len(s.records)
	s.records = append(s.records, r)
	return nil
}

// Get returns a record by ID.
func (s *HistoryStore) Get(ctx context.Context, id string) (history.Record, error) {
	if err := ctx.Err(); err != nil {
		return history.Record{}, err
	}
	if id == "" {
		return history.Record{}, history.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return history.Record{}, history.ErrNotFound
	}
	return s.records[i], nil
}

// List returns matching records, newest first. Records with equal
// timestamps keep reverse insertion order.
func (s *HistoryStore) List(ctx context.Context, f history.Filter) ([]history.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := s.matching(f)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Summary aggregates matching records. Limit is ignored.
func (s *HistoryStore) Summary(ctx context.Context, f history.Filter) (history.Summary, error) {
	if err := ctx.Err(); err != nil {
		return history.Summary{}, err
	}
	return history.Summarize(s.matching(f)), nil
}

// matching returns matches in reverse insertion order.
func (s *HistoryStore) matching(f history.Filter) []history.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []history.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if f.Match(s.records[i]) {
			out = append(out, s.records[i])
		}
	}
	return out
}

var _ history.Store = (*HistoryStore)(nil)
