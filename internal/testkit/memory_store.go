package testkit

import (
	"context"
	"fmt"
	"sync"

	"bookingeda/domain/core"
	"bookingeda/internal/errors"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/timeseries"
)

// InMemoryStore is a ports.Repository for tests
type InMemoryStore struct {
	summaries  map[core.RunID]*timeseries.Summary
	transforms map[core.TransformID]*modelmatrix.Transform
	mu         sync.RWMutex
}

// NewInMemoryStore creates an empty store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		summaries:  make(map[core.RunID]*timeseries.Summary),
		transforms: make(map[core.TransformID]*modelmatrix.Transform),
	}
}

func (s *InMemoryStore) SaveSummary(ctx context.Context, id core.RunID, source string, summary *timeseries.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.summaries[id]; ok {
		return errors.StorageError(fmt.Sprintf("run %s already saved", id), nil)
	}
	s.summaries[id] = summary
	return nil
}

func (s *InMemoryStore) LoadSummary(ctx context.Context, id core.RunID) (*timeseries.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[id]
	if !ok {
		return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("run %s: %w", id, core.ErrSummaryNotFound))
	}
	return summary, nil
}

func (s *InMemoryStore) SaveTransform(ctx context.Context, tr *modelmatrix.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transforms[tr.ID()] = tr
	return nil
}

func (s *InMemoryStore) LoadTransform(ctx context.Context, id core.TransformID) (*modelmatrix.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr, ok := s.transforms[id]
	if !ok {
		return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("transform %s: %w", id, core.ErrTransformNotFound))
	}
	return tr, nil
}

// SummaryCount returns how many summaries were saved
func (s *InMemoryStore) SummaryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.summaries)
}
