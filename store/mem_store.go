package store

import (
	"context"
	"slices"
	"sync"

	"usageforecast/usage"
)

// MemStore 未配置数据库时使用
type MemStore struct {
	mu    sync.RWMutex
	rows  []usage.Row
	preds []usage.Prediction
}

func NewMemStore(rows ...usage.Row) *MemStore {
	return &MemStore{rows: slices.Clone(rows)}
}

func (s *MemStore) List(ctx context.Context) ([]usage.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows), nil
}

func (s *MemStore) Insert(ctx context.Context, rows []usage.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *MemStore) SavePredictions(ctx context.Context, preds []usage.Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preds = slices.Clone(preds)
	return nil
}

func (s *MemStore) ListPredictions(ctx context.Context) ([]usage.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.preds), nil
}
