package graph

import (
	"context"
	"fmt"

	"github.com/fenwickgraph/graphdb/pkg/kv"
)

// Store is a graph database instance backed by a kv.Backend.
type Store struct {
	backend kv.Backend
}

// NewStore wraps an already-open kv.Backend as a graph Store.
func NewStore(backend kv.Backend) *Store {
	return &Store{backend: backend}
}

// Begin opens a new transaction with a fixed read snapshot.
func (s *Store) Begin(ctx context.Context) (*Transaction, error) {
	txn, err := s.backend.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return newTransaction(txn), nil
}

// Close releases all resources held by the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
