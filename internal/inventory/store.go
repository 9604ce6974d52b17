// Package inventory guards the shared on-hand pool across batch runs. The
// allocation engine assumes capacity is fixed for the duration of one run,
// so every run executes inside Run, which holds the store lock from the
// snapshot through the drawdown. Two concurrent runs can never observe or
// decrement the same capacity.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmarks/go-relief-allocator/internal/models"
	"github.com/tmarks/go-relief-allocator/internal/repository"
)

type Store struct {
	mu   sync.Mutex
	pool models.ResourcePool
	repo repository.InventoryRepository
}

// NewStore loads the persisted pool, seeding from initial when the table is
// empty (first start).
func NewStore(ctx context.Context, repo repository.InventoryRepository, initial models.ResourcePool) (*Store, error) {
	pool, ok, err := repo.GetInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading inventory: %w", err)
	}
	if !ok {
		pool = initial.Clone()
		if err := repo.SetInventory(ctx, pool); err != nil {
			return nil, fmt.Errorf("error seeding inventory: %w", err)
		}
	}

	return &Store{pool: pool, repo: repo}, nil
}

// Snapshot returns a copy of the current pool for read-only callers. Runs
// that spend from the pool must go through Run instead.
func (s *Store) Snapshot() models.ResourcePool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Clone()
}

// Set replaces the pool, e.g. on restock.
func (s *Store) Set(ctx context.Context, pool models.ResourcePool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := pool.Clone()
	if err := s.repo.SetInventory(ctx, next); err != nil {
		return err
	}
	s.pool = next
	return nil
}

// Run calls fn with a copy of the current pool and decrements the pool by
// the spend fn returns, all under the store lock. fn must be CPU-bound:
// the lock is held for the whole call. A spend exceeding the stock fn was
// shown is a caller bug and fails the run without touching the pool.
func (s *Store) Run(ctx context.Context, fn func(pool models.ResourcePool) (models.ResourcePool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spent, err := fn(s.pool.Clone())
	if err != nil {
		return err
	}

	next := s.pool.Clone()
	for kind, q := range spent {
		if q < 0 {
			return fmt.Errorf("negative spend for %s: %d", kind, q)
		}
		if q > next[kind] {
			return fmt.Errorf("spend for %s exceeds stock: %d > %d", kind, q, next[kind])
		}
		next[kind] -= q
	}

	if err := s.repo.SetInventory(ctx, next); err != nil {
		return err
	}
	s.pool = next
	return nil
}
