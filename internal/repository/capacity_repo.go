package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/terminal-bench/capacities/internal/models"
)

var (
	ErrNotFound    = errors.New("capacity not found")
	ErrIDMismatch  = errors.New("capacity id mismatch")
	ErrDuplicateID = errors.New("duplicate capacity id")
)

// CapacityRepository keeps capacities in memory, in insertion order
type CapacityRepository struct {
	mu         sync.RWMutex
	capacities []models.Capacity
}

// NewCapacityRepository creates a repository holding a copy of seed
func NewCapacityRepository(seed []models.Capacity) (*CapacityRepository, error) {
	seen := make(map[int]struct{}, len(seed))
	for _, c := range seed {
		if _, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("seed capacity %d: %w", c.ID, ErrDuplicateID)
		}
		seen[c.ID] = struct{}{}
	}

	capacities := make([]models.Capacity, len(seed))
	copy(capacities, seed)
	return &CapacityRepository{capacities: capacities}, nil
}

// List returns every capacity in store order
func (r *CapacityRepository) List(ctx context.Context) ([]models.Capacity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Capacity, len(r.capacities))
	copy(out, r.capacities)
	return out, nil
}

// GetByID returns the capacity with the given ID
func (r *CapacityRepository) GetByID(ctx context.Context, id int) (*models.Capacity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	c := r.capacities[i]
	return &c, nil
}

// Create assigns the next ID to a new capacity and appends it.
// The next ID is one more than the highest ID in use, counting from 1,
// so an empty repository hands out 2.
func (r *CapacityRepository) Create(ctx context.Context, label string) (*models.Capacity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	maxID := 1
	for _, c := range r.capacities {
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	c := models.Capacity{ID: maxID + 1, Label: label}
	r.capacities = append(r.capacities, c)
	return &c, nil
}

// Replace swaps the capacity stored under id for c. The replacement is
// moved to the end of the list.
func (r *CapacityRepository) Replace(ctx context.Context, id int, c models.Capacity) (*models.Capacity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.ID != id {
		return nil, ErrIDMismatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	r.capacities = append(r.capacities[:i], r.capacities[i+1:]...)
	r.capacities = append(r.capacities, c)
	return &c, nil
}

// Delete removes the capacity with the given ID
func (r *CapacityRepository) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	r.capacities = append(r.capacities[:i], r.capacities[i+1:]...)
	return nil
}

// Count returns the number of stored capacities
func (r *CapacityRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.capacities)
}

// indexOf must be called with mu held
func (r *CapacityRepository) indexOf(id int) int {
	for i, c := range r.capacities {
		if c.ID == id {
			return i
		}
	}
	return -1
}
