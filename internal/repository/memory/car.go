// Package memory provides a process-local implementation of repository.CarRepository.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"cars/internal/domain"
	"cars/internal/repository"
)

// CarRepository keeps cars in a map guarded by a RWMutex.
// Stored values are copies; callers never share state with the repository.
type CarRepository struct {
	mu     sync.RWMutex
	cars   map[int64]domain.Car
	nextID int64
}

// NewCarRepository creates an empty in-memory car repository.
func NewCarRepository() *CarRepository {
	return &CarRepository{
		cars:   make(map[int64]domain.Car),
		nextID: 1,
	}
}

var _ repository.CarRepository = (*CarRepository)(nil)

// Save inserts or replaces a car.
func (r *CarRepository) Save(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if car == nil {
		return nil, repository.ErrNilEntity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.saveLocked(*car)
	return &saved, nil
}

// SaveAll saves every car under a single lock.
func (r *CarRepository) SaveAll(ctx context.Context, cars []*domain.Car) ([]*domain.Car, error) {
	for _, car := range cars {
		if car == nil {
			return nil, repository.ErrNilEntity
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := make([]*domain.Car, 0, len(cars))
	for _, car := range cars {
		c := r.saveLocked(*car)
		saved = append(saved, &c)
	}
	return saved, nil
}

func (r *CarRepository) saveLocked(car domain.Car) domain.Car {
	now := time.Now().UTC()

	if existing, ok := r.cars[car.ID]; ok && !car.IsNew() {
		car.CreatedAt = existing.CreatedAt
		car.UpdatedAt = now
		r.cars[car.ID] = car
		return car
	}

	// Unknown identifiers are replaced by a fresh one.
	car.ID = r.nextID
	r.nextID++
	car.CreatedAt = now
	car.UpdatedAt = now
	r.cars[car.ID] = car
	return car
}

// FindByID retrieves a car by ID.
// Returns nil if no car exists with the given ID.
func (r *CarRepository) FindByID(ctx context.Context, id int64) (*domain.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	car, ok := r.cars[id]
	if !ok {
		return nil, nil
	}
	return &car, nil
}

// FindAllByID retrieves the cars matching ids, ordered by ID.
func (r *CarRepository) FindAllByID(ctx context.Context, ids []int64) ([]*domain.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	result := make([]*domain.Car, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if car, ok := r.cars[id]; ok {
			result = append(result, &car)
		}
	}
	slices.SortFunc(result, func(a, b *domain.Car) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

// FindAll retrieves all cars, ordered by ID.
func (r *CarRepository) FindAll(ctx context.Context) ([]*domain.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedLocked(repository.SortByID, false), nil
}

// FindPage retrieves a single page of cars. Text fields sort by byte order.
func (r *CarRepository) FindPage(ctx context.Context, page repository.Page) (*repository.PageResult[domain.Car], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedLocked(page.SortField(), page.Descending)
	start := max(0, min(page.Offset(), len(all)))
	end := min(start+page.Size, len(all))

	return &repository.PageResult[domain.Car]{
		Items:  all[start:end],
		Total:  int64(len(all)),
		Number: page.Number,
		Size:   page.Size,
	}, nil
}

func (r *CarRepository) sortedLocked(field string, desc bool) []*domain.Car {
	result := make([]*domain.Car, 0, len(r.cars))
	for _, car := range r.cars {
		c := car
		result = append(result, &c)
	}

	slices.SortFunc(result, func(a, b *domain.Car) int {
		c := compareField(a, b, field)
		if desc {
			c = -c
		}
		if c == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		return c
	})
	return result
}

func compareField(a, b *domain.Car, field string) int {
	switch field {
	case repository.SortByMake:
		return strings.Compare(a.Make, b.Make)
	case repository.SortByModel:
		return strings.Compare(a.Model, b.Model)
	case repository.SortByYear:
		return cmp.Compare(a.Year, b.Year)
	case repository.SortByColor:
		return strings.Compare(a.Color, b.Color)
	case repository.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// ExistsByID reports whether a car with the given ID exists.
func (r *CarRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.cars[id]
	return ok, nil
}

// Count returns the number of stored cars.
func (r *CarRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.cars)), nil
}

// DeleteByID removes a car if present.
func (r *CarRepository) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cars, id)
	return nil
}

// Delete removes the given car if present.
func (r *CarRepository) Delete(ctx context.Context, car *domain.Car) error {
	if car == nil {
		return repository.ErrNilEntity
	}
	if car.IsNew() {
		return nil
	}
	return r.DeleteByID(ctx, car.ID)
}

// DeleteAll removes every car. Identifiers are not reused afterwards.
func (r *CarRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.cars)
	return nil
}
