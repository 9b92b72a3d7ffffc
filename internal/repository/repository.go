package repository

import "context"

// Repository defines the generic persistence operations over an entity type T
// identified by ID.
//
// Absence is not an error: FindByID returns a nil entity and DeleteByID is a
// no-op when nothing matches. Failures from the backing store are returned as-is.
type Repository[T any, ID comparable] interface {
	// Save inserts the entity when its identifier is unset or unknown to the
	// store, otherwise replaces the stored record. The returned value carries
	// the identifier and timestamps assigned by the store.
	Save(ctx context.Context, entity *T) (*T, error)

	// SaveAll saves every entity, in order.
	SaveAll(ctx context.Context, entities []*T) ([]*T, error)

	// FindByID retrieves an entity by ID.
	// Returns nil if no entity exists with the given ID.
	FindByID(ctx context.Context, id ID) (*T, error)

	// FindAllByID retrieves the entities matching the given IDs, ordered by ID.
	FindAllByID(ctx context.Context, ids []ID) ([]*T, error)

	// FindAll retrieves all entities, ordered by ID.
	FindAll(ctx context.Context) ([]*T, error)

	// FindPage retrieves a single page of entities.
	FindPage(ctx context.Context, page Page) (*PageResult[T], error)

	// ExistsByID reports whether an entity with the given ID exists.
	ExistsByID(ctx context.Context, id ID) (bool, error)

	// Count returns the total number of entities.
	Count(ctx context.Context) (int64, error)

	// DeleteByID removes the entity with the given ID if present.
	DeleteByID(ctx context.Context, id ID) error

	// Delete removes the given entity if present.
	Delete(ctx context.Context, entity *T) error

	// DeleteAll removes every entity.
	DeleteAll(ctx context.Context) error
}
