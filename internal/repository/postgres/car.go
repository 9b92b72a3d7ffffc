package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"cars/internal/domain"
	"cars/internal/repository"
)

const carColumns = `id, make, model, year, color, created_at, updated_at`

// textCollation makes text ordering independent of the database locale.
const textCollation = "C"

// CarRepository is a PostgreSQL implementation of repository.CarRepository.
type CarRepository struct {
	q  Querier
	db *sql.DB
}

// NewCarRepository creates a new PostgreSQL car repository.
func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{q: db, db: db}
}

// NewCarRepositoryWithTx creates a car repository using a transaction.
func NewCarRepositoryWithTx(tx *sql.Tx) *CarRepository {
	return &CarRepository{q: tx}
}

var _ repository.CarRepository = (*CarRepository)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanCar(s scanner) (*domain.Car, error) {
	var car domain.Car
	err := s.Scan(
		&car.ID,
		&car.Make,
		&car.Model,
		&car.Year,
		&car.Color,
		&car.CreatedAt,
		&car.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &car, nil
}

// Save inserts a new car or replaces an existing one.
// An identifier the table does not hold is discarded and a new one is generated.
func (r *CarRepository) Save(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if car == nil {
		return nil, repository.ErrNilEntity
	}

	saved := *car
	if !car.IsNew() {
		query := `UPDATE cars SET make = $1, model = $2, year = $3, color = $4, updated_at = NOW()
			WHERE id = $5 RETURNING created_at, updated_at`

		err := r.q.QueryRowContext(ctx, query, car.Make, car.Model, car.Year, car.Color, car.ID).
			Scan(&saved.CreatedAt, &saved.UpdatedAt)
		if err == nil {
			return &saved, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	query := `INSERT INTO cars (make, model, year, color) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query, car.Make, car.Model, car.Year, car.Color).
		Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SaveAll saves the cars in a single transaction when the repository is not
// already bound to one.
func (r *CarRepository) SaveAll(ctx context.Context, cars []*domain.Car) ([]*domain.Car, error) {
	for _, car := range cars {
		if car == nil {
			return nil, repository.ErrNilEntity
		}
	}
	if len(cars) == 0 {
		return []*domain.Car{}, nil
	}

	if r.db == nil {
		return r.saveEach(ctx, cars)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	saved, err := NewCarRepositoryWithTx(tx).saveEach(ctx, cars)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *CarRepository) saveEach(ctx context.Context, cars []*domain.Car) ([]*domain.Car, error) {
	saved := make([]*domain.Car, 0, len(cars))
	for _, car := range cars {
		s, err := r.Save(ctx, car)
		if err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}
	return saved, nil
}

// FindByID retrieves a car by ID.
// Returns nil if no car exists with the given ID.
func (r *CarRepository) FindByID(ctx context.Context, id int64) (*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`

	car, err := scanCar(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return car, nil
}

// FindAllByID retrieves the cars matching ids, ordered by ID.
func (r *CarRepository) FindAllByID(ctx context.Context, ids []int64) ([]*domain.Car, error) {
	if len(ids) == 0 {
		return []*domain.Car{}, nil
	}

	query := `SELECT ` + carColumns + ` FROM cars WHERE id = ANY($1) ORDER BY id`
	return r.query(ctx, query, pq.Array(ids))
}

// FindAll retrieves all cars, ordered by ID.
func (r *CarRepository) FindAll(ctx context.Context) ([]*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars ORDER BY id`
	return r.query(ctx, query)
}

// FindPage retrieves a single page of cars.
// The count and the page are read from one snapshot when the repository
// owns the pool. Text fields sort with the "C" collation (byte order).
func (r *CarRepository) FindPage(ctx context.Context, page repository.Page) (*repository.PageResult[domain.Car], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	if r.db == nil {
		return r.findPage(ctx, page)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := NewCarRepositoryWithTx(tx).findPage(ctx, page)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *CarRepository) findPage(ctx context.Context, page repository.Page) (*repository.PageResult[domain.Car], error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + carColumns + ` FROM cars ` + page.OrderBy(textCollation) + ` LIMIT $1 OFFSET $2`
	items, err := r.query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[domain.Car]{
		Items:  items,
		Total:  total,
		Number: page.Number,
		Size:   page.Size,
	}, nil
}

func (r *CarRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Car, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cars := []*domain.Car{}
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

// ExistsByID reports whether a car with the given ID exists.
func (r *CarRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Count returns the number of stored cars.
func (r *CarRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByID removes a car if present.
func (r *CarRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	return err
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

// DeleteAll removes every car.
func (r *CarRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cars`)
	return err
}
