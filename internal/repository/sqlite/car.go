// Package sqlite implements the repository interfaces on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"cars/internal/domain"
	"cars/internal/repository"
)

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const carColumns = `id, make, model, year, color, created_at, updated_at`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CarRepository handles persistence for cars using SQLite.
type CarRepository struct {
	q  querier
	db *sql.DB
}

// NewCarRepository creates a new SQLite car repository.
func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{q: db, db: db}
}

// NewCarRepositoryWithTx creates a car repository bound to a transaction.
func NewCarRepositoryWithTx(tx *sql.Tx) *CarRepository {
	return &CarRepository{q: tx}
}

var _ repository.CarRepository = (*CarRepository)(nil)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func scanCar(s interface{ Scan(dest ...any) error }) (*domain.Car, error) {
	var (
		car                  domain.Car
		createdAt, updatedAt string
	)
	if err := s.Scan(&car.ID, &car.Make, &car.Model, &car.Year, &car.Color, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if car.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, err
	}
	if car.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, err
	}
	return &car, nil
}

// Save inserts a new car or replaces an existing one.
func (r *CarRepository) Save(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if car == nil {
		return nil, repository.ErrNilEntity
	}

	now := time.Now().UTC()
	saved := *car

	if !car.IsNew() {
		result, err := r.q.ExecContext(ctx,
			`UPDATE cars SET make = ?, model = ?, year = ?, color = ?, updated_at = ? WHERE id = ?`,
			car.Make, car.Model, car.Year, car.Color, formatTime(now), car.ID,
		)
		if err != nil {
			return nil, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected > 0 {
			return r.FindByID(ctx, car.ID)
		}
	}

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO cars (make, model, year, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		car.Make, car.Model, car.Year, car.Color, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	saved.ID = id
	saved.CreatedAt = now
	saved.UpdatedAt = now
	return &saved, nil
}

// SaveAll saves the cars in a single transaction.
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
	row := r.q.QueryRowContext(ctx, `SELECT `+carColumns+` FROM cars WHERE id = ?`, id)

	car, err := scanCar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return car, nil
}

// FindAllByID retrieves the cars matching ids, ordered by ID.
// The ids are bound as one JSON array so the list is not limited by the
// number of SQL variables.
func (r *CarRepository) FindAllByID(ctx context.Context, ids []int64) ([]*domain.Car, error) {
	if len(ids) == 0 {
		return []*domain.Car{}, nil
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + carColumns + ` FROM cars WHERE id IN (SELECT value FROM json_each(?)) ORDER BY id`
	return r.query(ctx, query, string(encoded))
}

// FindAll retrieves all cars, ordered by ID.
func (r *CarRepository) FindAll(ctx context.Context) ([]*domain.Car, error) {
	return r.query(ctx, `SELECT `+carColumns+` FROM cars ORDER BY id`)
}

// FindPage retrieves a single page of cars.
// Text fields sort with the BINARY collation (byte order).
func (r *CarRepository) FindPage(ctx context.Context, page repository.Page) (*repository.PageResult[domain.Car], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + carColumns + ` FROM cars ` + page.OrderBy("") + ` LIMIT ? OFFSET ?`
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
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cars WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
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
	_, err := r.q.ExecContext(ctx, `DELETE FROM cars WHERE id = ?`, id)
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
