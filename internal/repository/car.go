package repository

import "cars/internal/domain"

// CarRepository defines the persistence operations for cars.
type CarRepository interface {
	Repository[domain.Car, int64]
}
