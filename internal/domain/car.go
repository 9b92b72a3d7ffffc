package domain

import "time"

// Car represents a car record held by the backing store.
type Car struct {
	ID        int64
	Make      string
	Model     string
	Year      int
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsNew reports whether the car has not been assigned an identifier yet.
func (c *Car) IsNew() bool {
	return c.ID == 0
}
