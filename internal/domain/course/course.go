package course

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested course does not exist.
var ErrNotFound = errors.New("course not found")

// Course represents a published course available for purchase.
type Course struct {
	ID         string
	Title      string
	Category   string
	Price      decimal.Decimal
	Instructor string
	Thumbnail  string
}

// Repository defines read operations for the course catalog.
type Repository interface {
	List(ctx context.Context) ([]Course, error)
	GetByID(ctx context.Context, id string) (*Course, error)
}
