package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/learnspace/checkout-api/internal/domain/course"
)

const (
	listCoursesSQL = `SELECT id, title, category, price, instructor, thumbnail
		FROM courses ORDER BY id`

	getCourseByIDSQL = `SELECT id, title, category, price, instructor, thumbnail
		FROM courses WHERE id = $1`
)

var _ course.Repository = (*CourseRepository)(nil)

// CourseRepository implements course.Repository backed by PostgreSQL.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository returns a CourseRepository that uses the given pool.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// List returns all published courses ordered by ID.
func (r *CourseRepository) List(ctx context.Context) ([]course.Course, error) {
	rows, err := r.pool.Query(ctx, listCoursesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return pgx.CollectRows(rows, scanCourse)
}

// GetByID returns a single course by its identifier.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*course.Course, error) {
	rows, err := r.pool.Query(ctx, getCourseByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting course %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCourse)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, course.ErrNotFound
		}
		return nil, fmt.Errorf("getting course %q: %w", id, err)
	}
	return &c, nil
}

func scanCourse(row pgx.CollectableRow) (course.Course, error) {
	var (
		c     course.Course
		price decimal.Decimal
	)
	err := row.Scan(&c.ID, &c.Title, &c.Category, &price, &c.Instructor, &c.Thumbnail)
	c.Price = price
	return c, err
}
