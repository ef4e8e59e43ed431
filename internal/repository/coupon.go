package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, description, discount_type, discount_value,
		min_amount, max_discount, usage_limit, used_count, valid_until,
		applies_to_all_courses, allowed_course_ids, can_stack, active
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	// Conditional increment: the WHERE clause makes redemption atomic, so
	// concurrent commits can never push used_count past usage_limit.
	redeemCouponSQL = `UPDATE coupons
		SET used_count = used_count + 1
		WHERE UPPER(code) = UPPER($1) AND active = TRUE
		  AND (usage_limit IS NULL OR used_count < usage_limit)`

	couponExistsSQL = `SELECT EXISTS(SELECT 1 FROM coupons WHERE UPPER(code) = UPPER($1))`

	createCouponSQL = `INSERT INTO coupons (id, code, description, discount_type, discount_value,
		min_amount, max_discount, usage_limit, used_count, valid_until,
		applies_to_all_courses, allowed_course_ids, can_stack, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively. Inactive
// coupons are returned as well; activity is an eligibility gate, not a
// storage filter. Returns coupon.ErrNotFound when no row matches.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Redeem consumes one usage slot via an atomic conditional increment.
// Returns coupon.ErrUsageExhausted when the limit is already reached, and
// coupon.ErrNotFound when no coupon exists for the code.
func (r *CouponRepository) Redeem(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, redeemCouponSQL, code)
	if err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row moved: either the code is unknown or the slot race was lost.
	var exists bool
	if err := r.pool.QueryRow(ctx, couponExistsSQL, code).Scan(&exists); err != nil {
		return fmt.Errorf("checking coupon %q: %w", code, err)
	}
	if !exists {
		return coupon.ErrNotFound
	}
	return coupon.ErrUsageExhausted
}

// Create persists a new coupon. The allowed course set is stored as a text
// array in sorted order.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, c.Code, c.Description, string(c.DiscountType), c.DiscountValue,
		c.MinAmount, c.MaxDiscount, c.UsageLimit, c.UsedCount, c.ValidUntil,
		c.AppliesToAllCourses, c.AllowedCourses.Slice(), c.CanStack, c.Active,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c             coupon.Coupon
		discountType  string
		discountValue decimal.Decimal
		minAmount     *decimal.Decimal
		maxDiscount   *decimal.Decimal
		usageLimit    *int32
		usedCount     int32
		validUntil    *time.Time
		allowedIDs    []string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &discountType, &discountValue,
		&minAmount, &maxDiscount, &usageLimit, &usedCount, &validUntil,
		&c.AppliesToAllCourses, &allowedIDs, &c.CanStack, &c.Active,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	c.DiscountValue = discountValue
	c.MinAmount = minAmount
	c.MaxDiscount = maxDiscount
	if usageLimit != nil {
		limit := int(*usageLimit)
		c.UsageLimit = &limit
	}
	c.UsedCount = int(usedCount)
	c.ValidUntil = validUntil
	c.AllowedCourses = coupon.NewCourseSet(allowedIDs)
	return c, err
}
