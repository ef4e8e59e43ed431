package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the purchase amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed subtracts a fixed monetary value from the purchase amount.
	DiscountFixed DiscountType = "fixed"
)

// ErrNotFound is returned by Repository implementations when no coupon
// exists for the given code.
var ErrNotFound = errors.New("coupon not found")

// ErrUsageExhausted is returned by Repository.Redeem when the coupon's usage
// limit is already reached, so no usage slot could be consumed.
var ErrUsageExhausted = errors.New("coupon usage exhausted")

// Coupon is a single promotional code snapshot as read from storage.
// Validation never mutates it; every Validate call works from one snapshot
// so the decision is internally consistent even while the redemption process
// advances UsedCount concurrently.
type Coupon struct {
	ID            string
	Code          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal

	// MinAmount, when set, is the lower bound on the purchase amount.
	MinAmount *decimal.Decimal
	// MaxDiscount, when set, caps percentage discounts. It has no effect on
	// fixed discounts.
	MaxDiscount *decimal.Decimal

	// UsageLimit, when set, bounds total redemptions. UsedCount is advanced
	// by the redemption step, never by validation.
	UsageLimit *int
	UsedCount  int

	// ValidUntil, when set, is the expiry instant. Nil means no expiry.
	ValidUntil *time.Time

	AppliesToAllCourses bool
	AllowedCourses      CourseSet

	CanStack bool
	Active   bool
}

// Summary is the client-facing projection of a coupon returned with a
// successful validation.
type Summary struct {
	ID            string
	Code          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	CanStack      bool
}

// Summary returns the client-facing projection of the coupon.
func (c *Coupon) Summary() Summary {
	return Summary{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		CanStack:      c.CanStack,
	}
}

// NormalizeCode canonicalizes a coupon code for lookup and storage:
// surrounding whitespace stripped, uppercased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository provides coupon persistence.
//
// FindByCode returns ErrNotFound when no coupon exists for the normalized
// code. Lookup is case-insensitive. Inactive coupons are returned too:
// activity is an eligibility gate, not a storage filter, so the engine can
// tell "inactive" apart from "unknown".
//
// Redeem consumes one usage slot with an atomic conditional increment and is
// invoked by the checkout flow at order commit, after a successful charge.
// Validation must never call it (check-then-act across the two would
// oversubscribe limited coupons).
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Redeem(ctx context.Context, code string) error
	Create(ctx context.Context, c *Coupon) error
}
