package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Amounts holds the computed discount for a purchase.
type Amounts struct {
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// Compute calculates the discount and final amount for a coupon that already
// passed every eligibility gate.
//
// Percentage discounts are amount * value / 100, capped by MaxDiscount when
// set. Fixed discounts are the configured value unconditionally: a $10
// coupon on a $5 purchase still reports a $10 discount, the final amount
// just floors at zero. Both results are rounded half-up to 2 decimal places
// exactly once, at the end; intermediates stay unrounded so results are
// reproducible across implementations.
func Compute(c *Coupon, amount decimal.Decimal) (Amounts, error) {
	var raw decimal.Decimal

	switch c.DiscountType {
	case DiscountPercentage:
		raw = amount.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscount != nil && raw.GreaterThan(*c.MaxDiscount) {
			raw = *c.MaxDiscount
		}
	case DiscountFixed:
		raw = c.DiscountValue
	default:
		return Amounts{}, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}

	final := amount.Sub(raw)
	if final.IsNegative() {
		final = zero
	}

	return Amounts{
		Discount: raw.Round(2),
		Final:    final.Round(2),
	}, nil
}
