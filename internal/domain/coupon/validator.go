package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Request is one coupon application attempt from the checkout flow.
type Request struct {
	Code   string
	Amount decimal.Decimal
	// CourseID identifies the course being purchased. Optional.
	CourseID string
	// AppliedCoupons lists codes already applied to the purchase. Only their
	// presence matters here; their own validity is not re-checked.
	AppliedCoupons []string
}

// Result is a successful validation outcome: the coupon summary plus the
// computed amounts the checkout flow charges against.
type Result struct {
	Coupon         Summary
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Validator decides whether a coupon code applies to a purchase and what it
// would discount. A refusal is returned as *RejectionError; any other error
// is an infrastructure failure.
type Validator interface {
	Validate(ctx context.Context, req Request) (*Result, error)
}

// Service implements Validator against a Repository. It is stateless and
// safe for concurrent use: each call reads one coupon snapshot, runs the
// gate chain against it, and computes amounts. Nothing is cached or
// mutated, so concurrent checkouts for the same code are independent.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Validate evaluates the eligibility gates in a fixed order, short-circuiting
// on the first failure, then computes the discount. All gates read the same
// snapshot taken at entry; external state such as the usage counter may move
// the instant afterward, which is why redemption is a separate atomic
// conditional increment at order commit (see Repository.Redeem).
func (s *Service) Validate(ctx context.Context, req Request) (*Result, error) {
	code := NormalizeCode(req.Code)
	if code == "" || !req.Amount.IsPositive() {
		return nil, reject(RejectionInvalidInput, "code and a positive amount are required")
	}

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, reject(RejectionNotFound, "coupon not found")
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if rej := s.checkGates(c, req); rej != nil {
		return nil, rej
	}

	amounts, err := Compute(c, req.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "compute discount")
	}

	return &Result{
		Coupon:         c.Summary(),
		OriginalAmount: req.Amount,
		DiscountAmount: amounts.Discount,
		FinalAmount:    amounts.Final,
	}, nil
}

// checkGates runs the ordered eligibility gates against one coupon snapshot.
// The order is part of the contract: the caller always sees the first
// failing gate's message.
func (s *Service) checkGates(c *Coupon, req Request) *RejectionError {
	if !c.Active {
		return reject(RejectionInactive, "coupon is not active")
	}

	if c.ValidUntil != nil && s.now().After(*c.ValidUntil) {
		return reject(RejectionExpired, "coupon has expired")
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return reject(RejectionUsageLimitReached, "coupon usage limit reached")
	}

	if c.MinAmount != nil && req.Amount.LessThan(*c.MinAmount) {
		return reject(RejectionBelowMinimumAmount,
			fmt.Sprintf("minimum purchase amount for this coupon is %s", c.MinAmount.StringFixed(2)))
	}

	// When no course is supplied the restriction gate is skipped entirely,
	// so a restricted coupon validated without a course passes.
	if !c.AppliesToAllCourses && req.CourseID != "" && !c.AllowedCourses.Contains(req.CourseID) {
		return reject(RejectionCourseNotEligible, "coupon is not valid for this course")
	}

	if !c.CanStack && len(req.AppliedCoupons) > 0 {
		return reject(RejectionStackingNotAllowed, "coupon cannot be combined with other coupons")
	}

	return nil
}

// Redeem consumes one usage slot for the given code. It is a thin
// pass-through to the repository's atomic conditional increment, kept on the
// service so the handler layer depends on one domain type.
func (s *Service) Redeem(ctx context.Context, code string) error {
	return s.repo.Redeem(ctx, NormalizeCode(code))
}
