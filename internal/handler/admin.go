package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
)

// createCouponRequest is the admin payload for creating a coupon. Optional
// constraints stay pointers so "absent" and "zero" remain distinct.
type createCouponRequest struct {
	Code                string           `json:"code"`
	Description         string           `json:"description"`
	DiscountType        string           `json:"discountType"`
	DiscountValue       decimal.Decimal  `json:"discountValue"`
	MinAmount           *decimal.Decimal `json:"minAmount"`
	MaxDiscount         *decimal.Decimal `json:"maxDiscount"`
	UsageLimit          *int             `json:"usageLimit"`
	ValidUntil          *time.Time       `json:"validUntil"`
	AppliesToAllCourses *bool            `json:"appliesToAllCourses"`
	AllowedCourseIDs    []string         `json:"allowedCourseIds"`
	CanStack            *bool            `json:"canStackWithOtherCoupons"`
	Active              *bool            `json:"isActive"`
}

// CreateCoupon handles POST /api/coupons (admin only). This is the
// administrative workflow that owns coupon records; validation only ever
// reads them.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := coupon.NormalizeCode(req.Code)
	dt := coupon.DiscountType(req.DiscountType)
	switch {
	case code == "":
		writeError(w, http.StatusBadRequest, "code is required")
		return
	case dt != coupon.DiscountPercentage && dt != coupon.DiscountFixed:
		writeError(w, http.StatusBadRequest, "discountType must be percentage or fixed")
		return
	case !req.DiscountValue.IsPositive():
		writeError(w, http.StatusBadRequest, "discountValue must be positive")
		return
	}

	c := &coupon.Coupon{
		ID:                  uuid.New().String(),
		Code:                code,
		Description:         req.Description,
		DiscountType:        dt,
		DiscountValue:       req.DiscountValue,
		MinAmount:           req.MinAmount,
		MaxDiscount:         req.MaxDiscount,
		UsageLimit:          req.UsageLimit,
		ValidUntil:          req.ValidUntil,
		AppliesToAllCourses: boolOr(req.AppliesToAllCourses, true),
		AllowedCourses:      coupon.NewCourseSet(req.AllowedCourseIDs),
		CanStack:            boolOr(req.CanStack, false),
		Active:              boolOr(req.Active, true),
	}

	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeSummary(e, c.Summary())
	})
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
