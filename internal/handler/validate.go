package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
)

// ValidateCoupon handles POST /api/coupons/validate. It decides whether the
// submitted code applies to the purchase and, if so, what it discounts. The
// decision is a pure computation over one coupon snapshot; no usage slot is
// consumed here.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValidateRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.validator.Validate(r.Context(), req)
	if err != nil {
		var rej *coupon.RejectionError
		if errors.As(err, &rej) {
			status := http.StatusBadRequest
			if rej.Kind == coupon.RejectionNotFound {
				status = http.StatusNotFound
			}
			writeError(w, status, rej.Message)
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeValidationResult(e, result)
	})
}

// decodeValidateRequest parses the validation request body. The amount is
// decoded from the raw number token so decimal inputs survive untouched.
func decodeValidateRequest(w http.ResponseWriter, r *http.Request) (coupon.Request, error) {
	var req coupon.Request

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, errors.Wrap(err, "read body")
	}

	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Str()
			if err != nil {
				return err
			}
			req.Code = v
		case "amount":
			n, err := d.Num()
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(strings.Trim(string(n), `"`))
			if err != nil {
				return err
			}
			req.Amount = amount
		case "courseId":
			v, err := d.Str()
			if err != nil {
				return err
			}
			req.CourseID = v
		case "appliedCoupons":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := d.Str()
				if err != nil {
					return err
				}
				req.AppliedCoupons = append(req.AppliedCoupons, v)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	return req, err
}

func encodeValidationResult(e *jx.Encoder, result *coupon.Result) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("valid", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("coupon", func(e *jx.Encoder) {
			encodeSummary(e, result.Coupon)
		})
		encodeDecimalField(e, "discountAmount", result.DiscountAmount.String())
		encodeDecimalField(e, "finalAmount", result.FinalAmount.String())
		encodeDecimalField(e, "originalAmount", result.OriginalAmount.String())
	})
}

func encodeSummary(e *jx.Encoder, s coupon.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
		e.Field("code", func(e *jx.Encoder) { e.Str(s.Code) })
		e.Field("description", func(e *jx.Encoder) { e.Str(s.Description) })
		e.Field("discountType", func(e *jx.Encoder) { e.Str(string(s.DiscountType)) })
		encodeDecimalField(e, "discountValue", s.DiscountValue.String())
		e.Field("canStackWithOtherCoupons", func(e *jx.Encoder) { e.Bool(s.CanStack) })
	})
}
