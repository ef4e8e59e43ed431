package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
)

// RedeemCoupon handles POST /api/coupons/redeem. The payment flow calls it
// once per coupon after a successful charge; the underlying update is an
// atomic conditional increment, so a limited coupon can never be
// oversubscribed even when concurrent checkouts all validated against the
// same snapshot.
func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	code, err := decodeRedeemRequest(w, r)
	if err != nil || coupon.NormalizeCode(code) == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.coupons.Redeem(r.Context(), coupon.NormalizeCode(code)); err != nil {
		switch {
		case errors.Is(err, coupon.ErrNotFound):
			writeError(w, http.StatusNotFound, "coupon not found")
		case errors.Is(err, coupon.ErrUsageExhausted):
			writeError(w, http.StatusConflict, "coupon usage limit reached")
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("redeemed", func(e *jx.Encoder) { e.Bool(true) })
		})
	})
}

func decodeRedeemRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}

	var code string
	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		code = v
		return nil
	})
	return code, err
}
