package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/learnspace/checkout-api/internal/domain/coupon"
	"github.com/learnspace/checkout-api/internal/domain/course"
)

// maxBodyBytes caps request body size for all JSON endpoints.
const maxBodyBytes = 1 << 16

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// AssetBaseURL is prepended to relative thumbnail paths in course
	// responses. When empty, paths are returned as stored.
	AssetBaseURL string
}

// Handler serves the checkout promo API, delegating business logic to the
// injected domain dependencies.
type Handler struct {
	validator    coupon.Validator
	coupons      coupon.Repository
	courses      course.Repository
	assetBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	validator coupon.Validator,
	coupons coupon.Repository,
	courses course.Repository,
) *Handler {
	return &Handler{
		validator:    validator,
		coupons:      coupons,
		courses:      courses,
		assetBaseURL: cfg.AssetBaseURL,
	}
}

// writeJSON encodes a response body with the given jx encoder function.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the uniform error body {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeInternalError logs the error and responds 500 without leaking detail.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// encodeDecimalField writes a decimal value as a raw JSON number.
func encodeDecimalField(e *jx.Encoder, name, value string) {
	e.Field(name, func(e *jx.Encoder) { e.Num(jx.Num(value)) })
}
