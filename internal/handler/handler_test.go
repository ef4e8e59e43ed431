package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnspace/checkout-api/internal/domain/auth"
	"github.com/learnspace/checkout-api/internal/domain/coupon"
	"github.com/learnspace/checkout-api/internal/domain/course"
)

// --- Mock implementations ---

type mockValidator struct {
	result  *coupon.Result
	err     error
	lastReq coupon.Request
}

func (m *mockValidator) Validate(_ context.Context, req coupon.Request) (*coupon.Result, error) {
	m.lastReq = req
	return m.result, m.err
}

type mockCouponRepo struct {
	coupon       *coupon.Coupon
	findErr      error
	redeemErr    error
	redeemedCode string
	created      *coupon.Coupon
	createErr    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*coupon.Coupon, error) {
	return m.coupon, m.findErr
}

func (m *mockCouponRepo) Redeem(_ context.Context, code string) error {
	m.redeemedCode = code
	return m.redeemErr
}

func (m *mockCouponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	m.created = c
	return m.createErr
}

type mockCourseRepo struct {
	courses []course.Course
	byID    map[string]*course.Course
	listErr error
}

func (m *mockCourseRepo) List(_ context.Context) ([]course.Course, error) {
	return m.courses, m.listErr
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*course.Course, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, course.ErrNotFound
	}
	return c, nil
}

type mockAPIKeyRepo struct {
	info *auth.APIKeyInfo
	err  error
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, _ string) (*auth.APIKeyInfo, error) {
	return m.info, m.err
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newHandler(v coupon.Validator, coupons coupon.Repository, courses course.Repository) *Handler {
	return New(Config{AssetBaseURL: "https://cdn.example.com"}, v, coupons, courses)
}

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// --- ValidateCoupon ---

func TestValidateCoupon_Success(t *testing.T) {
	v := &mockValidator{result: &coupon.Result{
		Coupon: coupon.Summary{
			ID:            "cpn_1",
			Code:          "SAVE20",
			Description:   "20% off",
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: d("20"),
			CanStack:      true,
		},
		OriginalAmount: d("1000"),
		DiscountAmount: d("15"),
		FinalAmount:    d("985"),
	}}
	h := newHandler(v, &mockCouponRepo{}, &mockCourseRepo{})

	w := do(h.ValidateCoupon, http.MethodPost, "/api/coupons/validate",
		`{"code":"save20","amount":1000,"courseId":"go-101","appliedCoupons":["OTHER"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Valid  bool `json:"valid"`
		Coupon struct {
			ID            string          `json:"id"`
			Code          string          `json:"code"`
			Description   string          `json:"description"`
			DiscountType  string          `json:"discountType"`
			DiscountValue decimal.Decimal `json:"discountValue"`
			CanStack      bool            `json:"canStackWithOtherCoupons"`
		} `json:"coupon"`
		DiscountAmount decimal.Decimal `json:"discountAmount"`
		FinalAmount    decimal.Decimal `json:"finalAmount"`
		OriginalAmount decimal.Decimal `json:"originalAmount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Valid)
	assert.Equal(t, "SAVE20", resp.Coupon.Code)
	assert.Equal(t, "percentage", resp.Coupon.DiscountType)
	assert.True(t, resp.Coupon.CanStack)
	assert.True(t, d("15").Equal(resp.DiscountAmount))
	assert.True(t, d("985").Equal(resp.FinalAmount))
	assert.True(t, d("1000").Equal(resp.OriginalAmount))

	// The handler passes the raw request through; normalization belongs to
	// the validator.
	assert.Equal(t, "save20", v.lastReq.Code)
	assert.Equal(t, "go-101", v.lastReq.CourseID)
	assert.Equal(t, []string{"OTHER"}, v.lastReq.AppliedCoupons)
}

func TestValidateCoupon_DecimalAmountSurvivesDecoding(t *testing.T) {
	v := &mockValidator{err: &coupon.RejectionError{Kind: coupon.RejectionInactive, Message: "coupon is not active"}}
	h := newHandler(v, &mockCouponRepo{}, &mockCourseRepo{})

	do(h.ValidateCoupon, http.MethodPost, "/api/coupons/validate", `{"code":"X","amount":49.99}`)

	assert.True(t, d("49.99").Equal(v.lastReq.Amount))
}

func TestValidateCoupon_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		kind       coupon.RejectionKind
		message    string
		wantStatus int
	}{
		{name: "not found maps to 404", kind: coupon.RejectionNotFound, message: "coupon not found", wantStatus: http.StatusNotFound},
		{name: "inactive maps to 400", kind: coupon.RejectionInactive, message: "coupon is not active", wantStatus: http.StatusBadRequest},
		{name: "expired maps to 400", kind: coupon.RejectionExpired, message: "coupon has expired", wantStatus: http.StatusBadRequest},
		{name: "below minimum maps to 400", kind: coupon.RejectionBelowMinimumAmount, message: "minimum purchase amount for this coupon is 50.00", wantStatus: http.StatusBadRequest},
		{name: "stacking maps to 400", kind: coupon.RejectionStackingNotAllowed, message: "coupon cannot be combined with other coupons", wantStatus: http.StatusBadRequest},
		{name: "invalid input maps to 400", kind: coupon.RejectionInvalidInput, message: "code and a positive amount are required", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &mockValidator{err: &coupon.RejectionError{Kind: tt.kind, Message: tt.message}}
			h := newHandler(v, &mockCouponRepo{}, &mockCourseRepo{})

			w := do(h.ValidateCoupon, http.MethodPost, "/api/coupons/validate", `{"code":"X","amount":10}`)

			require.Equal(t, tt.wantStatus, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp["error"])
		})
	}
}

func TestValidateCoupon_MalformedBody(t *testing.T) {
	h := newHandler(&mockValidator{}, &mockCouponRepo{}, &mockCourseRepo{})

	w := do(h.ValidateCoupon, http.MethodPost, "/api/coupons/validate", `{"code":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateCoupon_InfraFailureMapsTo500(t *testing.T) {
	v := &mockValidator{err: errors.New("connection refused")}
	h := newHandler(v, &mockCouponRepo{}, &mockCourseRepo{})

	w := do(h.ValidateCoupon, http.MethodPost, "/api/coupons/validate", `{"code":"X","amount":10}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp["error"])
}

// --- RedeemCoupon ---

func TestRedeemCoupon(t *testing.T) {
	tests := []struct {
		name       string
		redeemErr  error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "unknown code", redeemErr: coupon.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "exhausted", redeemErr: coupon.ErrUsageExhausted, wantStatus: http.StatusConflict},
		{name: "infra failure", redeemErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepo{redeemErr: tt.redeemErr}
			h := newHandler(&mockValidator{}, repo, &mockCourseRepo{})

			w := do(h.RedeemCoupon, http.MethodPost, "/api/coupons/redeem", `{"code":"flat10"}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "FLAT10", repo.redeemedCode)
		})
	}
}

func TestRedeemCoupon_MissingCode(t *testing.T) {
	repo := &mockCouponRepo{}
	h := newHandler(&mockValidator{}, repo, &mockCourseRepo{})

	w := do(h.RedeemCoupon, http.MethodPost, "/api/coupons/redeem", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.redeemedCode)
}

// --- Courses ---

func TestListCourses(t *testing.T) {
	repo := &mockCourseRepo{courses: []course.Course{
		{ID: "go-101", Title: "Go for Beginners", Category: "programming", Price: d("49.99"), Instructor: "Ada", Thumbnail: "/img/go-101.png"},
	}}
	h := newHandler(&mockValidator{}, &mockCouponRepo{}, repo)

	w := do(h.ListCourses, http.MethodGet, "/api/courses", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp []struct {
		ID        string          `json:"id"`
		Price     decimal.Decimal `json:"price"`
		Thumbnail string          `json:"thumbnail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "go-101", resp[0].ID)
	assert.True(t, d("49.99").Equal(resp[0].Price))
	assert.Equal(t, "https://cdn.example.com/img/go-101.png", resp[0].Thumbnail)
}

func TestGetCourse_NotFound(t *testing.T) {
	h := newHandler(&mockValidator{}, &mockCouponRepo{}, &mockCourseRepo{byID: map[string]*course.Course{}})

	req := httptest.NewRequest(http.MethodGet, "/api/courses/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	h.GetCourse(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- CreateCoupon ---

func TestCreateCoupon(t *testing.T) {
	repo := &mockCouponRepo{}
	h := newHandler(&mockValidator{}, repo, &mockCourseRepo{})

	body := `{
		"code": "welcome10",
		"description": "10% off for new students",
		"discountType": "percentage",
		"discountValue": 10,
		"minAmount": 20,
		"usageLimit": 500,
		"allowedCourseIds": ["go-101"],
		"appliesToAllCourses": false
	}`
	w := do(h.CreateCoupon, http.MethodPost, "/api/coupons", body)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "WELCOME10", repo.created.Code)
	assert.NotEmpty(t, repo.created.ID)
	assert.False(t, repo.created.AppliesToAllCourses)
	assert.True(t, repo.created.AllowedCourses.Contains("go-101"))
	assert.True(t, repo.created.Active)
	assert.False(t, repo.created.CanStack)
	require.NotNil(t, repo.created.UsageLimit)
	assert.Equal(t, 500, *repo.created.UsageLimit)
}

func TestCreateCoupon_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing code", body: `{"discountType":"fixed","discountValue":5}`},
		{name: "bad discount type", body: `{"code":"X","discountType":"bogo","discountValue":5}`},
		{name: "non-positive value", body: `{"code":"X","discountType":"fixed","discountValue":0}`},
		{name: "unknown field", body: `{"code":"X","discountType":"fixed","discountValue":5,"nope":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepo{}
			h := newHandler(&mockValidator{}, repo, &mockCourseRepo{})

			w := do(h.CreateCoupon, http.MethodPost, "/api/coupons", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, repo.created)
		})
	}
}

// --- Security ---

func apiKeyHash(pepper, key string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSecurity_Require(t *testing.T) {
	const pepper = "test-pepper"
	const key = "secret-key"

	okInfo := &auth.APIKeyInfo{
		ID:      "key_1",
		KeyHash: apiKeyHash(pepper, key),
		Name:    "payments",
		Scopes:  []string{auth.ScopeCheckout},
	}

	tests := []struct {
		name       string
		header     string
		info       *auth.APIKeyInfo
		lookupErr  error
		scope      string
		wantStatus int
	}{
		{name: "valid key with scope", header: key, info: okInfo, scope: auth.ScopeCheckout, wantStatus: http.StatusOK},
		{name: "missing header", header: "", info: okInfo, scope: auth.ScopeCheckout, wantStatus: http.StatusUnauthorized},
		{name: "unknown key", header: key, lookupErr: errors.New("not found"), scope: auth.ScopeCheckout, wantStatus: http.StatusUnauthorized},
		{name: "missing scope", header: key, info: okInfo, scope: auth.ScopeAdmin, wantStatus: http.StatusForbidden},
		{
			name:   "stale stored hash",
			header: key,
			info: &auth.APIKeyInfo{
				KeyHash: apiKeyHash(pepper, "different-key"),
				Scopes:  []string{auth.ScopeCheckout},
			},
			scope:      auth.ScopeCheckout,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := NewSecurity(&mockAPIKeyRepo{info: tt.info, err: tt.lookupErr}, []byte(pepper))
			guarded := sec.Require(tt.scope, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/coupons/redeem", nil)
			if tt.header != "" {
				req.Header.Set("api_key", tt.header)
			}
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
