package coupon

// RejectionKind classifies why a coupon application was refused. Every kind
// is client-facing and non-retryable without changed input.
type RejectionKind string

const (
	RejectionNotFound           RejectionKind = "not_found"
	RejectionInactive           RejectionKind = "inactive"
	RejectionExpired            RejectionKind = "expired"
	RejectionUsageLimitReached  RejectionKind = "usage_limit_reached"
	RejectionBelowMinimumAmount RejectionKind = "below_minimum_amount"
	RejectionCourseNotEligible  RejectionKind = "course_not_eligible"
	RejectionStackingNotAllowed RejectionKind = "stacking_not_allowed"
	RejectionInvalidInput       RejectionKind = "invalid_input"
)

// RejectionError is a structured validation refusal: one failed gate, one
// user-facing message. It is a terminal outcome, distinct from repository or
// infrastructure errors, which stay ordinary wrapped errors.
type RejectionError struct {
	Kind    RejectionKind
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func reject(kind RejectionKind, message string) *RejectionError {
	return &RejectionError{Kind: kind, Message: message}
}
