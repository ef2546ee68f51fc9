package api

import "github.com/carepulse/carepulse/pkg/types"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"`
	RunCount   int    `json:"run_count"`
	AlertCount int    `json:"alert_count"`

	// Latest is a summary of the newest live run, absent when none is held.
	Latest *types.RunSummary `json:"latest,omitempty"`
}

// Error codes carried in errorResponse.Code.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnsupported  = "UNSUPPORTED_FORMAT"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeRateLimited  = "RATE_LIMITED"
	CodeNotFound     = "NOT_FOUND"
	CodeMethod       = "METHOD_NOT_ALLOWED"
	CodeInternal     = "INTERNAL"
)

// errorResponse is the JSON error body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
