// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings returned in the `code` field of
// every ErrorResponse. Clients branch on the code; the message is for humans.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "meal not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeInvalidDate    = "invalid_date"
	ErrCodeInvalidRating  = "invalid_rating"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeInvalidEmail   = "invalid_email"
	ErrCodeSyncFailed     = "sync_failed"
)
