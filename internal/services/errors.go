// Package services defines the business logic for meal plans, ratings,
// feedback, visitors and the upstream sync. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Read-side errors.
var (
	// ErrMealNotFound indicates that the requested meal does not exist.
	ErrMealNotFound = errors.New("meal not found")

	// ErrMensaNotFound indicates an unknown cafeteria id or slug filter.
	ErrMensaNotFound = errors.New("mensa not found")

	// ErrAvailabilityNotFound is returned when a mensa_meal id does not exist
	// or does not belong to the requested meal.
	ErrAvailabilityNotFound = errors.New("availability not found")

	// ErrInvalidDate is returned for a day parameter that is neither a
	// YYYY-MM-DD date nor a recognised keyword.
	ErrInvalidDate = errors.New("invalid date")

	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("query is empty")
)

// Rating errors.
var (
	// ErrInvalidRating is returned when a score is outside 1..5.
	ErrInvalidRating = errors.New("rating values must be between 1 and 5")

	// ErrRatingNotFound indicates the visitor has not rated the meal.
	ErrRatingNotFound = errors.New("rating not found")

	// ErrCommentTooLong is returned when a rating comment exceeds the limit.
	ErrCommentTooLong = errors.New("comment too long")
)

// Feedback errors.
var (
	// ErrEmptyMessage is returned for a blank feedback or contact message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a message exceeds the limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidEmail is returned for a malformed email address, or a missing
	// one on the contact form.
	ErrInvalidEmail = errors.New("invalid email address")
)

// Visitor errors.
var (
	// ErrInvalidToken is returned when a visitor token fails verification.
	ErrInvalidToken = errors.New("invalid visitor token")
)
