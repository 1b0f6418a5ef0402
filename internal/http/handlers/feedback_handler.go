// Form HTTP handlers.
//
//   - POST /feedback   (feedback form, email optional)
//   - POST /contact    (contact form, email required)
//
// Both accept an Idempotency-Key: a retried submission with the same key
// returns the original result with Idempotency-Replayed: true and does not
// notify the operator again.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/http/middleware"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/services"
)

// FormRequest is the payload of both forms.
type FormRequest struct {
	Name    string `json:"name,omitempty" example:"Alex"`
	Email   string `json:"email,omitempty" example:"alex@example.org"`
	Message string `json:"message" binding:"required" example:"Bitte mehr vegane Gerichte!"`
}

// FormResponse acknowledges a stored submission.
type FormResponse struct {
	ID      string `json:"id" example:"1f0e9a7c2b3d4e5f6a7b8c9d0e1f2a3b"`
	Message string `json:"message" example:"Vielen Dank für dein Feedback!"`
}

const (
	feedbackThanks = "Vielen Dank für dein Feedback!"
	contactThanks  = "Vielen Dank für deine Nachricht!"
)

// SubmitFeedback godoc
// @ID          submitFeedback
// @Summary     Send feedback
// @Tags        Forms
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.FormRequest  true   "Feedback"
// @Success     201  {object} handlers.FormResponse
// @Header      201  {string} Idempotency-Replayed "true when served from a previous submission"
// @Failure     400  {object} handlers.ErrorResponse "Invalid message or email"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback [post]
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	h.submitForm(c, h.forms.Feedback, feedbackThanks)
}

// SubmitContact godoc
// @ID          submitContact
// @Summary     Send a contact message
// @Tags        Forms
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                false  "Key for safe retries"
// @Param       body             body    handlers.FormRequest  true   "Contact message"
// @Success     201  {object} handlers.FormResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid message or email"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	h.submitForm(c, h.forms.Contact, contactThanks)
}

type submitFunc func(ctx context.Context, in services.FeedbackInput) (*domain.Feedback, error)

func (h *Handlers) submitForm(c *gin.Context, submit submitFunc, thanks string) {
	ctx := c.Request.Context()

	key, hasKey := middleware.GetIdempotencyKey(c)
	subject := middleware.IdempotencySubject(c)
	scope := middleware.IdempotencyScope(c)
	if hasKey && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, subject, scope, key, h.now().UTC()); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, rec.Status, FormResponse{ID: rec.ResourceID, Message: thanks})
			return
		}
	}

	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidMessage, "message required")
		return
	}

	fb, err := submit(ctx, services.FeedbackInput{Name: req.Name, Email: req.Email, Message: req.Message})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeInvalidMessage, "message required")
		case errors.Is(err, services.ErrMessageTooLong):
			fail(c, http.StatusBadRequest, ErrCodeInvalidMessage, "message too long")
		case errors.Is(err, services.ErrInvalidEmail):
			fail(c, http.StatusBadRequest, ErrCodeInvalidEmail, "valid email required")
		default:
			failInternal(c, err)
		}
		return
	}

	// Best effort; a lost record only means a retry is stored twice.
	if hasKey && h.db != nil {
		if _, err := repo.CreateIdempotency(ctx, h.db, subject, scope, key, fb.ID, http.StatusCreated, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
		}
	}
	ok(c, http.StatusCreated, FormResponse{ID: fb.ID, Message: thanks})
}
