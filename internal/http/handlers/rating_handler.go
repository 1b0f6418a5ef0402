package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/services"
)

// RatingRequest is the payload of PUT /meals/{id}/rating. Sub-scores are
// optional; every score is 1..5.
type RatingRequest struct {
	// MensaMealID pins the availability being rated; the latest one is
	// used when empty.
	MensaMealID   string  `json:"mensa_meal_id" example:"5f0c7e3a9b1d4c2e8a6b4d2f1e3c5a7b"`
	Value         int     `json:"value" binding:"required,min=1,max=5" example:"4"`
	ValuePrice    *int    `json:"value_price,omitempty" binding:"omitempty,min=1,max=5" example:"3"`
	ValueQuantity *int    `json:"value_quantity,omitempty" binding:"omitempty,min=1,max=5" example:"5"`
	ValueTaste    *int    `json:"value_taste,omitempty" binding:"omitempty,min=1,max=5" example:"4"`
	Comment       *string `json:"comment,omitempty" example:"Knusprig, aber etwas wenig Soße"`
}

// RatingResponse is returned after a rating write.
type RatingResponse struct {
	Message string               `json:"message" example:"Bewertung erstellt"`
	Rating  *domain.Rating       `json:"rating"`
	Stats   services.RatingStats `json:"stats"`
}

// GetRating godoc
// @ID          getRating
// @Summary     Current visitor's rating
// @Description Returns the rating the visitor identified by the cookie (or known client address) left for the meal.
// @Tags        Ratings
// @Produce     json
// @Param       id  path  string  true  "Meal ID"
// @Success     200  {object} domain.Rating
// @Failure     404  {object} handlers.ErrorResponse "No rating"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/rating [get]
func (h *Handlers) GetRating(c *gin.Context) {
	v, err := h.visitors.Identify(c.Request.Context(), h.visitorToken(c), clientIPHash(c))
	if err != nil {
		failInternal(c, err)
		return
	}
	h.setVisitorCookie(c, v)

	r, err := h.ratings.Get(c.Request.Context(), c.Param("id"), v.UserID)
	if err != nil {
		if errors.Is(err, services.ErrRatingNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "rating not found")
			return
		}
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// PutRating godoc
// @ID          putRating
// @Summary     Create or update the visitor's rating
// @Description Creates the visitor on first use and sets the visitor cookie.
// @Tags        Ratings
// @Accept      json
// @Produce     json
// @Param       id    path  string                   true  "Meal ID"
// @Param       body  body  handlers.RatingRequest   true  "Rating"
// @Success     200  {object} handlers.RatingResponse "Updated"
// @Success     201  {object} handlers.RatingResponse "Created"
// @Failure     400  {object} handlers.ErrorResponse "Invalid rating"
// @Failure     404  {object} handlers.ErrorResponse "Meal or availability not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/rating [put]
func (h *Handlers) PutRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidRating, "value must be between 1 and 5")
		return
	}

	ctx := c.Request.Context()
	v, err := h.visitors.GetOrCreate(ctx, h.visitorToken(c), clientIPHash(c))
	if err != nil {
		failInternal(c, err)
		return
	}
	h.setVisitorCookie(c, v)

	mealID := c.Param("id")
	r, created, err := h.ratings.Submit(ctx, mealID, v.UserID, services.RatingInput{
		MensaMealID:   strings.TrimSpace(req.MensaMealID),
		Value:         req.Value,
		ValuePrice:    req.ValuePrice,
		ValueQuantity: req.ValueQuantity,
		ValueTaste:    req.ValueTaste,
		Comment:       req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRating):
			fail(c, http.StatusBadRequest, ErrCodeInvalidRating, err.Error())
		case errors.Is(err, services.ErrCommentTooLong):
			fail(c, http.StatusBadRequest, ErrCodeInvalidRating, "comment too long")
		case errors.Is(err, services.ErrMealNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "meal not found")
		case errors.Is(err, services.ErrAvailabilityNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "availability not found")
		default:
			failInternal(c, err)
		}
		return
	}

	stats, err := h.ratings.Stats(ctx, mealID)
	if err != nil {
		failInternal(c, err)
		return
	}

	status, msg := http.StatusOK, "Bewertung aktualisiert"
	if created {
		status, msg = http.StatusCreated, "Bewertung erstellt"
	}
	ok(c, status, RatingResponse{Message: msg, Rating: r, Stats: stats})
}

// DeleteRating godoc
// @ID          deleteRating
// @Summary     Delete the visitor's rating
// @Tags        Ratings
// @Produce     json
// @Param       id  path  string  true  "Meal ID"
// @Success     200  {object} handlers.MessageResponse
// @Failure     404  {object} handlers.ErrorResponse "No rating"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/rating [delete]
func (h *Handlers) DeleteRating(c *gin.Context) {
	v, err := h.visitors.Identify(c.Request.Context(), h.visitorToken(c), clientIPHash(c))
	if err != nil {
		failInternal(c, err)
		return
	}
	h.setVisitorCookie(c, v)

	if err := h.ratings.Delete(c.Request.Context(), c.Param("id"), v.UserID); err != nil {
		if errors.Is(err, services.ErrRatingNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Keine Bewertung gefunden")
			return
		}
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Bewertung gelöscht"})
}

func (h *Handlers) visitorToken(c *gin.Context) string {
	tok, _ := c.Cookie(services.VisitorCookieName)
	return tok
}

// setVisitorCookie (re)issues the visitor cookie when v carries a token.
func (h *Handlers) setVisitorCookie(c *gin.Context, v services.Visitor) {
	if v.Token == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.VisitorCookieName, v.Token, int(h.visitors.TTL().Seconds()), "/", "", h.secureCookie, true)
}

func clientIPHash(c *gin.Context) string {
	return services.HashIP(c.GetHeader("X-Forwarded-For"), c.GetHeader("X-Real-IP"))
}
