// Meal plan HTTP handlers.
//
//   - GET /mensen                     (cafeterias)
//   - GET /meals                      (plan of one day, weak ETag)
//   - GET /meals/search               (token search)
//   - GET /meals/{id}                 (detail with rating stats)
//   - GET /meals/{id}/availability    (dates and cafeterias)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/services"
	"github.com/speisly/mensa-api/internal/utils"
)

// MensenResponse lists cafeterias.
type MensenResponse struct {
	Mensen []domain.Mensa `json:"mensen"`
}

// MealsResponse is the plan of one day grouped by cafeteria.
type MealsResponse struct {
	Date   string                `json:"date" example:"2024-03-04"`
	Mensen []services.MensaMeals `json:"mensen"`
}

// SearchResponse carries ranked search hits.
type SearchResponse struct {
	Query string               `json:"query" example:"schnitzel"`
	Hits  []services.SearchHit `json:"hits"`
}

// AvailabilityResponse lists where and when a meal is offered.
type AvailabilityResponse struct {
	MealID       string                   `json:"meal_id"`
	Availability []repo.AvailabilityEntry `json:"availability"`
}

const (
	defaultSearchK = 10
	maxSearchK     = 50
)

// ListMensen godoc
// @ID          listMensen
// @Summary     List cafeterias
// @Tags        Mensen
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {object} handlers.MensenResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /mensen [get]
func (h *Handlers) ListMensen(c *gin.Context) {
	ctx := c.Request.Context()
	if v, err := h.meals.MensenVersion(ctx); err == nil {
		if notModified(c, fmt.Sprintf(`W/"mensen:%d:%d"`, v.Count, versionStamp(v))) {
			return
		}
	}

	items, err := h.meals.Mensen(ctx)
	if err != nil {
		failInternal(c, err)
		return
	}
	if items == nil {
		items = []domain.Mensa{}
	}
	ok(c, http.StatusOK, MensenResponse{Mensen: items})
}

// ListMeals godoc
// @ID          listMeals
// @Summary     Meals of one day
// @Description Returns the meals offered on a day grouped by cafeteria. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Meals
// @Produce     json
//
// @Param       date           query   string  false "Day (YYYY-MM-DD, heute, today); defaults to today (UTC)"  example(2024-03-04)
// @Param       mensa          query   string  false "Cafeteria id or slug"
// @Param       diet           query   string  false "Dietary filter"  Enums(vegan, veggie, meat, fish)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.MealsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid date or diet"
// @Failure     404  {object} handlers.ErrorResponse "Cafeteria not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals [get]
func (h *Handlers) ListMeals(c *gin.Context) {
	ctx := c.Request.Context()

	day, err := utils.ParseDay(c.Query("date"), h.now().UTC())
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDate, "date must be YYYY-MM-DD")
		return
	}
	diet := strings.ToLower(strings.TrimSpace(c.Query("diet")))
	if !validDiet(diet) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "diet must be one of vegan, veggie, meat, fish")
		return
	}
	mensaID, err := h.meals.ResolveMensa(ctx, firstQuery(c, "mensa", "mensa_id"))
	if err != nil {
		if errors.Is(err, services.ErrMensaNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "mensa not found")
			return
		}
		failInternal(c, err)
		return
	}

	date := day.Format(time.DateOnly)
	if v, err := h.meals.DayVersion(ctx, day, mensaID); err == nil {
		etag := fmt.Sprintf(`W/"meals:%s:%s:%s:%d:%d"`, date, mensaID, diet, v.Count, versionStamp(v))
		if notModified(c, etag) {
			return
		}
	}

	groups, err := h.meals.MealsForDay(ctx, day, mensaID, diet)
	if err != nil {
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, MealsResponse{Date: date, Mensen: groups})
}

// SearchMeals godoc
// @ID          searchMeals
// @Summary     Search meals
// @Description Ranks meals by token overlap of name and subtitle with the query.
// @Tags        Meals
// @Produce     json
// @Param       q  query  string  true   "Query"  example(schnitzel)
// @Param       k  query  int     false  "Max hits"  minimum(1) maximum(50) default(10)
// @Success     200  {object} handlers.SearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Empty query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/search [get]
func (h *Handlers) SearchMeals(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	k := utils.AtoiDefault(c.Query("k"), defaultSearchK)
	if k < 1 {
		k = 1
	}
	if k > maxSearchK {
		k = maxSearchK
	}

	hits, err := h.meals.Search(c.Request.Context(), q, k)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q required")
			return
		}
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Hits: hits})
}

// GetMeal godoc
// @ID          getMeal
// @Summary     Meal detail
// @Description Returns a meal at one of its availabilities (the latest unless mensa_meal_id is given) with dietary flags and rating statistics.
// @Tags        Meals
// @Produce     json
// @Param       id             path   string  true   "Meal ID"
// @Param       mensa_meal_id  query  string  false  "Availability ID"
// @Success     200  {object} services.MealDetail
// @Failure     404  {object} handlers.ErrorResponse "Meal or availability not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id} [get]
func (h *Handlers) GetMeal(c *gin.Context) {
	d, err := h.meals.Detail(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.Query("mensa_meal_id")))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMealNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "meal not found")
		case errors.Is(err, services.ErrAvailabilityNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "availability not found")
		default:
			failInternal(c, err)
		}
		return
	}
	ok(c, http.StatusOK, d)
}

// GetAvailability godoc
// @ID          getMealAvailability
// @Summary     Meal availability
// @Tags        Meals
// @Produce     json
// @Param       id  path  string  true  "Meal ID"
// @Success     200  {object} handlers.AvailabilityResponse
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/availability [get]
func (h *Handlers) GetAvailability(c *gin.Context) {
	id := c.Param("id")
	items, err := h.meals.Availability(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMealNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "meal not found")
			return
		}
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, AvailabilityResponse{MealID: id, Availability: items})
}

func validDiet(d string) bool {
	switch d {
	case "", "vegan", "veggie", "vegetarian", "meat", "fish":
		return true
	}
	return false
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

// notModified sets the validator headers and answers 304 when the client
// already holds etag.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func versionStamp(v services.DayVersion) int64 {
	if v.UpdatedAt == nil {
		return 0
	}
	return v.UpdatedAt.UnixMilli()
}
