package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/speisly/mensa-api/internal/services"
)

// SyncResponse is the body of a successful sync trigger.
type SyncResponse struct {
	Message string `json:"message" example:"Data synced"`
}

// SyncErrorResponse is the body of a rejected sync trigger. The trigger
// answers in this shape for compatibility with existing cron callers.
type SyncErrorResponse struct {
	Error string `json:"error" example:"Unauthorized: Invalid bearer token"`
}

// Sync godoc
// @ID          triggerSync
// @Summary     Trigger a sync pass
// @Description Runs a full sync (today plus the configured window) or, with refresh=true, a same-day refresh.
// @Tags        Sync
// @Produce     json
// @Security    BearerAuth
//
// @Param       refresh  query  bool  false  "Refresh today only"
//
// @Success     200  {object} handlers.SyncResponse
// @Failure     401  {object} handlers.SyncErrorResponse "Missing or invalid bearer token"
// @Failure     500  {object} handlers.SyncErrorResponse "Token not configured or store failure"
// @Router      /api/sync [get]
// @Router      /api/sync [post]
func (h *Handlers) Sync(c *gin.Context) {
	if h.syncToken == "" || h.sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, SyncErrorResponse{Error: "Server configuration error"})
		return
	}

	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, SyncErrorResponse{Error: "Unauthorized: Missing or invalid authorization header"})
		return
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.syncToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, SyncErrorResponse{Error: "Unauthorized: Invalid bearer token"})
		return
	}

	mode := services.SyncFull
	msg := "Data synced"
	if isTruthyQuery(c.Query("refresh")) {
		mode = services.SyncRefresh
		msg = "Cache refreshed"
	}

	// A pass runs to completion even when the caller hangs up.
	if _, err := h.sync.Run(context.WithoutCancel(c.Request.Context()), mode); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, SyncErrorResponse{Error: "Sync failed"})
		return
	}
	ok(c, http.StatusOK, SyncResponse{Message: msg})
}

// isTruthyQuery treats any non-empty value except explicit negatives as
// true, so "?refresh=1" and "?refresh=true" both select a refresh.
func isTruthyQuery(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
