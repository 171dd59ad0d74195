package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safewaters/backend/internal/api/middleware"
	"github.com/safewaters/backend/internal/services"
	"github.com/safewaters/backend/internal/threatintel"
)

// CheckHandler is the extension-facing endpoint: it authenticates via the
// opaque profile token in the request body, never via a manager JWT.
type CheckHandler struct {
	checks *services.CheckService
}

// NewCheckHandler creates a CheckHandler.
func NewCheckHandler(checks *services.CheckService) *CheckHandler {
	return &CheckHandler{checks: checks}
}

type CheckRequest struct {
	URL          string `json:"url" binding:"required"`
	ProfileToken string `json:"profile_token" binding:"required"`
}

// Check evaluates a visited URL. Only token and URL validation errors reach
// the extension; threat source outages degrade into a best-effort verdict.
func (h *CheckHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.checks.CheckByToken(c.Request.Context(), req.ProfileToken, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, threatintel.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			middleware.GetRequestLogger(c).WithError(err).Error("url check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not evaluate url"})
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}
