package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safewaters/backend/internal/api/middleware"
	"github.com/safewaters/backend/internal/services"
)

// HistoryHandler serves the paginated navigation audit trail of a profile.
type HistoryHandler struct {
	profiles *services.ProfileService
	history  *services.HistoryService
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(profiles *services.ProfileService, history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{profiles: profiles, history: history}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

// ListForProfile returns one page of history, newest first. Ownership of the
// profile is checked before any rows are read.
func (h *HistoryHandler) ListForProfile(c *gin.Context) {
	profileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.profiles.Get(middleware.CurrentUserID(c), profileID); err != nil {
		profileErrStatus(c, err)
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 50)
	blockedOnly := c.Query("blocked_only") == "true"

	result, err := h.history.ListForProfile(profileID, page, pageSize, blockedOnly)
	if err != nil {
		var oor *services.PageOutOfRangeError
		if errors.As(err, &oor) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":       err.Error(),
				"total_pages": oor.TotalPages,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
