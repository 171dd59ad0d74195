package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safewaters/backend/internal/api/middleware"
	"github.com/safewaters/backend/internal/services"
)

// ProfileHandler exposes managed profile CRUD for authenticated managers.
type ProfileHandler struct {
	profiles *services.ProfileService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func profileErrStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type CreateProfileRequest struct {
	ProfileName string `json:"profile_name" binding:"required,max=100"`
}

func (h *ProfileHandler) Create(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Create(middleware.CurrentUserID(c), req.ProfileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profiles.List(middleware.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.profiles.Get(middleware.CurrentUserID(c), id)
	if err != nil {
		profileErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type UpdateProfileRequest struct {
	ProfileName        *string `json:"profile_name,omitempty"`
	URLCheckingEnabled *bool   `json:"url_checking_enabled,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Update(middleware.CurrentUserID(c), id, req.ProfileName, req.URLCheckingEnabled)
	if err != nil {
		profileErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.profiles.Delete(middleware.CurrentUserID(c), id); err != nil {
		profileErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted"})
}

// RotateToken invalidates the extension token and issues a fresh one.
func (h *ProfileHandler) RotateToken(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.profiles.RotateToken(middleware.CurrentUserID(c), id)
	if err != nil {
		profileErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": profile.Token})
}
