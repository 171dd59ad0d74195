package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safewaters/backend/internal/api/middleware"
	"github.com/safewaters/backend/internal/services"
)

// RuleHandler exposes blocking rule CRUD for authenticated managers.
type RuleHandler struct {
	rules *services.RuleService
}

// NewRuleHandler creates a RuleHandler.
func NewRuleHandler(rules *services.RuleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

func ruleErrStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRuleNotFound), errors.Is(err, services.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidRuleType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *RuleHandler) Create(c *gin.Context) {
	profileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.rules.CreateForProfile(middleware.CurrentUserID(c), profileID, input)
	if err != nil {
		ruleErrStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) ListForProfile(c *gin.Context) {
	profileID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rules, err := h.rules.ListForProfile(middleware.CurrentUserID(c), profileID)
	if err != nil {
		ruleErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *RuleHandler) Get(c *gin.Context) {
	ruleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rule, err := h.rules.Get(middleware.CurrentUserID(c), ruleID)
	if err != nil {
		ruleErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Update(c *gin.Context) {
	ruleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.rules.Update(middleware.CurrentUserID(c), ruleID, input)
	if err != nil {
		ruleErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Delete(c *gin.Context) {
	ruleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rules.Delete(middleware.CurrentUserID(c), ruleID); err != nil {
		ruleErrStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}
