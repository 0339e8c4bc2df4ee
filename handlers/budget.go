package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wdmmg/finance-api/middleware"
	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/services"
	"github.com/wdmmg/finance-api/utils"
)

type BudgetHandler struct {
	Budgets *services.BudgetService
	WS      *WSHandler
}

func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	budgets, err := h.Budgets.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// Upsert creates the caller's budget for a category or replaces its limit.
func (h *BudgetHandler) Upsert(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if !models.IsValidCategory(req.Category) {
		respondError(c, utils.ValidationError("Invalid category %q", req.Category))
		return
	}
	if req.MonthlyLimit <= 0 {
		respondError(c, utils.ValidationError("Budget limit must be greater than 0"))
		return
	}

	budget, err := h.Budgets.Upsert(c.Request.Context(), userID, req.Category, req.MonthlyLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.NotifyUser(userID, "budget_saved", budget.ID)
	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := parseRowID(c.Param("id"), "Budget")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Budgets.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	h.WS.NotifyUser(userID, "budget_deleted", id)
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

func (h *BudgetHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)

	statuses, err := h.Budgets.Status(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, statuses)
}
