package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wdmmg/finance-api/middleware"
	"github.com/wdmmg/finance-api/services"
	"github.com/wdmmg/finance-api/utils"
)

type StatsHandler struct {
	Stats *services.StatsService
}

func (h *StatsHandler) ByCategory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	start, err := parseDateParam(c.Query("start_date"))
	if err != nil {
		respondError(c, utils.ValidationError("Invalid start_date format. Use ISO format."))
		return
	}
	end, err := parseDateParam(c.Query("end_date"))
	if err != nil {
		respondError(c, utils.ValidationError("Invalid end_date format. Use ISO format."))
		return
	}

	includeAll := c.Query("include_all") == "true"

	stats, err := h.Stats.ByCategory(c.Request.Context(), userID, start, end, includeAll)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Trends(c *gin.Context) {
	userID := middleware.GetUserID(c)

	period := c.DefaultQuery("period", "monthly")
	switch period {
	case "daily", "weekly", "monthly", "yearly":
	default:
		respondError(c, utils.ValidationError("Invalid period %q. Use daily, weekly, monthly or yearly.", period))
		return
	}

	trends, err := h.Stats.Trends(c.Request.Context(), userID, period)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trends)
}
