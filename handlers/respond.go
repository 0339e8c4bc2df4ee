package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/wdmmg/finance-api/utils"
)

// respondError writes the structured error payload. Underlying causes are
// logged server-side and never serialized.
func respondError(c *gin.Context, err error) {
	var apiErr *utils.APIError
	if !errors.As(err, &apiErr) {
		apiErr = utils.InternalError(err)
	}

	if apiErr.Err != nil {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, apiErr.Err)
	}

	c.JSON(apiErr.Status(), gin.H{
		"error": gin.H{"kind": apiErr.Kind, "message": apiErr.Message},
	})
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, utils.ValidationError("Invalid request payload: %s", err.Error()))
}
