package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pkm-review-api/config"
	"pkm-review-api/services"
)

// GetPhaseToggles returns the state of all three phase flags.
func GetPhaseToggles(c *gin.Context) {
	toggles, err := services.NewPhaseService(config.DB).GetToggles()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"phases":  toggles,
	})
}

// SetPhaseToggle flips one phase flag and runs the status cascade.
func SetPhaseToggle(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	toggles, err := services.NewPhaseService(config.DB).SetToggle(key, *req.Enabled, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"phases":  toggles,
	})
}
