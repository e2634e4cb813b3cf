package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pkm-review-api/config"
	"pkm-review-api/services"
)

// GetAdministrativeCriteria lists the shared administrative checklist.
func GetAdministrativeCriteria(c *gin.Context) {
	criteria, err := services.NewCriteriaService(config.DB).ListAdministrasi()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"criteria": criteria,
	})
}

// GetSubstantiveCriteria lists the weighted criteria of one skema.
func GetSubstantiveCriteria(c *gin.Context) {
	skemaID, err := strconv.Atoi(c.Query("skema_id"))
	if err != nil || skemaID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skema_id"})
		return
	}

	criteria, err := services.NewCriteriaService(config.DB).ListSubstansi(skemaID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"criteria": criteria,
	})
}

// CreateSubstantiveCriterion defines a new weighted criterion, guarding
// the per-skema weight-sum invariant.
func CreateSubstantiveCriterion(c *gin.Context) {
	var req services.KriteriaSubstansiInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	criterion, err := services.NewCriteriaService(config.DB).CreateSubstansi(req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"criteria": criterion,
	})
}

// GetSkema lists the grant types.
func GetSkema(c *gin.Context) {
	skema, err := services.NewCriteriaService(config.DB).ListSkema()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"skema":   skema,
	})
}
