package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pkm-review-api/config"
	"pkm-review-api/services"
)

// SubmitAdministrative records a first administrative assessment.
func SubmitAdministrative(c *gin.Context) {
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	var req services.AdministrasiInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reviewerID, _, ok := currentUser(c)
	if !ok {
		return
	}

	penilaian, err := services.NewPenilaianService(config.DB).SubmitAdministrasi(assignmentID, req, reviewerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"penilaian": penilaian,
	})
}

// UpdateAdministrative replaces a previously submitted administrative
// assessment.
func UpdateAdministrative(c *gin.Context) {
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	var req services.AdministrasiInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reviewerID, _, ok := currentUser(c)
	if !ok {
		return
	}

	penilaian, err := services.NewPenilaianService(config.DB).UpdateAdministrasi(assignmentID, req, reviewerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"penilaian": penilaian,
	})
}

// SubmitSubstantive records a first substantive assessment.
func SubmitSubstantive(c *gin.Context) {
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	var req services.SubstansiInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reviewerID, _, ok := currentUser(c)
	if !ok {
		return
	}

	penilaian, err := services.NewPenilaianService(config.DB).SubmitSubstansi(assignmentID, req, reviewerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"penilaian": penilaian,
	})
}

// UpdateSubstantive replaces a previously submitted substantive
// assessment.
func UpdateSubstantive(c *gin.Context) {
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	var req services.SubstansiInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reviewerID, _, ok := currentUser(c)
	if !ok {
		return
	}

	penilaian, err := services.NewPenilaianService(config.DB).UpdateSubstansi(assignmentID, req, reviewerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"penilaian": penilaian,
	})
}

// GetAdministrative returns the administrative assessment of an
// assignment, or submitted=false when none exists.
func GetAdministrative(c *gin.Context) {
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	callerID, roleID, ok := currentUser(c)
	if !ok {
		return
	}

	penilaian, err := services.NewPenilaianService(config.DB).GetAdministrasi(assignmentID, callerID, roleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if penilaian == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"submitted": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"submitted": true,
		"penilaian": penilaian,
	})
}

// GetSubstantive mirrors GetAdministrative for substantive assessments.
func GetSubstantive(c *gin.Context) {
	assignmentID, ok := assignmentParam(c)
	if !ok {
		return
	}

	callerID, roleID, ok := currentUser(c)
	if !ok {
		return
	}

	penilaian, err := services.NewPenilaianService(config.DB).GetSubstansi(assignmentID, callerID, roleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if penilaian == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"submitted": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"submitted": true,
		"penilaian": penilaian,
	})
}

// GetErrorUnion returns the deduplicated administrative error list of a
// proposal across all of its reviewers.
func GetErrorUnion(c *gin.Context) {
	proposalID, ok := proposalParam(c)
	if !ok {
		return
	}

	callerID, roleID, ok := currentUser(c)
	if !ok {
		return
	}

	union, err := services.NewPenilaianService(config.DB).ErrorUnion(proposalID, callerID, roleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   union.Total,
		"errors":  union.Items,
	})
}

// GetReviewSummary returns the per-reviewer breakdown of a proposal under
// the blind-review visibility rules.
func GetReviewSummary(c *gin.Context) {
	proposalID, ok := proposalParam(c)
	if !ok {
		return
	}

	callerID, roleID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := services.NewPenilaianService(config.DB).Summary(proposalID, callerID, roleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}

func assignmentParam(c *gin.Context) (int, bool) {
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return 0, false
	}
	return assignmentID, true
}

func proposalParam(c *gin.Context) (int, bool) {
	proposalID, err := strconv.Atoi(c.Param("id"))
	if err != nil || proposalID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal ID"})
		return 0, false
	}
	return proposalID, true
}
