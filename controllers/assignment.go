package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pkm-review-api/config"
	"pkm-review-api/services"
)

// AssignReviewers assigns the two blind reviewers of a proposal.
func AssignReviewers(c *gin.Context) {
	var req services.AssignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	assignments, err := services.NewAssignmentService(config.DB).Assign(req, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"assignments": assignments,
	})
}

// BulkAssignReviewers applies AssignReviewers per item with per-item
// error isolation.
func BulkAssignReviewers(c *gin.Context) {
	var req struct {
		Items []services.AssignInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	results := services.NewAssignmentService(config.DB).BulkAssign(req.Items, actorID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
		"total":   len(results),
	})
}

// UnassignReviewer removes an assignment that has not been scored yet.
func UnassignReviewer(c *gin.Context) {
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	if err := services.NewAssignmentService(config.DB).Unassign(assignmentID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Assignment removed",
	})
}
