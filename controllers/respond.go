package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pkm-review-api/services"
)

// handleServiceError maps engine error kinds onto HTTP statuses. Anything
// untyped is an unexpected datastore failure and reported as a 500.
func handleServiceError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.KindBadRequest:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case services.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser reads the caller identity resolved by the auth middleware.
func currentUser(c *gin.Context) (userID, roleID int, ok bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return 0, 0, false
	}
	roleIDValue, exists := c.Get("roleID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Role context missing"})
		return 0, 0, false
	}
	userID, uok := userIDValue.(int)
	roleID, rok := roleIDValue.(int)
	if !uok || !rok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return 0, 0, false
	}
	return userID, roleID, true
}
