package controllers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pkm-review-api/config"
	"pkm-review-api/models"
	"pkm-review-api/services"
)

// SubmitProposal moves a draft proposal to submitted after the team
// preconditions pass.
func SubmitProposal(c *gin.Context) {
	proposalID, ok := proposalParam(c)
	if !ok {
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	proposal, err := services.NewProposalService(config.DB).Submit(proposalID, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Proposal submitted",
		"proposal": proposal,
	})
}

// OverrideProposalStatus forces any recognized status; admin escape hatch
// for operational correction.
func OverrideProposalStatus(c *gin.Context) {
	proposalID, ok := proposalParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	proposal, err := services.NewProposalService(config.DB).OverrideStatus(proposalID, req.Status, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"proposal": proposal,
	})
}

// GetProposal returns one proposal with its team.
func GetProposal(c *gin.Context) {
	proposalID, ok := proposalParam(c)
	if !ok {
		return
	}

	proposal, err := services.NewProposalService(config.DB).Get(proposalID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"proposal": proposal,
	})
}

// ListProposals returns proposals filtered by an optional ?status= value.
func ListProposals(c *gin.Context) {
	proposals, err := services.NewProposalService(config.DB).ListByStatus(c.Query("status"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"proposals": proposals,
		"total":     len(proposals),
	})
}

// UploadProposalDocument stores one PDF for a proposal. Uploading against
// a needs_revision proposal moves it to revised.
func UploadProposalDocument(c *gin.Context) {
	proposalID, ok := proposalParam(c)
	if !ok {
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	storedName := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	if err := c.SaveUploadedFile(fileHeader, filepath.Join(uploadPath, storedName)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	file := models.ProposalFile{
		OriginalName: fileHeader.Filename,
		StoredName:   storedName,
		FileSize:     fileHeader.Size,
		MimeType:     fileHeader.Header.Get("Content-Type"),
	}

	saved, err := services.NewProposalService(config.DB).RegisterFile(proposalID, file, actorID)
	if err != nil {
		// The metadata row is the authority; remove the orphan binary.
		_ = os.Remove(filepath.Join(uploadPath, storedName))
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"file":    saved,
	})
}

// CreateTeam bootstraps a team with its members and both proposals.
func CreateTeam(c *gin.Context) {
	var req services.CreateTeamInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID, _, ok := currentUser(c)
	if !ok {
		return
	}

	team, err := services.NewProposalService(config.DB).CreateTeam(req, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"team":    team,
	})
}
