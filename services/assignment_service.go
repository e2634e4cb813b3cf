package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"pkm-review-api/config"
	"pkm-review-api/models"
)

// AssignmentService enforces the two-distinct-reviewers-per-proposal
// invariant.
type AssignmentService struct {
	db *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

// AssignInput pairs a proposal with its two blind reviewers.
type AssignInput struct {
	ProposalID  int `json:"proposal_id" binding:"required"`
	Reviewer1ID int `json:"reviewer1_id" binding:"required"`
	Reviewer2ID int `json:"reviewer2_id" binding:"required"`
}

// BulkAssignResult reports the outcome of one item of a bulk assignment.
type BulkAssignResult struct {
	ProposalID  int                         `json:"proposal_id"`
	Success     bool                        `json:"success"`
	Error       string                      `json:"error,omitempty"`
	Assignments []models.ReviewerAssignment `json:"assignments,omitempty"`
}

// Assign creates both reviewer slots of a proposal in one transaction.
// A partial pair is never observable.
func (s *AssignmentService) Assign(in AssignInput, actorID int) ([]models.ReviewerAssignment, error) {
	if in.Reviewer1ID == in.Reviewer2ID {
		return nil, BadRequest("The two reviewers must be distinct")
	}

	var proposal models.Proposal
	if err := s.db.Where("proposal_id = ? AND delete_at IS NULL", in.ProposalID).
		First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Proposal not found")
		}
		return nil, err
	}

	var reviewers []models.User
	if err := s.db.Where("user_id IN ? AND role_id = ? AND delete_at IS NULL",
		[]int{in.Reviewer1ID, in.Reviewer2ID}, models.RoleReviewer).
		Find(&reviewers).Error; err != nil {
		return nil, err
	}
	if len(reviewers) != 2 {
		return nil, NotFound("Reviewer not found")
	}

	var existing int64
	if err := s.db.Model(&models.ReviewerAssignment{}).
		Where("proposal_id = ?", in.ProposalID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, Conflict("Proposal already has reviewer assignments")
	}

	now := time.Now()
	assignments := []models.ReviewerAssignment{
		{ProposalID: in.ProposalID, ReviewerID: in.Reviewer1ID, ReviewerNumber: 1, AssignedBy: actorID, AssignedAt: now},
		{ProposalID: in.ProposalID, ReviewerID: in.Reviewer2ID, ReviewerNumber: 2, AssignedBy: actorID, AssignedAt: now},
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&assignments).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	go notifyAssignedReviewers(reviewers, proposal.ProposalID)

	return assignments, nil
}

// BulkAssign applies Assign per item; one item's failure never rolls back
// its siblings.
func (s *AssignmentService) BulkAssign(items []AssignInput, actorID int) []BulkAssignResult {
	results := make([]BulkAssignResult, 0, len(items))
	for _, item := range items {
		assignments, err := s.Assign(item, actorID)
		result := BulkAssignResult{ProposalID: item.ProposalID}
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Success = true
			result.Assignments = assignments
		}
		results = append(results, result)
	}
	return results
}

// Unassign removes one assignment. Removal is blocked once scoring exists
// for it or while the review phase is open.
func (s *AssignmentService) Unassign(assignmentID int) error {
	var assignment models.ReviewerAssignment
	if err := s.db.Where("assignment_id = ?", assignmentID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Assignment not found")
		}
		return err
	}

	reviewOn, err := phaseEnabled(s.db, models.PhaseReview)
	if err != nil {
		return err
	}
	if reviewOn {
		return BadRequest("Cannot unassign while the review phase is open")
	}

	var scored int64
	if err := s.db.Model(&models.PenilaianAdministrasi{}).
		Where("assignment_id = ?", assignmentID).
		Count(&scored).Error; err != nil {
		return err
	}
	if scored == 0 {
		if err := s.db.Model(&models.PenilaianSubstansi{}).
			Where("assignment_id = ?", assignmentID).
			Count(&scored).Error; err != nil {
			return err
		}
	}
	if scored > 0 {
		return BadRequest("Cannot unassign an assignment that has been scored")
	}

	return s.db.Delete(&models.ReviewerAssignment{}, "assignment_id = ?", assignmentID).Error
}

func notifyAssignedReviewers(reviewers []models.User, proposalID int) {
	for _, reviewer := range reviewers {
		subject := "Penugasan Reviewer Proposal PKM"
		body := fmt.Sprintf("<p>Anda ditugaskan sebagai reviewer untuk proposal #%d.</p>", proposalID)
		if err := config.SendMail([]string{reviewer.Email}, subject, body); err != nil {
			log.Printf("Warning: assignment mail to %s failed: %v", reviewer.Email, err)
		}
	}
}
