package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pkm-review-api/models"
)

// ProposalService covers the manual status transitions that live outside
// the phase cascade, plus team bootstrap.
type ProposalService struct {
	db *gorm.DB
}

func NewProposalService(db *gorm.DB) *ProposalService {
	return &ProposalService{db: db}
}

// Submit moves a draft proposal to submitted. Preconditions: the caller
// belongs to the owning team, the upload phase is on, the team has at
// least three members and an advisor, and at least one file is uploaded.
func (s *ProposalService) Submit(proposalID, actorID int) (*models.Proposal, error) {
	proposal, err := s.loadWithTeam(proposalID)
	if err != nil {
		return nil, err
	}

	member, err := s.memberOfTeam(proposal.Team, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, Forbidden("Only team members can submit the proposal")
	}

	if proposal.Status != models.ProposalStatusDraft {
		return nil, BadRequest("Only draft proposals can be submitted")
	}

	uploadOn, err := phaseEnabled(s.db, models.PhaseUploadProposal)
	if err != nil {
		return nil, err
	}
	if !uploadOn {
		return nil, BadRequest("Proposal upload phase is closed")
	}

	var memberCount int64
	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND delete_at IS NULL", proposal.TeamID).
		Count(&memberCount).Error; err != nil {
		return nil, err
	}
	if memberCount < 3 {
		return nil, BadRequest("Team must have at least 3 members")
	}

	if proposal.Team.AdvisorID == nil {
		return nil, BadRequest("Team has no supervising advisor")
	}

	var fileCount int64
	if err := s.db.Model(&models.ProposalFile{}).
		Where("proposal_id = ? AND delete_at IS NULL", proposalID).
		Count(&fileCount).Error; err != nil {
		return nil, err
	}
	if fileCount == 0 {
		return nil, BadRequest("Proposal has no uploaded file")
	}

	now := time.Now()
	if err := s.transition(proposal, models.ProposalStatusSubmitted, actorID, "student_submit", func(updates map[string]interface{}) {
		updates["submitted_at"] = now
	}); err != nil {
		return nil, err
	}

	proposal.Status = models.ProposalStatusSubmitted
	proposal.SubmittedAt = &now
	return proposal, nil
}

// RegisterFile stores an uploaded document's metadata. An upload against
// a needs_revision proposal moves it to revised as a side effect, in the
// same transaction as the file row.
func (s *ProposalService) RegisterFile(proposalID int, file models.ProposalFile, actorID int) (*models.ProposalFile, error) {
	proposal, err := s.loadWithTeam(proposalID)
	if err != nil {
		return nil, err
	}

	member, err := s.memberOfTeam(proposal.Team, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, Forbidden("Only team members can upload documents")
	}

	var phaseKey string
	switch proposal.Status {
	case models.ProposalStatusDraft:
		phaseKey = models.PhaseUploadProposal
	case models.ProposalStatusNeedsRevision:
		phaseKey = models.PhaseUploadRevision
	default:
		return nil, BadRequest("Proposal does not accept uploads in its current status")
	}

	phaseOn, err := phaseEnabled(s.db, phaseKey)
	if err != nil {
		return nil, err
	}
	if !phaseOn {
		return nil, BadRequest("Upload phase is closed")
	}

	if !file.IsValidDocumentType() {
		return nil, BadRequest("Only PDF documents are accepted")
	}

	file.ProposalID = proposalID
	file.UploadedBy = actorID
	file.UploadedAt = time.Now()

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&file).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if proposal.Status == models.ProposalStatusNeedsRevision {
		if err := statusUpdate(tx, proposal, models.ProposalStatusRevised, actorID, "revision_upload"); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &file, nil
}

// OverrideStatus is the admin escape hatch: force any recognized status
// with no precondition beyond the status value itself.
func (s *ProposalService) OverrideStatus(proposalID int, status string, actorID int) (*models.Proposal, error) {
	if !models.IsProposalStatus(status) {
		return nil, BadRequest(fmt.Sprintf("Unknown proposal status '%s'", status))
	}

	proposal, err := s.loadWithTeam(proposalID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(proposal, status, actorID, "admin_override", nil); err != nil {
		return nil, err
	}

	proposal.Status = status
	return proposal, nil
}

// Get returns one proposal with its team.
func (s *ProposalService) Get(proposalID int) (*models.Proposal, error) {
	return s.loadWithTeam(proposalID)
}

// ListByStatus returns proposals filtered by an optional status value.
func (s *ProposalService) ListByStatus(status string) ([]models.Proposal, error) {
	if status != "" && !models.IsProposalStatus(status) {
		return nil, BadRequest(fmt.Sprintf("Unknown proposal status '%s'", status))
	}

	query := s.db.Preload("Team").Where("delete_at IS NULL")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var proposals []models.Proposal
	if err := query.Order("proposal_id ASC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// CreateTeamInput bootstraps a team together with its member list.
type CreateTeamInput struct {
	TeamName  string `json:"team_name" binding:"required"`
	SkemaID   int    `json:"skema_id" binding:"required"`
	LeaderID  int    `json:"leader_id" binding:"required"`
	MemberIDs []int  `json:"member_ids"`
}

// CreateTeam creates the team, its member rows and both proposals
// (original and revised) atomically, so every team always owns exactly
// one proposal of each type.
func (s *ProposalService) CreateTeam(in CreateTeamInput, actorID int) (*models.Team, error) {
	var skema models.Skema
	if err := s.db.Where("skema_id = ? AND delete_at IS NULL", in.SkemaID).
		First(&skema).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Skema not found")
		}
		return nil, err
	}

	now := time.Now()
	team := models.Team{
		TeamName: in.TeamName,
		SkemaID:  in.SkemaID,
		LeaderID: in.LeaderID,
		CreateAt: &now,
		UpdateAt: &now,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	members := []models.TeamMember{{TeamID: team.TeamID, UserID: in.LeaderID, MemberRole: "leader", CreateAt: &now}}
	for _, userID := range in.MemberIDs {
		if userID == in.LeaderID {
			continue
		}
		members = append(members, models.TeamMember{TeamID: team.TeamID, UserID: userID, MemberRole: "member", CreateAt: &now})
	}
	if err := tx.Create(&members).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	proposals := []models.Proposal{
		{TeamID: team.TeamID, ProposalType: models.ProposalTypeOriginal, Status: models.ProposalStatusDraft, CreatedBy: actorID, CreateAt: &now, UpdateAt: &now},
		{TeamID: team.TeamID, ProposalType: models.ProposalTypeRevised, Status: models.ProposalStatusDraft, CreatedBy: actorID, CreateAt: &now, UpdateAt: &now},
	}
	if err := tx.Create(&proposals).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	team.Members = members
	return &team, nil
}

func (s *ProposalService) loadWithTeam(proposalID int) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.Preload("Team").
		Where("proposal_id = ? AND delete_at IS NULL", proposalID).
		First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Proposal not found")
		}
		return nil, err
	}
	return &proposal, nil
}

func (s *ProposalService) memberOfTeam(team *models.Team, userID int) (bool, error) {
	if team == nil {
		return false, nil
	}
	if team.LeaderID == userID {
		return true, nil
	}
	var count int64
	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND delete_at IS NULL", team.TeamID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// transition updates the status and writes the history row in one
// transaction.
func (s *ProposalService) transition(proposal *models.Proposal, newStatus string, actorID int, note string, extra func(map[string]interface{})) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := statusUpdateWith(tx, proposal, newStatus, actorID, note, extra); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func statusUpdate(tx *gorm.DB, proposal *models.Proposal, newStatus string, actorID int, note string) error {
	return statusUpdateWith(tx, proposal, newStatus, actorID, note, nil)
}

func statusUpdateWith(tx *gorm.DB, proposal *models.Proposal, newStatus string, actorID int, note string, extra func(map[string]interface{})) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":    newStatus,
		"update_at": now,
	}
	if extra != nil {
		extra(updates)
	}
	if err := tx.Model(&models.Proposal{}).
		Where("proposal_id = ?", proposal.ProposalID).
		Updates(updates).Error; err != nil {
		return err
	}

	oldStatus := proposal.Status
	history := models.ProposalStatusHistory{
		ProposalID: proposal.ProposalID,
		OldStatus:  &oldStatus,
		NewStatus:  newStatus,
		ChangedBy:  actorID,
		Notes:      &note,
		CreatedAt:  now,
	}
	return tx.Create(&history).Error
}
