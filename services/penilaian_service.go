package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pkm-review-api/models"
)

// PenilaianService handles the blind submission and reading of both
// assessment types. Writes are gated on assignment ownership and the
// review phase; reads follow the blind-review isolation rules.
type PenilaianService struct {
	db *gorm.DB
}

func NewPenilaianService(db *gorm.DB) *PenilaianService {
	return &PenilaianService{db: db}
}

// AdministrasiInput is one reviewer's administrative checklist. Criteria
// omitted from the checklist are treated as "no error".
type AdministrasiInput struct {
	Checklist []ChecklistEntry `json:"checklist"`
	Catatan   string           `json:"catatan"`
}

// SubstansiInput is one reviewer's substantive scores. Every criterion of
// the proposal's skema must be scored.
type SubstansiInput struct {
	Scores  []ScoreEntry `json:"scores"`
	Catatan string       `json:"catatan"`
}

// SubmitAdministrasi records a first administrative assessment for an
// assignment owned by reviewerID.
func (s *PenilaianService) SubmitAdministrasi(assignmentID int, in AdministrasiInput, reviewerID int) (*models.PenilaianAdministrasi, error) {
	if _, err := s.ownedOpenAssignment(assignmentID, reviewerID); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.PenilaianAdministrasi{}).
		Where("assignment_id = ?", assignmentID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, BadRequest("Administrative assessment already submitted; use the update endpoint")
	}

	details, total, err := s.buildAdministrasiDetails(in.Checklist)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	header := models.PenilaianAdministrasi{
		AssignmentID:   assignmentID,
		TotalKesalahan: total,
		Catatan:        optionalNote(in.Catatan),
		IsComplete:     true,
		CreateAt:       &now,
		UpdateAt:       &now,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&header).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range details {
		details[i].PenilaianID = header.PenilaianID
	}
	if err := tx.Create(&details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	header.Details = details
	return &header, nil
}

// UpdateAdministrasi replaces a previously submitted administrative
// assessment wholesale: header updated, detail rows deleted and
// reinserted in one transaction.
func (s *PenilaianService) UpdateAdministrasi(assignmentID int, in AdministrasiInput, reviewerID int) (*models.PenilaianAdministrasi, error) {
	if _, err := s.ownedOpenAssignment(assignmentID, reviewerID); err != nil {
		return nil, err
	}

	var header models.PenilaianAdministrasi
	if err := s.db.Where("assignment_id = ?", assignmentID).
		First(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No administrative assessment submitted yet")
		}
		return nil, err
	}

	details, total, err := s.buildAdministrasiDetails(in.Checklist)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Model(&models.PenilaianAdministrasi{}).
		Where("penilaian_id = ?", header.PenilaianID).
		Updates(map[string]interface{}{
			"total_kesalahan": total,
			"catatan":         optionalNote(in.Catatan),
			"is_complete":     true,
			"update_at":       now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&models.DetailPenilaianAdministrasi{}, "penilaian_id = ?", header.PenilaianID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range details {
		details[i].PenilaianID = header.PenilaianID
	}
	if err := tx.Create(&details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	header.TotalKesalahan = total
	header.Catatan = optionalNote(in.Catatan)
	header.IsComplete = true
	header.UpdateAt = &now
	header.Details = details
	return &header, nil
}

// SubmitSubstansi records a first substantive assessment. The scores are
// validated against the skema of the proposal's team and the weighted
// total is computed exactly.
func (s *PenilaianService) SubmitSubstansi(assignmentID int, in SubstansiInput, reviewerID int) (*models.PenilaianSubstansi, error) {
	assignment, err := s.ownedOpenAssignment(assignmentID, reviewerID)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.PenilaianSubstansi{}).
		Where("assignment_id = ?", assignmentID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, BadRequest("Substantive assessment already submitted; use the update endpoint")
	}

	details, total, err := s.buildSubstansiDetails(assignment.ProposalID, in.Scores)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	header := models.PenilaianSubstansi{
		AssignmentID: assignmentID,
		TotalNilai:   total,
		Catatan:      optionalNote(in.Catatan),
		IsComplete:   true,
		CreateAt:     &now,
		UpdateAt:     &now,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&header).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range details {
		details[i].PenilaianID = header.PenilaianID
	}
	if err := tx.Create(&details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	header.Details = details
	return &header, nil
}

// UpdateSubstansi replaces a previously submitted substantive assessment
// wholesale, like UpdateAdministrasi.
func (s *PenilaianService) UpdateSubstansi(assignmentID int, in SubstansiInput, reviewerID int) (*models.PenilaianSubstansi, error) {
	assignment, err := s.ownedOpenAssignment(assignmentID, reviewerID)
	if err != nil {
		return nil, err
	}

	var header models.PenilaianSubstansi
	if err := s.db.Where("assignment_id = ?", assignmentID).
		First(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No substantive assessment submitted yet")
		}
		return nil, err
	}

	details, total, err := s.buildSubstansiDetails(assignment.ProposalID, in.Scores)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Model(&models.PenilaianSubstansi{}).
		Where("penilaian_id = ?", header.PenilaianID).
		Updates(map[string]interface{}{
			"total_nilai": total,
			"catatan":     optionalNote(in.Catatan),
			"is_complete": true,
			"update_at":   now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&models.DetailPenilaianSubstansi{}, "penilaian_id = ?", header.PenilaianID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range details {
		details[i].PenilaianID = header.PenilaianID
	}
	if err := tx.Create(&details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	header.TotalNilai = total
	header.Catatan = optionalNote(in.Catatan)
	header.IsComplete = true
	header.UpdateAt = &now
	header.Details = details
	return &header, nil
}

// GetAdministrasi returns the administrative assessment of an assignment,
// or (nil, nil) when nothing has been submitted. Blind-review isolation:
// admins read any assignment, reviewers only their own.
func (s *PenilaianService) GetAdministrasi(assignmentID, callerID, roleID int) (*models.PenilaianAdministrasi, error) {
	if err := s.authorizeAssignmentRead(assignmentID, callerID, roleID); err != nil {
		return nil, err
	}

	var header models.PenilaianAdministrasi
	err := s.db.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("kriteria_id ASC")
	}).Where("assignment_id = ?", assignmentID).First(&header).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// GetSubstansi mirrors GetAdministrasi for the substantive assessment.
func (s *PenilaianService) GetSubstansi(assignmentID, callerID, roleID int) (*models.PenilaianSubstansi, error) {
	if err := s.authorizeAssignmentRead(assignmentID, callerID, roleID); err != nil {
		return nil, err
	}

	var header models.PenilaianSubstansi
	err := s.db.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("kriteria_id ASC")
	}).Where("assignment_id = ?", assignmentID).First(&header).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// ErrorUnion aggregates the administrative errors flagged by any reviewer
// of the proposal. Visible to admins and to members of the owning team;
// reviewers are excluded so one reviewer never sees the other's flags.
func (s *PenilaianService) ErrorUnion(proposalID, callerID, roleID int) (ErrorUnion, error) {
	proposal, err := s.loadProposal(proposalID)
	if err != nil {
		return ErrorUnion{}, err
	}
	if roleID != models.RoleAdmin {
		member, err := s.isTeamMember(proposal.TeamID, callerID)
		if err != nil {
			return ErrorUnion{}, err
		}
		if !member {
			return ErrorUnion{}, Forbidden("Not allowed to read this proposal's results")
		}
	}
	return s.errorUnionFor(proposalID)
}

// ReviewerSummary is one reviewer slot of a proposal's review summary.
// ReviewerID is only populated for admin callers; everyone else sees the
// slot number alone.
type ReviewerSummary struct {
	ReviewerNumber       int              `json:"reviewer_number"`
	ReviewerID           *int             `json:"reviewer_id,omitempty"`
	AdministrasiComplete bool             `json:"administrasi_complete"`
	TotalKesalahan       *int             `json:"total_kesalahan,omitempty"`
	SubstansiComplete    bool             `json:"substansi_complete"`
	TotalNilai           *decimal.Decimal `json:"total_nilai,omitempty"`
}

// ReviewSummary is the per-proposal aggregation returned to admins,
// reviewers (own slot only) and team members (de-identified).
type ReviewSummary struct {
	ProposalID int               `json:"proposal_id"`
	Status     string            `json:"status"`
	Reviewers  []ReviewerSummary `json:"reviewers"`
	ErrorUnion *ErrorUnion       `json:"error_union,omitempty"`
}

// Summary builds the review summary for a proposal under the blind-review
// visibility rules.
func (s *PenilaianService) Summary(proposalID, callerID, roleID int) (*ReviewSummary, error) {
	proposal, err := s.loadProposal(proposalID)
	if err != nil {
		return nil, err
	}

	var assignments []models.ReviewerAssignment
	if err := s.db.Where("proposal_id = ?", proposalID).
		Order("reviewer_number ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	isAdmin := roleID == models.RoleAdmin
	ownAssignment := 0
	if !isAdmin {
		for _, a := range assignments {
			if a.ReviewerID == callerID {
				ownAssignment = a.AssignmentID
			}
		}
		if ownAssignment == 0 {
			member, err := s.isTeamMember(proposal.TeamID, callerID)
			if err != nil {
				return nil, err
			}
			if !member {
				return nil, Forbidden("Not allowed to read this proposal's results")
			}
		}
	}

	summary := &ReviewSummary{
		ProposalID: proposalID,
		Status:     proposal.Status,
	}

	for _, a := range assignments {
		if ownAssignment != 0 && a.AssignmentID != ownAssignment {
			continue
		}

		entry := ReviewerSummary{ReviewerNumber: a.ReviewerNumber}
		if isAdmin {
			reviewerID := a.ReviewerID
			entry.ReviewerID = &reviewerID
		}

		var adm models.PenilaianAdministrasi
		err := s.db.Where("assignment_id = ?", a.AssignmentID).First(&adm).Error
		if err == nil {
			entry.AdministrasiComplete = adm.IsComplete
			total := adm.TotalKesalahan
			entry.TotalKesalahan = &total
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		var sub models.PenilaianSubstansi
		err = s.db.Where("assignment_id = ?", a.AssignmentID).First(&sub).Error
		if err == nil {
			entry.SubstansiComplete = sub.IsComplete
			total := sub.TotalNilai
			entry.TotalNilai = &total
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		summary.Reviewers = append(summary.Reviewers, entry)
	}

	// Reviewers never see the union: it would leak the other reviewer's
	// in-progress flags.
	if ownAssignment == 0 {
		union, err := s.errorUnionFor(proposalID)
		if err != nil {
			return nil, err
		}
		summary.ErrorUnion = &union
	}

	return summary, nil
}

// ownedOpenAssignment loads an assignment and checks the shared write
// preconditions: the caller owns it and the review phase is on.
func (s *PenilaianService) ownedOpenAssignment(assignmentID, reviewerID int) (*models.ReviewerAssignment, error) {
	var assignment models.ReviewerAssignment
	if err := s.db.Where("assignment_id = ?", assignmentID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Assignment not found")
		}
		return nil, err
	}
	if assignment.ReviewerID != reviewerID {
		return nil, Forbidden("Assignment belongs to another reviewer")
	}

	reviewOn, err := phaseEnabled(s.db, models.PhaseReview)
	if err != nil {
		return nil, err
	}
	if !reviewOn {
		return nil, BadRequest("Review phase is closed")
	}
	return &assignment, nil
}

func (s *PenilaianService) authorizeAssignmentRead(assignmentID, callerID, roleID int) error {
	if roleID == models.RoleAdmin {
		return nil
	}
	var assignment models.ReviewerAssignment
	if err := s.db.Where("assignment_id = ?", assignmentID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Assignment not found")
		}
		return err
	}
	if assignment.ReviewerID != callerID {
		return Forbidden("Assignment belongs to another reviewer")
	}
	return nil
}

// buildAdministrasiDetails expands a checklist to one row per known
// criterion, defaulting omitted criteria to "no error", and counts the
// flagged ones.
func (s *PenilaianService) buildAdministrasiDetails(checklist []ChecklistEntry) ([]models.DetailPenilaianAdministrasi, int, error) {
	var criteria []models.KriteriaAdministrasi
	if err := s.db.Where("delete_at IS NULL").
		Order("urutan ASC").
		Find(&criteria).Error; err != nil {
		return nil, 0, err
	}
	if len(criteria) == 0 {
		return nil, 0, BadRequest("No administrative criteria are defined")
	}

	flags := make(map[int]bool, len(checklist))
	known := make(map[int]bool, len(criteria))
	for _, k := range criteria {
		known[k.KriteriaID] = true
	}
	for _, entry := range checklist {
		if !known[entry.KriteriaID] {
			return nil, 0, BadRequest(fmt.Sprintf("Unknown administrative criterion %d", entry.KriteriaID))
		}
		flags[entry.KriteriaID] = entry.Kesalahan
	}

	details := make([]models.DetailPenilaianAdministrasi, 0, len(criteria))
	total := 0
	for _, k := range criteria {
		kesalahan := flags[k.KriteriaID]
		if kesalahan {
			total++
		}
		details = append(details, models.DetailPenilaianAdministrasi{
			KriteriaID: k.KriteriaID,
			Kesalahan:  kesalahan,
		})
	}
	return details, total, nil
}

// buildSubstansiDetails resolves the skema of the proposal's team, runs
// the weighted-total calculator and materializes the detail rows.
func (s *PenilaianService) buildSubstansiDetails(proposalID int, scores []ScoreEntry) ([]models.DetailPenilaianSubstansi, decimal.Decimal, error) {
	var proposal models.Proposal
	if err := s.db.Preload("Team").
		Where("proposal_id = ? AND delete_at IS NULL", proposalID).
		First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, NotFound("Proposal not found")
		}
		return nil, decimal.Zero, err
	}
	if proposal.Team == nil {
		return nil, decimal.Zero, NotFound("Proposal team not found")
	}

	var criteria []models.KriteriaSubstansi
	if err := s.db.Where("skema_id = ? AND delete_at IS NULL", proposal.Team.SkemaID).
		Order("urutan ASC").
		Find(&criteria).Error; err != nil {
		return nil, decimal.Zero, err
	}
	if len(criteria) == 0 {
		return nil, decimal.Zero, BadRequest("No substantive criteria are defined for this skema")
	}

	total, lines, err := ComputeSubstansiTotal(scores, criteria)
	if err != nil {
		return nil, decimal.Zero, err
	}

	details := make([]models.DetailPenilaianSubstansi, 0, len(scores))
	for _, entry := range scores {
		details = append(details, models.DetailPenilaianSubstansi{
			KriteriaID: entry.KriteriaID,
			Skor:       entry.Skor,
			Nilai:      lines[entry.KriteriaID],
		})
	}
	return details, total, nil
}

func (s *PenilaianService) errorUnionFor(proposalID int) (ErrorUnion, error) {
	var headers []models.PenilaianAdministrasi
	if err := s.db.Preload("Details").
		Joins("JOIN reviewer_assignments ra ON ra.assignment_id = penilaian_administrasi.assignment_id").
		Where("ra.proposal_id = ? AND penilaian_administrasi.is_complete = ?", proposalID, true).
		Find(&headers).Error; err != nil {
		return ErrorUnion{}, err
	}

	checklists := make([][]ChecklistEntry, 0, len(headers))
	for _, header := range headers {
		checklist := make([]ChecklistEntry, 0, len(header.Details))
		for _, d := range header.Details {
			checklist = append(checklist, ChecklistEntry{KriteriaID: d.KriteriaID, Kesalahan: d.Kesalahan})
		}
		checklists = append(checklists, checklist)
	}
	return ComputeErrorUnion(checklists), nil
}

func (s *PenilaianService) loadProposal(proposalID int) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.Where("proposal_id = ? AND delete_at IS NULL", proposalID).
		First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Proposal not found")
		}
		return nil, err
	}
	return &proposal, nil
}

func (s *PenilaianService) isTeamMember(teamID, userID int) (bool, error) {
	var team models.Team
	if err := s.db.Where("team_id = ? AND delete_at IS NULL", teamID).
		First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if team.LeaderID == userID {
		return true, nil
	}

	var count int64
	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND delete_at IS NULL", teamID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func optionalNote(catatan string) *string {
	trimmed := strings.TrimSpace(catatan)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
