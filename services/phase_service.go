package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"pkm-review-api/models"
)

// PhaseToggles is the combined state of the three phase flags. At most
// one of them is true at any time.
type PhaseToggles struct {
	UploadProposalEnabled bool `json:"upload_proposal_enabled"`
	ReviewEnabled         bool `json:"review_enabled"`
	UploadRevisionEnabled bool `json:"upload_revision_enabled"`
}

// PhaseService owns the phase toggles and the proposal-status cascades
// they trigger.
type PhaseService struct {
	db *gorm.DB
}

func NewPhaseService(db *gorm.DB) *PhaseService {
	return &PhaseService{db: db}
}

// GetToggles returns the current state of all three toggles. Missing rows
// read as off.
func (s *PhaseService) GetToggles() (PhaseToggles, error) {
	return readToggles(s.db)
}

// SetToggle flips one phase flag and cascades proposal statuses inside
// the same transaction:
//   - enabling any toggle forces the other two off (mutual exclusion)
//   - enabling review moves submitted/revised proposals to under_review
//   - disabling review finalizes every under_review proposal to reviewed
//     (both reviewer slots filled and both assessments complete on each)
//     or not_reviewed
//   - enabling upload_revision moves reviewed proposals to needs_revision
func (s *PhaseService) SetToggle(key string, enabled bool, actorID int) (PhaseToggles, error) {
	if !models.IsPhaseKey(key) {
		return PhaseToggles{}, BadRequest(fmt.Sprintf("Unknown phase key '%s'", key))
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return PhaseToggles{}, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Snapshot inside the transaction; a concurrent flip between the read
	// and the writes could otherwise skip or double-run finalization.
	reviewWasOn, err := phaseEnabled(tx, models.PhaseReview)
	if err != nil {
		tx.Rollback()
		return PhaseToggles{}, err
	}

	if enabled {
		for _, k := range models.PhaseKeys {
			if err := writeToggle(tx, k, k == key); err != nil {
				tx.Rollback()
				return PhaseToggles{}, err
			}
		}
	} else {
		if err := writeToggle(tx, key, false); err != nil {
			tx.Rollback()
			return PhaseToggles{}, err
		}
	}

	// The review phase closes either by an explicit disable or by another
	// toggle forcing it off through mutual exclusion; both finalize.
	reviewTurnsOff := reviewWasOn &&
		(key != models.PhaseReview && enabled || key == models.PhaseReview && !enabled)

	now := time.Now()
	switch {
	case key == models.PhaseReview && enabled:
		// Re-submitted revisions re-enter review here.
		if err := cascadeStatus(tx, actorID, now, "review_phase_opened",
			[]string{models.ProposalStatusSubmitted, models.ProposalStatusRevised},
			models.ProposalStatusUnderReview); err != nil {
			tx.Rollback()
			return PhaseToggles{}, err
		}
	case reviewTurnsOff:
		if err := finalizeReviewPhase(tx, actorID, now); err != nil {
			tx.Rollback()
			return PhaseToggles{}, err
		}
	}

	if key == models.PhaseUploadRevision && enabled {
		if err := cascadeStatus(tx, actorID, now, "revision_phase_opened",
			[]string{models.ProposalStatusReviewed},
			models.ProposalStatusNeedsRevision); err != nil {
			tx.Rollback()
			return PhaseToggles{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return PhaseToggles{}, err
	}

	return readToggles(s.db)
}

// finalizationRow is the per-proposal snapshot the review-close branch
// inspects: how many reviewer slots are filled and how many of those have
// both assessments complete.
type finalizationRow struct {
	ProposalID      int
	AssignmentCount int
	CompleteCount   int
}

// finalStatusFor applies the strict completion rule: both slots assigned
// and both assessments complete on each.
func finalStatusFor(assignmentCount, completeCount int) string {
	if assignmentCount == 2 && completeCount == 2 {
		return models.ProposalStatusReviewed
	}
	return models.ProposalStatusNotReviewed
}

func finalizeReviewPhase(tx *gorm.DB, actorID int, now time.Time) error {
	var rows []finalizationRow
	if err := tx.Raw(`
		SELECT p.proposal_id AS proposal_id,
		       COUNT(DISTINCT ra.assignment_id) AS assignment_count,
		       COUNT(DISTINCT CASE WHEN pa.is_complete = 1 AND ps.is_complete = 1 THEN ra.assignment_id END) AS complete_count
		FROM proposals p
		LEFT JOIN reviewer_assignments ra ON ra.proposal_id = p.proposal_id
		LEFT JOIN penilaian_administrasi pa ON pa.assignment_id = ra.assignment_id
		LEFT JOIN penilaian_substansi ps ON ps.assignment_id = ra.assignment_id
		WHERE p.status = ? AND p.delete_at IS NULL
		GROUP BY p.proposal_id
	`, models.ProposalStatusUnderReview).Scan(&rows).Error; err != nil {
		return err
	}

	if len(rows) == 0 {
		return nil
	}

	var reviewedIDs, notReviewedIDs []int
	histories := make([]models.ProposalStatusHistory, 0, len(rows))
	oldStatus := models.ProposalStatusUnderReview
	note := "review_phase_closed"
	for _, row := range rows {
		status := finalStatusFor(row.AssignmentCount, row.CompleteCount)
		if status == models.ProposalStatusReviewed {
			reviewedIDs = append(reviewedIDs, row.ProposalID)
		} else {
			notReviewedIDs = append(notReviewedIDs, row.ProposalID)
		}
		histories = append(histories, models.ProposalStatusHistory{
			ProposalID: row.ProposalID,
			OldStatus:  &oldStatus,
			NewStatus:  status,
			ChangedBy:  actorID,
			Notes:      &note,
			CreatedAt:  now,
		})
	}

	for _, group := range []struct {
		status string
		ids    []int
	}{
		{models.ProposalStatusReviewed, reviewedIDs},
		{models.ProposalStatusNotReviewed, notReviewedIDs},
	} {
		if len(group.ids) == 0 {
			continue
		}
		if err := tx.Model(&models.Proposal{}).
			Where("proposal_id IN ?", group.ids).
			Updates(map[string]interface{}{
				"status":    group.status,
				"update_at": now,
			}).Error; err != nil {
			return err
		}
	}

	return tx.Create(&histories).Error
}

// cascadeStatus moves every proposal in one of the from statuses to
// newStatus and writes one history row per proposal, all in tx.
func cascadeStatus(tx *gorm.DB, actorID int, now time.Time, note string, from []string, newStatus string) error {
	var affected []models.Proposal
	if err := tx.Select("proposal_id", "status").
		Where("status IN ? AND delete_at IS NULL", from).
		Find(&affected).Error; err != nil {
		return err
	}
	if len(affected) == 0 {
		return nil
	}

	ids := make([]int, 0, len(affected))
	histories := make([]models.ProposalStatusHistory, 0, len(affected))
	for _, p := range affected {
		ids = append(ids, p.ProposalID)
		oldStatus := p.Status
		histories = append(histories, models.ProposalStatusHistory{
			ProposalID: p.ProposalID,
			OldStatus:  &oldStatus,
			NewStatus:  newStatus,
			ChangedBy:  actorID,
			Notes:      &note,
			CreatedAt:  now,
		})
	}

	if err := tx.Model(&models.Proposal{}).
		Where("proposal_id IN ?", ids).
		Updates(map[string]interface{}{
			"status":    newStatus,
			"update_at": now,
		}).Error; err != nil {
		return err
	}
	return tx.Create(&histories).Error
}

// writeToggle upserts one flag row. MySQL reports changed rows, not
// matched rows, so a plain UPDATE cannot tell "row absent" from "value
// already equal"; the upsert needs neither distinction.
func writeToggle(tx *gorm.DB, key string, enabled bool) error {
	value := strconv.FormatBool(enabled)
	return tx.Exec(
		"INSERT INTO phase_settings (`key`, `value`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `value` = VALUES(`value`)",
		key, value,
	).Error
}

func readToggles(db *gorm.DB) (PhaseToggles, error) {
	var rows []models.PhaseSetting
	if err := db.Where("`key` IN ?", models.PhaseKeys).Find(&rows).Error; err != nil {
		return PhaseToggles{}, err
	}

	var toggles PhaseToggles
	for _, row := range rows {
		on, _ := strconv.ParseBool(row.Value)
		switch row.Key {
		case models.PhaseUploadProposal:
			toggles.UploadProposalEnabled = on
		case models.PhaseReview:
			toggles.ReviewEnabled = on
		case models.PhaseUploadRevision:
			toggles.UploadRevisionEnabled = on
		}
	}
	return toggles, nil
}

// phaseEnabled reads one toggle; a missing row reads as off.
func phaseEnabled(db *gorm.DB, key string) (bool, error) {
	var row models.PhaseSetting
	if err := db.Where("`key` = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	on, _ := strconv.ParseBool(row.Value)
	return on, nil
}
