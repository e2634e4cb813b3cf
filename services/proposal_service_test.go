package services

import (
	"database/sql/driver"
	"regexp"
	"testing"

	"pkm-review-api/models"
)

func proposalWithTeamSteps(status string) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `proposals` WHERE proposal_id = \\? AND delete_at IS NULL"),
			columns: []string{"proposal_id", "team_id", "proposal_type", "status"},
			rows:    [][]driver.Value{{int64(7), int64(5), "original", status}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `teams` WHERE `teams`\\.`team_id`"),
			columns: []string{"team_id", "team_name", "skema_id", "leader_id", "advisor_id"},
			rows:    [][]driver.Value{{int64(5), "Tim Robotika", int64(1), int64(31), int64(41)}},
		},
	}
}

func TestOverrideStatusRejectsUnknownStatus(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	_, err := NewProposalService(db).OverrideStatus(7, "approved", 1)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestListByStatusRejectsUnknownStatus(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	_, err := NewProposalService(db).ListByStatus("approved")
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmitForbiddenForNonMember(t *testing.T) {
	steps := append(proposalWithTeamSteps(models.ProposalStatusDraft), &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `team_members` WHERE team_id = \\? AND user_id = \\? AND delete_at IS NULL"),
		columns: []string{"count"},
		rows:    [][]driver.Value{{int64(0)}},
	})
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewProposalService(db).Submit(7, 99)
	if KindOf(err) != KindForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmitRequiresDraftStatus(t *testing.T) {
	// Caller 31 is the team leader, so no member-count query runs.
	steps := proposalWithTeamSteps(models.ProposalStatusSubmitted)
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewProposalService(db).Submit(7, 31)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmitBlockedWhenUploadPhaseClosed(t *testing.T) {
	steps := append(proposalWithTeamSteps(models.ProposalStatusDraft), &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT \\* FROM `phase_settings` WHERE `key` = \\?"),
		columns: []string{"key", "value"},
		rows:    [][]driver.Value{{"upload_proposal_enabled", "false"}},
	})
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewProposalService(db).Submit(7, 31)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRegisterFileRejectsNonPDF(t *testing.T) {
	steps := append(proposalWithTeamSteps(models.ProposalStatusDraft), &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT \\* FROM `phase_settings` WHERE `key` = \\?"),
		columns: []string{"key", "value"},
		rows:    [][]driver.Value{{"upload_proposal_enabled", "true"}},
	})
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	file := models.ProposalFile{OriginalName: "proposal.docx", MimeType: "application/msword"}
	_, err := NewProposalService(db).RegisterFile(7, file, 31)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRegisterFileOnRevisionMarksProposalRevised(t *testing.T) {
	steps := append(proposalWithTeamSteps(models.ProposalStatusNeedsRevision),
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `phase_settings` WHERE `key` = \\?"),
			columns: []string{"key", "value"},
			rows:    [][]driver.Value{{"upload_revision_enabled", "true"}},
		},
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `proposal_files`"),
			result:  scriptedResult{lastInsertID: 12, rowsAffected: 1},
		},
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `proposals` SET"),
			result:  scriptedResult{rowsAffected: 1},
		},
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `proposal_status_history`"),
			result:  scriptedResult{rowsAffected: 1},
		},
	)
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	file := models.ProposalFile{OriginalName: "revisi.pdf", StoredName: "ab12.pdf", MimeType: "application/pdf"}
	saved, err := NewProposalService(db).RegisterFile(7, file, 31)
	if err != nil {
		t.Fatalf("RegisterFile returned error: %v", err)
	}
	if saved.FileID != 12 {
		t.Fatalf("expected file_id 12, got %d", saved.FileID)
	}
	if saved.ProposalID != 7 || saved.UploadedBy != 31 {
		t.Fatalf("file metadata not filled in: %+v", saved)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRegisterFileRejectedForReviewedProposal(t *testing.T) {
	steps := proposalWithTeamSteps(models.ProposalStatusReviewed)
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	file := models.ProposalFile{OriginalName: "proposal.pdf", MimeType: "application/pdf"}
	_, err := NewProposalService(db).RegisterFile(7, file, 31)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
