package models

import "time"

// Proposal status values. Transitions outside the phase cascade:
// draft -> submitted (explicit submit), needs_revision -> revised
// (side effect of a successful revision upload), plus the admin override.
const (
	ProposalStatusDraft         = "draft"
	ProposalStatusSubmitted     = "submitted"
	ProposalStatusUnderReview   = "under_review"
	ProposalStatusReviewed      = "reviewed"
	ProposalStatusNotReviewed   = "not_reviewed"
	ProposalStatusNeedsRevision = "needs_revision"
	ProposalStatusRevised       = "revised"
)

// Proposal types. Every team owns exactly one of each, created together
// with the team.
const (
	ProposalTypeOriginal = "original"
	ProposalTypeRevised  = "revised"
)

var proposalStatuses = map[string]bool{
	ProposalStatusDraft:         true,
	ProposalStatusSubmitted:     true,
	ProposalStatusUnderReview:   true,
	ProposalStatusReviewed:      true,
	ProposalStatusNotReviewed:   true,
	ProposalStatusNeedsRevision: true,
	ProposalStatusRevised:       true,
}

// IsProposalStatus reports whether s is one of the recognized status values.
func IsProposalStatus(s string) bool {
	return proposalStatuses[s]
}

type Proposal struct {
	ProposalID   int        `gorm:"primaryKey;column:proposal_id" json:"proposal_id"`
	TeamID       int        `gorm:"column:team_id" json:"team_id"`
	ProposalType string     `gorm:"column:proposal_type" json:"proposal_type"`
	Status       string     `gorm:"column:status" json:"status"`
	SubmittedAt  *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedBy    int        `gorm:"column:created_by" json:"created_by"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// ProposalStatusHistory is an audit record for every status change made
// through a manual transition or the finalization branch of the cascade.
type ProposalStatusHistory struct {
	HistoryID  int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	ProposalID int       `gorm:"column:proposal_id" json:"proposal_id"`
	OldStatus  *string   `gorm:"column:old_status" json:"old_status"`
	NewStatus  string    `gorm:"column:new_status" json:"new_status"`
	ChangedBy  int       `gorm:"column:changed_by" json:"changed_by"`
	Notes      *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Proposal) TableName() string {
	return "proposals"
}

func (ProposalStatusHistory) TableName() string {
	return "proposal_status_history"
}
