package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReviewerAssignment links a proposal to one of its two blind reviewers.
// ReviewerNumber is 1 or 2; a proposal never has more than one row per
// number and never two rows with the same reviewer.
type ReviewerAssignment struct {
	AssignmentID   int       `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	ProposalID     int       `gorm:"column:proposal_id" json:"proposal_id"`
	ReviewerID     int       `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewerNumber int       `gorm:"column:reviewer_number" json:"reviewer_number"`
	AssignedBy     int       `gorm:"column:assigned_by" json:"assigned_by"`
	AssignedAt     time.Time `gorm:"column:assigned_at" json:"assigned_at"`

	Proposal *Proposal `gorm:"foreignKey:ProposalID" json:"proposal,omitempty"`
	Reviewer *User     `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// PenilaianAdministrasi is the administrative compliance assessment of
// one assignment (1:1). Details are replaced wholesale on update.
type PenilaianAdministrasi struct {
	PenilaianID    int        `gorm:"primaryKey;column:penilaian_id" json:"penilaian_id"`
	AssignmentID   int        `gorm:"column:assignment_id" json:"assignment_id"`
	TotalKesalahan int        `gorm:"column:total_kesalahan" json:"total_kesalahan"`
	Catatan        *string    `gorm:"column:catatan" json:"catatan,omitempty"`
	IsComplete     bool       `gorm:"column:is_complete" json:"is_complete"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	Details []DetailPenilaianAdministrasi `gorm:"foreignKey:PenilaianID" json:"details,omitempty"`
}

// DetailPenilaianAdministrasi marks one checklist criterion as violated
// or not for one assessment.
type DetailPenilaianAdministrasi struct {
	DetailID    int  `gorm:"primaryKey;column:detail_id" json:"detail_id"`
	PenilaianID int  `gorm:"column:penilaian_id" json:"penilaian_id"`
	KriteriaID  int  `gorm:"column:kriteria_id" json:"kriteria_id"`
	Kesalahan   bool `gorm:"column:kesalahan" json:"kesalahan"`
}

// PenilaianSubstansi is the substantive quality assessment of one
// assignment (1:1). TotalNilai is the exact sum of skor x bobot over all
// detail rows.
type PenilaianSubstansi struct {
	PenilaianID  int             `gorm:"primaryKey;column:penilaian_id" json:"penilaian_id"`
	AssignmentID int             `gorm:"column:assignment_id" json:"assignment_id"`
	TotalNilai   decimal.Decimal `gorm:"column:total_nilai;type:decimal(10,2)" json:"total_nilai"`
	Catatan      *string         `gorm:"column:catatan" json:"catatan,omitempty"`
	IsComplete   bool            `gorm:"column:is_complete" json:"is_complete"`
	CreateAt     *time.Time      `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time      `gorm:"column:update_at" json:"update_at"`

	Details []DetailPenilaianSubstansi `gorm:"foreignKey:PenilaianID" json:"details,omitempty"`
}

// DetailPenilaianSubstansi holds one criterion score; Nilai is the exact
// skor x bobot line value.
type DetailPenilaianSubstansi struct {
	DetailID    int             `gorm:"primaryKey;column:detail_id" json:"detail_id"`
	PenilaianID int             `gorm:"column:penilaian_id" json:"penilaian_id"`
	KriteriaID  int             `gorm:"column:kriteria_id" json:"kriteria_id"`
	Skor        int             `gorm:"column:skor" json:"skor"`
	Nilai       decimal.Decimal `gorm:"column:nilai;type:decimal(10,2)" json:"nilai"`
}

func (ReviewerAssignment) TableName() string {
	return "reviewer_assignments"
}

func (PenilaianAdministrasi) TableName() string {
	return "penilaian_administrasi"
}

func (DetailPenilaianAdministrasi) TableName() string {
	return "detail_penilaian_administrasi"
}

func (PenilaianSubstansi) TableName() string {
	return "penilaian_substansi"
}

func (DetailPenilaianSubstansi) TableName() string {
	return "detail_penilaian_substansi"
}
