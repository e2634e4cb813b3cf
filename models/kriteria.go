package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Skema is a PKM grant type (PKM-K, PKM-KC, ...). Substantive criteria
// and their weights are defined per skema.
type Skema struct {
	SkemaID   int        `gorm:"primaryKey;column:skema_id" json:"skema_id"`
	SkemaName string     `gorm:"column:skema_name" json:"skema_name"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// KriteriaAdministrasi is one administrative compliance checklist item.
// The checklist is shared by every skema.
type KriteriaAdministrasi struct {
	KriteriaID int        `gorm:"primaryKey;column:kriteria_id" json:"kriteria_id"`
	Deskripsi  string     `gorm:"column:deskripsi" json:"deskripsi"`
	Urutan     int        `gorm:"column:urutan" json:"urutan"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// KriteriaSubstansi is one weighted substantive criterion of a skema.
// Bobot is a percentage weight; the sum of weights per skema must not
// exceed 100. Scores run SkorMin..SkorMax on the 1-7 scale, with 4
// disallowed (it carries no label).
type KriteriaSubstansi struct {
	KriteriaID int             `gorm:"primaryKey;column:kriteria_id" json:"kriteria_id"`
	SkemaID    int             `gorm:"column:skema_id" json:"skema_id"`
	Deskripsi  string          `gorm:"column:deskripsi" json:"deskripsi"`
	Bobot      decimal.Decimal `gorm:"column:bobot;type:decimal(5,2)" json:"bobot"`
	SkorMin    int             `gorm:"column:skor_min" json:"skor_min"`
	SkorMax    int             `gorm:"column:skor_max" json:"skor_max"`
	Urutan     int             `gorm:"column:urutan" json:"urutan"`
	CreateAt   *time.Time      `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time      `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time      `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Skema Skema `gorm:"foreignKey:SkemaID" json:"skema,omitempty"`
}

func (Skema) TableName() string {
	return "skema"
}

func (KriteriaAdministrasi) TableName() string {
	return "kriteria_administrasi"
}

func (KriteriaSubstansi) TableName() string {
	return "kriteria_substansi"
}
