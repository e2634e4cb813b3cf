package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pkm-review-api/models"
)

// CriteriaService serves the criterion master data and guards the weight
// invariant at definition time.
type CriteriaService struct {
	db *gorm.DB
}

func NewCriteriaService(db *gorm.DB) *CriteriaService {
	return &CriteriaService{db: db}
}

var maxBobotSum = decimal.NewFromInt(100)

// ListAdministrasi returns all administrative checklist criteria.
func (s *CriteriaService) ListAdministrasi() ([]models.KriteriaAdministrasi, error) {
	var criteria []models.KriteriaAdministrasi
	if err := s.db.Where("delete_at IS NULL").
		Order("urutan ASC").
		Find(&criteria).Error; err != nil {
		return nil, err
	}
	return criteria, nil
}

// ListSubstansi returns the weighted criteria of one skema.
func (s *CriteriaService) ListSubstansi(skemaID int) ([]models.KriteriaSubstansi, error) {
	var criteria []models.KriteriaSubstansi
	if err := s.db.Where("skema_id = ? AND delete_at IS NULL", skemaID).
		Order("urutan ASC").
		Find(&criteria).Error; err != nil {
		return nil, err
	}
	return criteria, nil
}

// KriteriaSubstansiInput defines one new weighted criterion.
type KriteriaSubstansiInput struct {
	SkemaID   int             `json:"skema_id" binding:"required"`
	Deskripsi string          `json:"deskripsi" binding:"required"`
	Bobot     decimal.Decimal `json:"bobot"`
	SkorMin   int             `json:"skor_min"`
	SkorMax   int             `json:"skor_max"`
	Urutan    int             `json:"urutan"`
}

// CreateSubstansi adds a weighted criterion to a skema. The weight sum of
// the skema must stay at or below 100 so the maximum achievable total
// never exceeds 100 x skor_max.
func (s *CriteriaService) CreateSubstansi(in KriteriaSubstansiInput) (*models.KriteriaSubstansi, error) {
	if !in.Bobot.IsPositive() {
		return nil, BadRequest("Bobot must be positive")
	}
	if in.SkorMin < 1 || in.SkorMax < in.SkorMin {
		return nil, BadRequest("Invalid score range")
	}

	var skema models.Skema
	if err := s.db.Where("skema_id = ? AND delete_at IS NULL", in.SkemaID).
		First(&skema).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Skema not found")
		}
		return nil, err
	}

	var current struct {
		Total decimal.Decimal
	}
	if err := s.db.Raw(
		"SELECT COALESCE(SUM(bobot), 0) AS total FROM kriteria_substansi WHERE skema_id = ? AND delete_at IS NULL",
		in.SkemaID,
	).Scan(&current).Error; err != nil {
		return nil, err
	}
	if current.Total.Add(in.Bobot).GreaterThan(maxBobotSum) {
		return nil, BadRequest("Total bobot for this skema would exceed 100")
	}

	now := time.Now()
	criterion := models.KriteriaSubstansi{
		SkemaID:   in.SkemaID,
		Deskripsi: in.Deskripsi,
		Bobot:     in.Bobot,
		SkorMin:   in.SkorMin,
		SkorMax:   in.SkorMax,
		Urutan:    in.Urutan,
		CreateAt:  &now,
		UpdateAt:  &now,
	}
	if err := s.db.Create(&criterion).Error; err != nil {
		return nil, err
	}
	return &criterion, nil
}

// ListSkema returns all grant types.
func (s *CriteriaService) ListSkema() ([]models.Skema, error) {
	var skema []models.Skema
	if err := s.db.Where("delete_at IS NULL").
		Order("skema_id ASC").
		Find(&skema).Error; err != nil {
		return nil, err
	}
	return skema, nil
}
