package models

// PhaseSetting is one key-value row of the phase configuration table.
// The three phase keys are mutually exclusive: enabling one disables the
// other two inside the same transaction.
type PhaseSetting struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

// Recognized phase keys.
const (
	PhaseUploadProposal = "upload_proposal_enabled"
	PhaseReview         = "review_enabled"
	PhaseUploadRevision = "upload_revision_enabled"
)

// PhaseKeys lists the recognized keys in a stable order.
var PhaseKeys = []string{PhaseUploadProposal, PhaseReview, PhaseUploadRevision}

// IsPhaseKey reports whether key names one of the three phase toggles.
func IsPhaseKey(key string) bool {
	for _, k := range PhaseKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (PhaseSetting) TableName() string {
	return "phase_settings"
}
