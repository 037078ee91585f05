package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FeeType string

const (
	FeeTypeFlat       FeeType = "FLAT"
	FeeTypePercentage FeeType = "PERCENTAGE"
)

// PropertySettings is the per-property automation configuration record. It is
// owned by property settings management; the engine only ever reads it.
type PropertySettings struct {
	BaseUUIDModel
	PropertyID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"propertyId"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"       json:"organizationId"`

	// Local wall-clock times in "15:04" form.
	CheckInTime  string `gorm:"type:text;not null;default:'15:00'" json:"checkInTime"`
	CheckOutTime string `gorm:"type:text;not null;default:'11:00'" json:"checkOutTime"`

	NoShowGraceHours         int `gorm:"not null;default:6"  json:"noShowGraceHours"`
	NoShowLookbackDays       int `gorm:"not null;default:3"  json:"noShowLookbackDays"`
	LateCheckoutGraceHours   int `gorm:"not null;default:2"  json:"lateCheckoutGraceHours"`
	LateCheckoutLookbackDays int `gorm:"not null;default:2"  json:"lateCheckoutLookbackDays"`

	// LateCheckoutFee is a smallest-unit amount for FLAT and a percentage in
	// basis-point-free whole percent for PERCENTAGE.
	LateCheckoutFee     int64   `gorm:"not null;default:0"      json:"lateCheckoutFee"`
	LateCheckoutFeeType FeeType `gorm:"type:text;not null;default:'FLAT'" json:"lateCheckoutFeeType"`

	ConfirmationPendingTimeoutHours int `gorm:"not null;default:24"  json:"confirmationPendingTimeoutHours"`
	AuditLogRetentionDays           int `gorm:"not null;default:365" json:"auditLogRetentionDays"`

	Metadata datatypes.JSON `json:"metadata"`
}

// AutomationConfig is the read-only snapshot of the automation knobs handed
// to the rule engine and scheduler.
type AutomationConfig struct {
	PropertyID                      uuid.UUID `json:"propertyId"`
	OrganizationID                  uuid.UUID `json:"organizationId"`
	CheckInTime                     string    `json:"checkInTime"`
	CheckOutTime                    string    `json:"checkOutTime"`
	NoShowGraceHours                int       `json:"noShowGraceHours"`
	NoShowLookbackDays              int       `json:"noShowLookbackDays"`
	LateCheckoutGraceHours          int       `json:"lateCheckoutGraceHours"`
	LateCheckoutLookbackDays        int       `json:"lateCheckoutLookbackDays"`
	LateCheckoutFee                 int64     `json:"lateCheckoutFee"`
	LateCheckoutFeeType             FeeType   `json:"lateCheckoutFeeType"`
	ConfirmationPendingTimeoutHours int       `json:"confirmationPendingTimeoutHours"`
	AuditLogRetentionDays           int       `json:"auditLogRetentionDays"`
}

// ToAutomationConfig flattens the settings row into the snapshot the engine
// consumes.
func (s *PropertySettings) ToAutomationConfig() AutomationConfig {
	return AutomationConfig{
		PropertyID:                      s.PropertyID,
		OrganizationID:                  s.OrganizationID,
		CheckInTime:                     s.CheckInTime,
		CheckOutTime:                    s.CheckOutTime,
		NoShowGraceHours:                s.NoShowGraceHours,
		NoShowLookbackDays:              s.NoShowLookbackDays,
		LateCheckoutGraceHours:          s.LateCheckoutGraceHours,
		LateCheckoutLookbackDays:        s.LateCheckoutLookbackDays,
		LateCheckoutFee:                 s.LateCheckoutFee,
		LateCheckoutFeeType:             s.LateCheckoutFeeType,
		ConfirmationPendingTimeoutHours: s.ConfirmationPendingTimeoutHours,
		AuditLogRetentionDays:           s.AuditLogRetentionDays,
	}
}
