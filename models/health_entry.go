package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry types as persisted. "error" never reaches storage: the entry service
// remaps it to "unknown" before any write.
const (
	EntryTypeFood    = "food"
	EntryTypeWeight  = "weight"
	EntryTypeSteps   = "steps"
	EntryTypeUnknown = "unknown"
)

// HealthEntry is one user-submitted health observation plus whatever structured
// data interpretation produced for it.
type HealthEntry struct {
	gorm.Model
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	EntryText string    `json:"entry_text"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	EntryType  string         `gorm:"index" json:"entry_type"`
	Value      *float64       `json:"value"`
	Unit       string         `json:"unit,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
	ParsedData datatypes.JSON `gorm:"type:jsonb" json:"parsed_data,omitempty"`
}
