package models

import (
	"encoding/json"
	"time"
)

// Location is an optional place attached to a smoking record.
type Location struct {
	Name        string    `json:"name,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// SmokingRecord logs a smoking event: when, how many cigarettes, and context.
// TriggerTags and Location are stored as JSON text columns.
type SmokingRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null;index:idx_smoking_user_ts" json:"user_id"`
	Timestamp        time.Time `gorm:"not null;index:idx_smoking_user_ts" json:"timestamp"`
	CigarettesSmoked int       `gorm:"not null;default:1" json:"cigarettes_smoked"`
	TriggerTags      string    `gorm:"type:text" json:"-"`
	Notes            string    `gorm:"type:text" json:"notes,omitempty"`
	Location         string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Tags decodes the trigger tag list. A malformed or empty column yields nil.
func (r *SmokingRecord) Tags() []string {
	if r.TriggerTags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(r.TriggerTags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags encodes the trigger tag list into the JSON column.
func (r *SmokingRecord) SetTags(tags []string) {
	if len(tags) == 0 {
		r.TriggerTags = ""
		return
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return
	}
	r.TriggerTags = string(b)
}

// Place decodes the location column, nil when absent.
func (r *SmokingRecord) Place() *Location {
	if r.Location == "" {
		return nil
	}
	var loc Location
	if err := json.Unmarshal([]byte(r.Location), &loc); err != nil {
		return nil
	}
	return &loc
}

// SetPlace encodes the location into the JSON column.
func (r *SmokingRecord) SetPlace(loc *Location) {
	if loc == nil {
		r.Location = ""
		return
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return
	}
	r.Location = string(b)
}
