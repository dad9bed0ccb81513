package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultStartTime = "09:00"
	DefaultEndTime   = "17:00"
)

// ApprovedFreelancer links an auth identity to the application it was approved from
// and carries the operational attributes used for booking.
type ApprovedFreelancer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"freelancer_id"` // = users.id
	ApplicationID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"application_id"`
	Email         string    `gorm:"type:varchar(150);not null" json:"email"`

	HourlyPay   float64                     `gorm:"not null;default:0" json:"hourly_pay"`
	StartTime   string                      `gorm:"type:varchar(5);not null;default:'09:00'" json:"start_time"`
	EndTime     string                      `gorm:"type:varchar(5);not null;default:'17:00'" json:"end_time"`
	ServiceDays datatypes.JSONSlice[string] `json:"service_days"`
	PhotoURL    string                      `gorm:"type:text" json:"profile_photo"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Application *FreelancerApplication `gorm:"foreignKey:ApplicationID" json:"freelancer_info,omitempty"`
}
