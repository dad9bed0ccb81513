package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceReview struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"review_id"`
	BookingID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	HomeownerID  uuid.UUID `gorm:"type:uuid;index" json:"homeowner_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id"`

	Rating     int    `gorm:"not null" json:"rating"` // 1-5
	ReviewText string `gorm:"type:text" json:"review_text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Booking *ServiceBooking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

func (r *ServiceReview) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
