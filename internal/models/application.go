package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type PaymentDetails struct {
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
}

// FreelancerApplication is submitted by a prospective provider and moderated by admins.
type FreelancerApplication struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"application_id"`

	FirstName         string `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName          string `gorm:"type:varchar(80);not null" json:"last_name"`
	DateOfBirth       string `gorm:"type:varchar(10)" json:"date_of_birth"`
	Email             string `gorm:"type:varchar(150);index;not null" json:"email"`
	PhoneNumber       string `gorm:"type:varchar(30)" json:"phone_number"`
	Address           string `gorm:"type:text" json:"address"`
	YearsOfExperience int    `json:"years_of_experience"`

	Skills   datatypes.JSONSlice[string] `json:"skill"`
	ZipCodes datatypes.JSONSlice[string] `json:"zip_codes"`

	// never serialized; only the last four characters are ever used
	IdentityNumber string                              `gorm:"type:varchar(20);not null" json:"-"`
	PaymentDetails datatypes.JSONType[PaymentDetails] `json:"payment_details"`

	Status ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Documents []Document `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
}

func (a *FreelancerApplication) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// Document is an uploaded supporting file (PDF) for an application.
type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;index;not null" json:"application_id"`
	MediaName     string    `gorm:"type:varchar(255)" json:"media_name"`
	FilePath      string    `gorm:"type:text" json:"pdf_file"`
	DocumentURL   string    `gorm:"type:text" json:"document_url"`
	CreatedAt     time.Time `json:"created_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
