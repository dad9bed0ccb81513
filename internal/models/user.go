package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleHomeowner  Role = "homeowner"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// internal/models/user.go
// User is the auth identity. Profile data lives in Homeowner / ApprovedFreelancer / Admin.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

type Homeowner struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"homeowner_id"` // = users.id
	FirstName string    `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(80);not null" json:"last_name"`
	Email     string    `gorm:"type:varchar(150);uniqueIndex" json:"email"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone_number"`
	Address   string    `gorm:"type:text" json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h Homeowner) FullName() string {
	return h.FirstName + " " + h.LastName
}

type Admin struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"admin_id"` // = users.id
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	Email     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
