package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"post_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`
	Content      string    `gorm:"type:text" json:"content"`
	ImageURL     string    `gorm:"type:text" json:"image_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Freelancer *ApprovedFreelancer `gorm:"foreignKey:FreelancerID" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// Like and Comment authors are either homeowners or freelancers.
type Like struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"like_id"`
	PostID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_post_author" json:"post_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_post_author" json:"author_id"`
	AuthorRole Role      `gorm:"type:varchar(20);not null" json:"author_role"`
	CreatedAt  time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"comment_id"`
	PostID     uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorRole Role      `gorm:"type:varchar(20);not null" json:"author_role"`
	AuthorName string    `gorm:"type:varchar(160)" json:"author_name"`
	Content    string    `gorm:"type:text;not null" json:"comment_content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
