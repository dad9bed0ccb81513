package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletTrxType string

const (
	WalletTrxCredit WalletTrxType = "credit" // earnings from a completed booking
	WalletTrxDebit  WalletTrxType = "debit"  // payout
)

// WalletTransaction is the freelancer earnings ledger.
type WalletTransaction struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	FreelancerID uuid.UUID     `gorm:"type:uuid;index;not null" json:"freelancer_id"`
	Amount       float64       `gorm:"not null" json:"amount"`
	Type         WalletTrxType `gorm:"type:varchar(20);not null" json:"type"`
	Description  string        `gorm:"type:text" json:"description"`
	ReferenceID  *uuid.UUID    `gorm:"type:uuid;index" json:"reference_id,omitempty"` // booking id
	CreatedAt    time.Time     `json:"created_at"`
}

func (w *WalletTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
