package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// CreditFreelancer records earnings for a completed booking.
// This should be called within a DB transaction.
func (s *WalletService) CreditFreelancer(tx *gorm.DB, freelancerID uuid.UUID, amount float64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	ledger := models.WalletTransaction{
		FreelancerID: freelancerID,
		Amount:       amount,
		Type:         models.WalletTrxCredit,
		Description:  description,
		ReferenceID:  &referenceID,
	}
	return tx.Create(&ledger).Error
}

// Balance is credits minus debits.
func (s *WalletService) Balance(ctx context.Context, freelancerID uuid.UUID) (float64, error) {
	var row struct {
		Credit float64
		Debit  float64
	}
	err := s.DB.WithContext(ctx).Model(&models.WalletTransaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS credit, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS debit",
			models.WalletTrxCredit, models.WalletTrxDebit,
		).
		Where("freelancer_id = ?", freelancerID).
		Scan(&row).Error
	return row.Credit - row.Debit, err
}

// Earnings sums credits since the given time. A zero time means all time.
func (s *WalletService) Earnings(ctx context.Context, freelancerID uuid.UUID, since time.Time) (float64, error) {
	q := s.DB.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("freelancer_id = ? AND type = ?", freelancerID, models.WalletTrxCredit)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var total float64
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

func (s *WalletService) History(ctx context.Context, freelancerID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var trx []models.WalletTransaction
	err := s.DB.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&trx).Error
	return trx, err
}
