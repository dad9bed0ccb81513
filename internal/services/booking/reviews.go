package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

var (
	ErrNotReviewable   = errors.New("only completed bookings can be reviewed")
	ErrAlreadyReviewed = errors.New("booking has already been reviewed")
)

// Reviewable lists the homeowner's completed bookings that have no review yet.
func (s *Service) Reviewable(ctx context.Context, homeownerID uuid.UUID) ([]models.ServiceBooking, error) {
	var out []models.ServiceBooking
	err := s.withParties(ctx).
		Where("homeowner_id = ? AND status = ?", homeownerID, models.BookingCompleted).
		Where("id NOT IN (?)", s.DB.Model(&models.ServiceReview{}).Select("booking_id")).
		Order("booking_date DESC").
		Find(&out).Error
	return out, err
}

func (s *Service) SubmitReview(ctx context.Context, bookingID uuid.UUID, actor Actor, rating int, text string) (*models.ServiceReview, error) {
	if actor.Role != models.RoleHomeowner {
		return nil, ErrForbidden
	}
	if rating < 1 || rating > 5 {
		return nil, ValidationError{"rating": "Rating must be between 1 and 5"}
	}

	var r models.ServiceReview
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.ServiceBooking
		if err := tx.First(&b, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if b.HomeownerID != actor.ID {
			return ErrForbidden
		}
		if b.Status != models.BookingCompleted {
			return ErrNotReviewable
		}

		var n int64
		if err := tx.Model(&models.ServiceReview{}).Where("booking_id = ?", b.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyReviewed
		}

		r = models.ServiceReview{
			BookingID:    b.ID,
			HomeownerID:  b.HomeownerID,
			FreelancerID: b.FreelancerID,
			Rating:       rating,
			ReviewText:   strings.TrimSpace(text),
		}
		return tx.Create(&r).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) FreelancerReviews(ctx context.Context, freelancerID uuid.UUID, limit int) ([]models.ServiceReview, error) {
	var out []models.ServiceReview
	err := s.DB.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
