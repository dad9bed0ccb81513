package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
)

type Page struct {
	Page  int
	Limit int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	return q.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
}

func (s *Service) withParties(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Preload("Homeowner").Preload("Freelancer.Application")
}

// HomeownerUpcoming lists every booking of the homeowner that is not completed,
// soonest first.
func (s *Service) HomeownerUpcoming(ctx context.Context, homeownerID uuid.UUID) ([]models.ServiceBooking, error) {
	var out []models.ServiceBooking
	err := s.withParties(ctx).
		Where("homeowner_id = ? AND status <> ?", homeownerID, models.BookingCompleted).
		Order("booking_date ASC").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *Service) HomeownerHistory(ctx context.Context, homeownerID uuid.UUID, p Page) ([]models.ServiceBooking, int64, error) {
	return s.list(ctx, p, "created_at DESC", "homeowner_id = ?", homeownerID)
}

// FreelancerUpcoming lists the provider's jobs that still need work or payment.
func (s *Service) FreelancerUpcoming(ctx context.Context, freelancerID uuid.UUID) ([]models.ServiceBooking, error) {
	var out []models.ServiceBooking
	err := s.withParties(ctx).
		Where("freelancer_id = ? AND status IN ?", freelancerID, models.ActiveBookingStatuses).
		Order("booking_date ASC").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *Service) FreelancerCompleted(ctx context.Context, freelancerID uuid.UUID, p Page) ([]models.ServiceBooking, int64, error) {
	return s.list(ctx, p, "booking_date DESC", "freelancer_id = ? AND status = ?", freelancerID, models.BookingCompleted)
}

// ByStatus is the admin listing of bookings in any of the given statuses.
func (s *Service) ByStatus(ctx context.Context, statuses []models.BookingStatus, p Page) ([]models.ServiceBooking, int64, error) {
	return s.list(ctx, p, "booking_date DESC", "status IN ?", statuses)
}

func (s *Service) list(ctx context.Context, p Page, order string, where string, args ...any) ([]models.ServiceBooking, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.ServiceBooking{}).Where(where, args...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.ServiceBooking
	err := p.apply(s.withParties(ctx).Where(where, args...).Order(order)).Find(&out).Error
	return out, total, err
}

type FreelancerStats struct {
	TotalJobsCompleted   int64   `json:"total_jobs_completed"`
	TotalEarnings        float64 `json:"total_earnings"`
	AverageRating        float64 `json:"average_rating"`
	TotalReviews         int64   `json:"total_reviews"`
	TotalHoursWorked     float64 `json:"total_hours_worked"`
	CurrentMonthEarnings float64 `json:"current_month_earnings"`
	CurrentMonthJobs     int64   `json:"current_month_jobs"`
	UpcomingJobs         int64   `json:"upcoming_jobs"`
}

func (s *Service) Stats(ctx context.Context, freelancerID uuid.UUID) (*FreelancerStats, error) {
	st := &FreelancerStats{}
	db := s.DB.WithContext(ctx)
	since := monthStart(s.Now())

	completed := func() *gorm.DB {
		return db.Model(&models.ServiceBooking{}).Where("freelancer_id = ? AND status = ?", freelancerID, models.BookingCompleted)
	}
	if err := completed().Count(&st.TotalJobsCompleted).Error; err != nil {
		return nil, err
	}
	if err := completed().Where("booking_date >= ?", since.Format("2006-01-02")).Count(&st.CurrentMonthJobs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ServiceBooking{}).
		Where("freelancer_id = ? AND status IN ?", freelancerID, models.ActiveBookingStatuses).
		Count(&st.UpcomingJobs).Error; err != nil {
		return nil, err
	}

	var rating struct {
		Avg float64
		N   int64
	}
	if err := db.Model(&models.ServiceReview{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n").
		Where("freelancer_id = ?", freelancerID).
		Scan(&rating).Error; err != nil {
		return nil, err
	}
	st.AverageRating = pricing.Round2(rating.Avg)
	st.TotalReviews = rating.N

	var err error
	if st.TotalEarnings, err = s.Wallet.Earnings(ctx, freelancerID, time.Time{}); err != nil {
		return nil, err
	}
	if st.CurrentMonthEarnings, err = s.Wallet.Earnings(ctx, freelancerID, since); err != nil {
		return nil, err
	}
	st.TotalHoursWorked = float64(st.TotalJobsCompleted) * pricing.EstimatedHours
	return st, nil
}

// monthStart is the first instant of the month containing t, in UTC.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
