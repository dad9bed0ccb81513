// Package booking creates service bookings and moves them through their lifecycle.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/availability"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/wallet"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrProviderNotFound  = errors.New("freelancer not found")
	ErrHomeownerNotFound = errors.New("homeowner profile not found")
	ErrNoHourlyRate      = errors.New("freelancer has not set an hourly rate")
	ErrSlotTaken         = errors.New("time slot is already booked")
	ErrForbidden         = errors.New("booking belongs to someone else")
	ErrInvalidTransition = errors.New("invalid booking status change")
)

// ValidationError maps request fields to messages.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + v[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Notifier is told about booking and message changes after they are committed.
type Notifier interface {
	BookingChanged(ctx context.Context, b *models.ServiceBooking)
	MessageSent(ctx context.Context, m *models.Message)
}

type Service struct {
	DB     *gorm.DB
	Fees   *pricing.FeeService
	Wallet *wallet.WalletService
	Notify Notifier // optional
	Log    logrus.FieldLogger
	Now    func() time.Time

	// NewReference generates booking reference codes.
	NewReference func() string
}

// referenceAttempts bounds retries after a reference code collision.
const referenceAttempts = 3

func NewService(db *gorm.DB, fees *pricing.FeeService, w *wallet.WalletService, n Notifier, log logrus.FieldLogger) *Service {
	return &Service{DB: db, Fees: fees, Wallet: w, Notify: n, Log: log, Now: time.Now, NewReference: models.GenerateReference}
}

type CreateInput struct {
	FreelancerID        uuid.UUID
	ServiceTypes        []string
	BookingDate         string
	BookingTime         string
	ServiceAddress      string
	SpecialInstructions string
}

func (s *Service) today() string {
	return s.Now().UTC().Format(availability.DateLayout)
}

func (s *Service) Provider(ctx context.Context, id uuid.UUID) (*models.ApprovedFreelancer, error) {
	var f models.ApprovedFreelancer
	if err := s.DB.WithContext(ctx).Preload("Application").First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Slots lists the provider's slots on date. Slots held by a booking that is not
// cancelled are returned with Available=false.
func (s *Service) Slots(ctx context.Context, freelancerID uuid.UUID, date string) ([]availability.Slot, error) {
	f, err := s.Provider(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if err := availability.ValidateServiceDay(date, f.ServiceDays); err != nil {
		return nil, err
	}

	slots, err := availability.GenerateSlots(date, f.StartTime, f.EndTime)
	if err != nil {
		return nil, err
	}
	taken, err := takenSlots(s.DB.WithContext(ctx), f.ID, date)
	if err != nil {
		return nil, err
	}
	return availability.MarkBooked(slots, taken), nil
}

func slotTaken(db *gorm.DB, freelancerID uuid.UUID, date, start string) (bool, error) {
	var n int64
	err := db.Model(&models.ServiceBooking{}).
		Where("freelancer_id = ? AND booking_date = ? AND booking_time = ? AND status <> ?", freelancerID, date, start, models.BookingCancelled).
		Count(&n).Error
	return n > 0, err
}

func takenSlots(db *gorm.DB, freelancerID uuid.UUID, date string) ([]string, error) {
	var taken []string
	err := db.Model(&models.ServiceBooking{}).
		Where("freelancer_id = ? AND booking_date = ? AND status <> ?", freelancerID, date, models.BookingCancelled).
		Pluck("booking_time", &taken).Error
	return taken, err
}

func (s *Service) validate(in *CreateInput) error {
	fe := ValidationError{}

	types := make([]string, 0, len(in.ServiceTypes))
	for _, t := range in.ServiceTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	in.ServiceTypes = types
	in.BookingTime = strings.TrimSpace(in.BookingTime)
	in.ServiceAddress = strings.TrimSpace(in.ServiceAddress)
	in.SpecialInstructions = strings.TrimSpace(in.SpecialInstructions)

	if in.FreelancerID == uuid.Nil {
		fe["freelancer_id"] = "Freelancer is required"
	}
	if len(in.ServiceTypes) == 0 {
		fe["service_type"] = "Select at least one service"
	}
	if _, err := availability.ParseDate(in.BookingDate); err != nil {
		fe["booking_date"] = "Booking date is required"
	} else if in.BookingDate < s.today() {
		fe["booking_date"] = "Booking date cannot be in the past"
	}
	if in.BookingTime == "" {
		fe["booking_time"] = "Select a time slot"
	}
	if in.ServiceAddress == "" {
		fe["service_address"] = "Service address is required"
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

// Create books a slot for the homeowner. The date must be one of the provider's
// service days and the time one of the generated slots that is still free.
func (s *Service) Create(ctx context.Context, homeownerID uuid.UUID, in CreateInput) (*models.ServiceBooking, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	var ho models.Homeowner
	if err := s.DB.WithContext(ctx).First(&ho, "id = ?", homeownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHomeownerNotFound
		}
		return nil, err
	}

	f, err := s.Provider(ctx, in.FreelancerID)
	if err != nil {
		return nil, err
	}
	if f.HourlyPay <= 0 {
		return nil, ErrNoHourlyRate
	}
	if err := availability.ValidateServiceDay(in.BookingDate, f.ServiceDays); err != nil {
		return nil, err
	}

	slots, err := availability.GenerateSlots(in.BookingDate, f.StartTime, f.EndTime)
	if err != nil {
		return nil, err
	}
	slot, ok := availability.FindSlot(slots, in.BookingTime)
	if !ok {
		return nil, availability.ErrSlotUnavailable
	}

	rates := s.Fees.Current(ctx)
	est := pricing.Estimate(f.HourlyPay, rates.FeePercentage, rates.TaxPercentage).Rounded()

	b := models.ServiceBooking{
		HomeownerID:         ho.ID,
		FreelancerID:        f.ID,
		FirstName:           ho.FirstName,
		LastName:            ho.LastName,
		ServiceTypes:        datatypes.JSONSlice[string](in.ServiceTypes),
		BookingDate:         in.BookingDate,
		BookingTime:         slot.Start,
		BookingEndTime:      slot.End,
		ServiceAddress:      in.ServiceAddress,
		SpecialInstructions: in.SpecialInstructions,
		HourlyRate:          est.HourlyRate,
		EstimatedDuration:   pricing.EstimatedDuration,
		Subtotal:            est.Subtotal,
		FeePercentage:       est.FeePercentage,
		PlatformFee:         est.PlatformFee,
		TaxPercentage:       est.TaxPercentage,
		Tax:                 est.Tax,
		TotalEstimate:       est.Total,
		Status:              models.BookingPending,
	}

	for attempt := 1; ; attempt++ {
		b.ID = uuid.Nil
		b.Reference = s.NewReference()

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			taken, err := slotTaken(tx, f.ID, in.BookingDate, slot.Start)
			if err != nil {
				return err
			}
			if taken {
				return ErrSlotTaken
			}
			return tx.Create(&b).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}

		// the unique index on the slot or on the reference fired
		taken, terr := slotTaken(s.DB.WithContext(ctx), f.ID, in.BookingDate, slot.Start)
		if terr != nil {
			return nil, terr
		}
		if taken {
			return nil, ErrSlotTaken
		}
		if attempt == referenceAttempts {
			return nil, fmt.Errorf("allocate booking reference: %w", err)
		}
		s.Log.WithField("reference", b.Reference).Warn("booking reference collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"booking_id":    b.ID,
		"freelancer_id": b.FreelancerID,
		"date":          b.BookingDate,
		"slot":          b.BookingTime,
	}).Info("booking created")
	s.notifyBooking(ctx, &b)
	return &b, nil
}

func (s *Service) notifyBooking(ctx context.Context, b *models.ServiceBooking) {
	if s.Notify != nil {
		s.Notify.BookingChanged(ctx, b)
	}
}

// Get returns a booking visible to the actor.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.ServiceBooking, error) {
	var b models.ServiceBooking
	err := s.DB.WithContext(ctx).
		Preload("Homeowner").
		Preload("Freelancer.Application").
		First(&b, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.canSee(&b) {
		return nil, ErrForbidden
	}
	return &b, nil
}

// ExpireStale cancels pending bookings whose date has already passed.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.ServiceBooking{}).
		Where("status = ? AND booking_date < ?", models.BookingPending, s.today()).
		Update("status", models.BookingCancelled)
	if res.Error != nil {
		return 0, fmt.Errorf("expire stale bookings: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.Log.WithField("count", res.RowsAffected).Info("stale pending bookings cancelled")
	}
	return res.RowsAffected, nil
}
