package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

// Actor is the signed-in user acting on a booking.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

func (a Actor) canSee(b *models.ServiceBooking) bool {
	switch a.Role {
	case models.RoleAdmin:
		return true
	case models.RoleHomeowner:
		return b.HomeownerID == a.ID
	case models.RoleFreelancer:
		return b.FreelancerID == a.ID
	}
	return false
}

type TransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change booking from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type rule struct {
	role models.Role
	from []models.BookingStatus
	to   models.BookingStatus
}

var (
	ruleAccept         = rule{models.RoleFreelancer, []models.BookingStatus{models.BookingPending}, models.BookingAccepted}
	ruleDecline        = rule{models.RoleFreelancer, []models.BookingStatus{models.BookingPending, models.BookingAccepted}, models.BookingCancelled}
	ruleStart          = rule{models.RoleFreelancer, []models.BookingStatus{models.BookingAccepted}, models.BookingInProgress}
	ruleRequestPayment = rule{models.RoleFreelancer, []models.BookingStatus{models.BookingAccepted, models.BookingInProgress}, models.BookingPaymentPending}
	ruleCancel         = rule{models.RoleHomeowner, []models.BookingStatus{models.BookingPending}, models.BookingCancelled}
	rulePay            = rule{models.RoleHomeowner, []models.BookingStatus{models.BookingPaymentPending}, models.BookingCompleted}
)

// apply runs r against the booking inside one transaction. then, if set, runs in
// the same transaction after the status update.
func (s *Service) apply(ctx context.Context, id uuid.UUID, actor Actor, r rule, then func(tx *gorm.DB, b *models.ServiceBooking) error) (*models.ServiceBooking, error) {
	if actor.Role != r.role {
		return nil, ErrForbidden
	}

	var b models.ServiceBooking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !actor.canSee(&b) {
			return ErrForbidden
		}
		if !slices.Contains(r.from, b.Status) {
			return &TransitionError{From: b.Status, To: r.to}
		}

		res := tx.Model(&models.ServiceBooking{}).
			Where("id = ? AND status = ?", b.ID, b.Status).
			Update("status", r.to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &TransitionError{From: b.Status, To: r.to}
		}
		b.Status = r.to

		if then != nil {
			return then(tx, &b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{"booking_id": b.ID, "status": b.Status, "by": actor.ID}).Info("booking status changed")
	s.notifyBooking(ctx, &b)
	return &b, nil
}

func (s *Service) Accept(ctx context.Context, id uuid.UUID, actor Actor) (*models.ServiceBooking, error) {
	return s.apply(ctx, id, actor, ruleAccept, nil)
}

func (s *Service) Decline(ctx context.Context, id uuid.UUID, actor Actor) (*models.ServiceBooking, error) {
	return s.apply(ctx, id, actor, ruleDecline, nil)
}

func (s *Service) Start(ctx context.Context, id uuid.UUID, actor Actor) (*models.ServiceBooking, error) {
	return s.apply(ctx, id, actor, ruleStart, nil)
}

// RequestPayment marks the work done and asks the homeowner to pay.
func (s *Service) RequestPayment(ctx context.Context, id uuid.UUID, actor Actor) (*models.ServiceBooking, error) {
	return s.apply(ctx, id, actor, ruleRequestPayment, nil)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*models.ServiceBooking, error) {
	return s.apply(ctx, id, actor, ruleCancel, nil)
}

type PaymentInput struct {
	NameOnAccount string
	AccountNumber string
	RoutingNumber string
	AccountType   string
}

func (p *PaymentInput) validate() error {
	fe := ValidationError{}
	p.NameOnAccount = strings.TrimSpace(p.NameOnAccount)
	p.AccountNumber = strings.TrimSpace(p.AccountNumber)
	p.RoutingNumber = strings.TrimSpace(p.RoutingNumber)
	p.AccountType = strings.ToLower(strings.TrimSpace(p.AccountType))

	if p.NameOnAccount == "" {
		fe["name_on_account"] = "Name on account is required"
	}
	if len(p.AccountNumber) < 4 || !digits(p.AccountNumber) {
		fe["account_number"] = "Enter a valid account number"
	}
	if len(p.RoutingNumber) != 9 || !digits(p.RoutingNumber) {
		fe["routing_number"] = "Routing number must be 9 digits"
	}
	if p.AccountType != "checking" && p.AccountType != "savings" {
		fe["account_type"] = "Account type must be checking or savings"
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Pay records a simulated payment and completes the booking. The provider is
// credited with the subtotal; fee and tax stay with the platform.
func (s *Service) Pay(ctx context.Context, id uuid.UUID, actor Actor, in PaymentInput) (*models.ServiceBooking, *models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	var payment models.Payment
	b, err := s.apply(ctx, id, actor, rulePay, func(tx *gorm.DB, b *models.ServiceBooking) error {
		now := s.Now()
		payment = models.Payment{
			BookingID:     b.ID,
			NameOnAccount: in.NameOnAccount,
			AccountLast4:  in.AccountNumber[len(in.AccountNumber)-4:],
			AccountType:   in.AccountType,
			Amount:        b.TotalEstimate,
			Status:        models.PaymentStatusPaid,
			PaidAt:        &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if b.Subtotal <= 0 {
			return nil
		}
		return s.Wallet.CreditFreelancer(tx, b.FreelancerID, b.Subtotal, b.ID,
			fmt.Sprintf("Booking %s (%s %s)", b.Reference, b.BookingDate, b.BookingTime))
	})
	if err != nil {
		return nil, nil, err
	}
	return b, &payment, nil
}
