// internal/models/booking.go
package models

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending        BookingStatus = "pending"         // waiting for the freelancer
	BookingAccepted       BookingStatus = "accepted"        // freelancer accepted the job
	BookingInProgress     BookingStatus = "in_progress"     // work started
	BookingPaymentPending BookingStatus = "Payment Pending" // freelancer asked for payment
	BookingCompleted      BookingStatus = "completed"
	BookingCancelled      BookingStatus = "cancelled"
)

// ActiveBookingStatuses are the statuses that occupy a freelancer's time slot.
var ActiveBookingStatuses = []BookingStatus{
	BookingPending,
	BookingAccepted,
	BookingInProgress,
	BookingPaymentPending,
}

type ServiceBooking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"booking_id"`
	Reference string    `gorm:"uniqueIndex;size:10" json:"reference"` // e.g. L9POKTVJ

	// idx_booking_slot: one non-cancelled booking per provider, date and slot
	HomeownerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"homeowner_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_booking_slot,where:status <> 'cancelled'" json:"freelancer_id"`
	FirstName    string    `gorm:"type:varchar(80)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(80)" json:"last_name"`

	ServiceTypes        datatypes.JSONSlice[string] `json:"service_type"`
	BookingDate         string                      `gorm:"type:varchar(10);index;not null;uniqueIndex:idx_booking_slot" json:"booking_date"` // YYYY-MM-DD
	BookingTime         string                      `gorm:"type:varchar(10);not null;uniqueIndex:idx_booking_slot" json:"booking_time"`       // slot start, e.g. "9:00 AM"
	BookingEndTime      string                      `gorm:"type:varchar(10)" json:"booking_end_time"`
	ServiceAddress      string                      `gorm:"type:text;not null" json:"service_address"`
	SpecialInstructions string                      `gorm:"type:text" json:"special_instructions"`

	HourlyRate        float64 `json:"hourly_rate"`
	EstimatedDuration string  `gorm:"type:varchar(20)" json:"estimated_duration"`
	Subtotal          float64 `json:"subtotal"`
	FeePercentage     float64 `json:"fee_percentage"`
	PlatformFee       float64 `json:"platform_fee"`
	TaxPercentage     float64 `json:"tax_percentage"`
	Tax               float64 `json:"tax"`
	TotalEstimate     float64 `json:"total_estimate"`

	Status BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Homeowner  *Homeowner          `gorm:"foreignKey:HomeownerID" json:"homeowner,omitempty"`
	Freelancer *ApprovedFreelancer `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (b *ServiceBooking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Reference == "" {
		b.Reference = GenerateReference()
	}
	return
}

// GenerateReference generates a random alphanumeric booking code
func GenerateReference() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// Payment records a simulated payment submitted by the homeowner. No processor is involved;
// only the last four digits of the account are kept.
type Payment struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID     uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"booking_id"`
	NameOnAccount string        `gorm:"type:varchar(120)" json:"name_on_account"`
	AccountLast4  string        `gorm:"type:varchar(4)" json:"account_last4"`
	AccountType   string        `gorm:"type:varchar(20)" json:"account_type"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `gorm:"type:varchar(20);default:'PAID'" json:"status"`
	PaidAt        *time.Time    `json:"paid_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// PlatformFee holds the fee percentage. Exactly one row is active at a time.
type PlatformFee struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FeePercentage float64   `gorm:"not null" json:"fee_percentage"`
	IsActive      bool      `gorm:"index;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
