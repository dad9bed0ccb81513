package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

const maxMessageLen = 2000

// SendMessage delivers content to the other party of the booking.
func (s *Service) SendMessage(ctx context.Context, bookingID uuid.UUID, from Actor, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageLen {
		return nil, ValidationError{"content": "Message is too long"}
	}

	var b models.ServiceBooking
	if err := s.DB.WithContext(ctx).First(&b, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var receiver uuid.UUID
	switch {
	case from.Role == models.RoleHomeowner && b.HomeownerID == from.ID:
		receiver = b.FreelancerID
	case from.Role == models.RoleFreelancer && b.FreelancerID == from.ID:
		receiver = b.HomeownerID
	default:
		return nil, ErrForbidden
	}

	m := models.Message{
		BookingID:  b.ID,
		SenderID:   from.ID,
		ReceiverID: receiver,
		Content:    content,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}

	if s.Notify != nil {
		s.Notify.MessageSent(ctx, &m)
	}
	return &m, nil
}

// Inbox lists messages received by the user, newest first.
func (s *Service) Inbox(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	var out []models.Message
	err := s.DB.WithContext(ctx).
		Where("receiver_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Thread lists the messages of one booking, oldest first.
func (s *Service) Thread(ctx context.Context, bookingID uuid.UUID, actor Actor) ([]models.Message, error) {
	if _, err := s.Get(ctx, bookingID, actor); err != nil {
		return nil, err
	}
	var out []models.Message
	err := s.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *Service) MarkRead(ctx context.Context, bookingID, userID uuid.UUID) (int64, error) {
	now := s.Now()
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("booking_id = ? AND receiver_id = ? AND is_read = ?", bookingID, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	return res.RowsAffected, res.Error
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}
