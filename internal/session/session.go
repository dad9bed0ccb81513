// Package session holds the signed-in user's session. A session is created on
// sign-in, looked up on every authenticated request and destroyed on sign-out.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/utils"
)

const (
	CookieName   = "hs_token"
	EventChannel = "session:events"

	localsKey = "session"
)

var (
	ErrNotFound = errors.New("session not found or expired")
	ErrInvalid  = errors.New("invalid session token")
)

type Session struct {
	ID        string      `json:"session_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Role      models.Role `json:"role"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	At        time.Time `json:"at"`
}

// EventPublisher fans session changes out to subscribers.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, ev Event) error
}

type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	Store      Store
	Events     EventPublisher // optional
	Log        logrus.FieldLogger
	Secret     string
	ExpiresMin int
}

func NewManager(store Store, events EventPublisher, log logrus.FieldLogger, secret string, expiresMin int) *Manager {
	return &Manager{Store: store, Events: events, Log: log, Secret: secret, ExpiresMin: expiresMin}
}

func (m *Manager) ttl() time.Duration {
	return time.Duration(m.ExpiresMin) * time.Minute
}

// Init starts a session for u and returns it with its signed token.
func (m *Manager) Init(ctx context.Context, u *models.User) (*Session, string, error) {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Role:      u.Role,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl()),
	}

	token, err := utils.SignJWT(m.Secret, u.ID.String(), string(u.Role), s.ID, m.ExpiresMin)
	if err != nil {
		return nil, "", err
	}
	if err := m.Store.Save(ctx, s, m.ttl()); err != nil {
		return nil, "", err
	}

	m.publish(ctx, Event{Type: SignedIn, SessionID: s.ID, UserID: s.UserID, At: now})
	return s, token, nil
}

// Current resolves a token to its live session.
func (m *Manager) Current(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalid
	}
	claims, err := utils.ParseJWT(m.Secret, token)
	if err != nil || claims.SessionID == "" {
		return nil, ErrInvalid
	}

	s, err := m.Store.Load(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID.String() != claims.UserID {
		return nil, ErrInvalid
	}
	return s, nil
}

// Teardown ends the session. Ending a session that is already gone is not an error.
func (m *Manager) Teardown(ctx context.Context, s *Session) error {
	if err := m.Store.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	m.publish(ctx, Event{Type: SignedOut, SessionID: s.ID, UserID: s.UserID, At: time.Now()})
	return nil
}

func (m *Manager) publish(ctx context.Context, ev Event) {
	if m.Events == nil {
		return
	}
	if err := m.Events.PublishSessionEvent(ctx, ev); err != nil {
		m.Log.WithError(err).WithField("event", ev.Type).Warn("publish session event")
	}
}

// Attach stores s on the request.
func Attach(c *fiber.Ctx, s *Session) {
	c.Locals(localsKey, s)
	c.Locals("userId", s.UserID.String())
	c.Locals("role", string(s.Role))
}

// From returns the session attached to the request, or nil.
func From(c *fiber.Ctx) *Session {
	s, _ := c.Locals(localsKey).(*Session)
	return s
}
