package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
)

const notificationPrefix = "notifications:"

func NewRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher sends booking, message and session events through Redis so every
// API instance can deliver them to its own websocket clients.
type Publisher struct {
	RDB publisher
	Log logrus.FieldLogger
}

func NewPublisher(rdb publisher, log logrus.FieldLogger) *Publisher {
	return &Publisher{RDB: rdb, Log: log}
}

func (p *Publisher) toUser(ctx context.Context, userID uuid.UUID, typ string, data any) {
	payload, err := NewEnvelope(typ, data)
	if err != nil {
		p.Log.WithError(err).Error("encode notification")
		return
	}
	if err := p.RDB.Publish(ctx, notificationPrefix+userID.String(), payload).Err(); err != nil {
		p.Log.WithError(err).WithField("user_id", userID).Warn("publish notification")
	}
}

func (p *Publisher) BookingChanged(ctx context.Context, b *models.ServiceBooking) {
	data := map[string]any{
		"booking_id":   b.ID,
		"reference":    b.Reference,
		"status":       b.Status,
		"booking_date": b.BookingDate,
		"booking_time": b.BookingTime,
	}
	p.toUser(ctx, b.HomeownerID, TypeBookingUpdated, data)
	p.toUser(ctx, b.FreelancerID, TypeBookingUpdated, data)
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) {
	p.toUser(ctx, m.ReceiverID, TypeNewMessage, m)
	p.toUser(ctx, m.SenderID, TypeNewMessage, m)
}

func (p *Publisher) PublishSessionEvent(ctx context.Context, ev session.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.RDB.Publish(ctx, session.EventChannel, b).Err()
}

// Bridge delivers Redis notifications to the local hub.
type Bridge struct {
	Hub *Hub
	RDB *redis.Client
	Log logrus.FieldLogger
}

func NewBridge(hub *Hub, rdb *redis.Client, log logrus.FieldLogger) *Bridge {
	return &Bridge{Hub: hub, RDB: rdb, Log: log}
}

// Run blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.RDB.PSubscribe(ctx, notificationPrefix+"*", session.EventChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handle(msg.Channel, msg.Payload)
		}
	}
}

func (b *Bridge) handle(channel, payload string) {
	if channel == session.EventChannel {
		var ev session.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			b.Log.WithError(err).Warn("decode session event")
			return
		}
		out, err := NewEnvelope(TypeSession, ev)
		if err != nil {
			return
		}
		b.Hub.SendRaw(ev.UserID, out)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(channel, notificationPrefix))
	if err != nil {
		b.Log.WithField("channel", channel).Warn("notification for invalid user id")
		return
	}
	b.Hub.SendRaw(id, []byte(payload))
}
