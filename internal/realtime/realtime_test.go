package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/logger"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(logger.Discard())
	go h.Run(ctx)
	return h
}

// registration is applied asynchronously by Run
func waitOnline(t *testing.T, h *Hub, user uuid.UUID, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Online(user) != n {
		if time.Now().After(deadline) {
			t.Fatalf("online = %d, want %d", h.Online(user), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHubSendToUser(t *testing.T) {
	h := startHub(t)
	user := uuid.New()
	a := &Client{ID: "a", UserID: user, Send: make(chan []byte, 4)}
	b := &Client{ID: "b", UserID: user, Send: make(chan []byte, 4)}
	other := &Client{ID: "c", UserID: uuid.New(), Send: make(chan []byte, 4)}
	h.RegisterClient(a)
	h.RegisterClient(b)
	h.RegisterClient(other)

	waitOnline(t, h, user, 2)
	waitOnline(t, h, other.UserID, 1)

	h.SendToUser(user, map[string]string{"hello": "world"})
	for _, c := range []*Client{a, b} {
		if got := string(receive(t, c)); got != `{"hello":"world"}` {
			t.Errorf("client %s got %s", c.ID, got)
		}
	}
	select {
	case msg := <-other.Send:
		t.Errorf("other user received %s", msg)
	default:
	}

	h.UnregisterClient(a)
	if _, open := <-a.Send; open {
		t.Error("send channel not closed on unregister")
	}
	if n := h.Online(user); n != 1 {
		t.Errorf("online after unregister = %d", n)
	}
}

type published struct {
	channel string
	payload []byte
}

type fakeRedis struct {
	out []published
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.out = append(f.out, published{channel: channel, payload: message.([]byte)})
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestPublisherAndBridgeDeliverBookingUpdates(t *testing.T) {
	fr := &fakeRedis{}
	pub := NewPublisher(fr, logger.Discard())
	b := &models.ServiceBooking{
		ID:           uuid.New(),
		HomeownerID:  uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.BookingAccepted,
	}
	pub.BookingChanged(context.Background(), b)

	if len(fr.out) != 2 ||
		fr.out[0].channel != "notifications:"+b.HomeownerID.String() ||
		fr.out[1].channel != "notifications:"+b.FreelancerID.String() {
		t.Fatalf("published %+v", fr.out)
	}

	h := startHub(t)
	c := &Client{ID: "ho", UserID: b.HomeownerID, Send: make(chan []byte, 1)}
	h.RegisterClient(c)
	waitOnline(t, h, b.HomeownerID, 1)

	bridge := &Bridge{Hub: h, Log: logger.Discard()}
	bridge.handle(fr.out[0].channel, string(fr.out[0].payload))

	var env Envelope
	if err := json.Unmarshal(receive(t, c), &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != TypeBookingUpdated {
		t.Errorf("type = %s", env.Type)
	}
	var data struct {
		Status models.BookingStatus `json:"status"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Status != models.BookingAccepted {
		t.Errorf("status = %s", data.Status)
	}
}

func TestBridgeDeliversSessionEvents(t *testing.T) {
	fr := &fakeRedis{}
	pub := NewPublisher(fr, logger.Discard())
	ev := session.Event{Type: session.SignedOut, SessionID: "s1", UserID: uuid.New()}
	if err := pub.PublishSessionEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if fr.out[0].channel != session.EventChannel {
		t.Fatalf("channel = %s", fr.out[0].channel)
	}

	h := startHub(t)
	c := &Client{ID: "x", UserID: ev.UserID, Send: make(chan []byte, 1)}
	h.RegisterClient(c)
	waitOnline(t, h, ev.UserID, 1)

	bridge := &Bridge{Hub: h, Log: logger.Discard()}
	bridge.handle(fr.out[0].channel, string(fr.out[0].payload))
	bridge.handle("notifications:not-a-uuid", "{}")

	var env Envelope
	if err := json.Unmarshal(receive(t, c), &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != TypeSession {
		t.Errorf("type = %s", env.Type)
	}
}

func TestWritePumpStopsOnDone(t *testing.T) {
	send := make(chan []byte, 4)
	done := make(chan struct{})
	var written [][]byte
	write := func(b []byte) error {
		written = append(written, b)
		return nil
	}

	send <- []byte("queued")
	close(done)
	if err := writePump(send, done, write); err != nil {
		t.Fatal(err)
	}
	if len(written) != 0 {
		t.Fatalf("wrote %d messages after done", len(written))
	}

	// send stays open: the pump must still return once done closes
	send2 := make(chan []byte)
	done2 := make(chan struct{})
	exited := make(chan error, 1)
	go func() { exited <- writePump(send2, done2, write) }()
	close(done2)
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("writer still running after done")
	}
}

func TestWritePumpDrainsUntilClosed(t *testing.T) {
	send := make(chan []byte, 2)
	send <- []byte("a")
	send <- []byte("b")
	close(send)

	n := 0
	if err := writePump(send, make(chan struct{}), func([]byte) error { n++; return nil }); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("wrote %d, want 2", n)
	}
}
