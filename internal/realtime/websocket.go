// internal/realtime/websocket.go
package realtime

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebSocketConn wraps websocket.Conn so the hub does not depend on it.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// ServeWS registers the connection for the user the session middleware put in
// locals and pumps hub messages to it until either side closes.
func ServeWS(hub *Hub, log logrus.FieldLogger) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		uid, _ := c.Locals("userId").(string)
		userID, err := uuid.Parse(uid)
		if err != nil {
			log.WithField("user_id", uid).Warn("websocket without a valid session")
			_ = c.Close()
			return
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: userID,
			Conn:   NewWebSocketConn(c),
			Send:   make(chan []byte, 256),
		}
		hub.RegisterClient(client)
		defer hub.UnregisterClient(client)

		// the conn is released once this handler returns, so the writer must
		// have exited by then
		done := make(chan struct{})
		writerDone := make(chan struct{})
		defer func() {
			close(done)
			<-writerDone
		}()

		go func() {
			defer close(writerDone)
			err := writePump(client.Send, done, func(msg []byte) error {
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				return c.WriteMessage(websocket.TextMessage, msg)
			})
			if err != nil {
				log.WithError(err).WithField("user_id", userID).Debug("websocket write")
			}
		}()

		// reads only keep the connection alive; clients send pings
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}

const writeWait = 10 * time.Second

// writePump writes messages from send until send is closed, done is closed or a
// write fails. Nothing is written once done is closed.
func writePump(send <-chan []byte, done <-chan struct{}, write func([]byte) error) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}

		select {
		case <-done:
			return nil
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := write(msg); err != nil {
				return err
			}
		}
	}
}
