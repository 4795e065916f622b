package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Strokes and SDP offers are
	// the largest frames.
	maxMessageSize = 64 * 1024

	sendBuffer = 256
)

// Client is one websocket connected to a room.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	roomID string
	userID string
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, roomID, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"room_id": c.roomID, "user_id": c.userID})
}

// readPump handles frames in arrival order until the connection fails.
func (c *Client) readPump() {
	defer c.closeConn()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log().WithError(err).Warn("websocket read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.hub.handle(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log().WithError(err).Debug("websocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue hands b to the write pump. It reports false when the buffer is
// full or the socket has been closed for sending.
func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// sendEnvelope queues env for this socket only.
func (c *Client) sendEnvelope(env domain.Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		return
	}
	if !c.enqueue(b) {
		c.log().Warn("client send buffer full, dropping direct message")
	}
}

func (c *Client) sendError(message string) {
	env, _ := domain.NewEnvelope(domain.TypeError, c.roomID, "", map[string]string{"message": message})
	c.sendEnvelope(env)
}

func (c *Client) sendActionError(op string, err error) {
	msg, known := clientMessage(err)
	if !known {
		c.log().WithError(err).WithField("operation", op).Error("room action failed")
	}
	c.sendError(msg)
}

// closeSend stops delivery to c. The write pump flushes what is queued,
// sends a close frame and drops the connection.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) closeConn() {
	_ = c.conn.Close()
}
