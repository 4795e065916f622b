package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

const (
	channelPrefix  = "room:events:"
	presencePrefix = "room:presence:"
	presenceTTL    = 24 * time.Hour

	// actionTimeout bounds the persistence call made for one inbound frame.
	actionTimeout = 5 * time.Second
)

// RoomActions persists the frames that change room state.
type RoomActions interface {
	PostMessage(ctx context.Context, userID, roomID, body string) (*domain.Message, error)
	AppendStroke(ctx context.Context, userID, roomID string, data json.RawMessage) (*domain.Stroke, error)
	ClearWhiteboard(ctx context.Context, userID, roomID string) (int64, error)
}

// busMessage is what travels over Redis. Exclude names a connection that
// must not receive the envelope. Evict names a user whose sockets receive
// the envelope and are then closed; evictAll closes every socket in the room.
type busMessage struct {
	Envelope domain.Envelope `json:"envelope"`
	Exclude  string          `json:"exclude,omitempty"`
	Evict    string          `json:"evict,omitempty"`
}

const evictAll = "*"

// Hub tracks the sockets connected to this instance and relays room events
// through Redis so every instance sees them.
type Hub struct {
	rdb     *redis.Client
	actions RoomActions

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	pubsub *redis.PubSub
	done   chan struct{}
}

func NewHub(rdb *redis.Client, actions RoomActions) *Hub {
	if rdb == nil {
		panic("redis client cannot be nil for Hub")
	}
	return &Hub{
		rdb:     rdb,
		actions: actions,
		rooms:   make(map[string]map[*Client]bool),
		done:    make(chan struct{}),
	}
}

// Start subscribes to every room channel and begins delivering events. It
// returns once the subscription is confirmed.
func (h *Hub) Start(ctx context.Context) error {
	ps := h.rdb.PSubscribe(ctx, channelPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}
	h.pubsub = ps

	go h.run(ps.Channel())
	logrus.WithField("component", "hub").Info("room hub is running")
	return nil
}

func (h *Hub) run(ch <-chan *redis.Message) {
	defer close(h.done)
	log := logrus.WithField("component", "hub")

	for msg := range ch {
		var bm busMessage
		if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
			log.WithError(err).Warn("dropping malformed bus message")
			continue
		}
		roomID := strings.TrimPrefix(msg.Channel, channelPrefix)
		if bm.Envelope.RoomID != roomID {
			log.WithField("channel", msg.Channel).Warn("envelope room does not match channel")
			continue
		}
		if bm.Evict != "" {
			h.evict(bm)
			continue
		}
		h.deliver(bm)
	}
	log.Info("room hub stopped")
}

// Close stops the subscription and disconnects every local socket.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done

	h.mu.RLock()
	for _, clients := range h.rooms {
		for c := range clients {
			c.closeConn()
		}
	}
	h.mu.RUnlock()
	return err
}

// Publish fans env out to every instance. excludeConn may be empty.
func (h *Hub) Publish(ctx context.Context, env domain.Envelope, excludeConn string) error {
	if env.SentAt.IsZero() {
		env.SentAt = time.Now().UTC()
	}
	return h.publishBus(ctx, busMessage{Envelope: env, Exclude: excludeConn})
}

func (h *Hub) publishBus(ctx context.Context, bm busMessage) error {
	b, err := json.Marshal(bm)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, channelPrefix+bm.Envelope.RoomID, b).Err()
}

// Evict tells userID's sockets in the room, on every instance, that they
// were removed, then closes them.
func (h *Hub) Evict(ctx context.Context, roomID, userID string) error {
	env, err := domain.NewEnvelope(domain.TypeMemberRemoved, roomID, "", map[string]string{"user_id": userID})
	if err != nil {
		return err
	}
	return h.publishBus(ctx, busMessage{Envelope: env, Evict: userID})
}

// CloseRoom tells every socket in the room that it was deleted, then closes
// them.
func (h *Hub) CloseRoom(ctx context.Context, roomID string) error {
	env, err := domain.NewEnvelope(domain.TypeRoomClosed, roomID, "", nil)
	if err != nil {
		return err
	}
	return h.publishBus(ctx, busMessage{Envelope: env, Evict: evictAll})
}

// Serve registers conn as a member socket and blocks until it disconnects.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, roomID, userID string) {
	c := newClient(h, conn, roomID, userID)
	h.register(ctx, c)
	go c.writePump()
	c.readPump()
	h.unregister(c)
}

// Online returns the users with at least one socket open in the room.
func (h *Hub) Online(ctx context.Context, roomID string) ([]string, error) {
	counts, err := h.rdb.HGetAll(ctx, presencePrefix+roomID).Result()
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(counts))
	for uid, n := range counts {
		if n != "0" {
			users = append(users, uid)
		}
	}
	return users, nil
}

func (h *Hub) register(ctx context.Context, c *Client) {
	log := logrus.WithFields(logrus.Fields{"room_id": c.roomID, "user_id": c.userID})

	h.mu.Lock()
	if _, ok := h.rooms[c.roomID]; !ok {
		h.rooms[c.roomID] = make(map[*Client]bool)
	}
	h.rooms[c.roomID][c] = true
	h.mu.Unlock()

	key := presencePrefix + c.roomID
	var incr *redis.IntCmd
	_, err := h.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, key, c.userID, 1)
		p.Expire(ctx, key, presenceTTL)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("presence update failed")
	} else if incr.Val() == 1 {
		h.publishPresence(ctx, domain.TypePresenceJoin, c, c.id)
	}

	users, err := h.Online(ctx, c.roomID)
	if err != nil {
		log.WithError(err).Warn("presence lookup failed")
		users = []string{c.userID}
	}
	env, _ := domain.NewEnvelope(domain.TypePresenceState, c.roomID, "", map[string]any{"users": users})
	c.sendEnvelope(env)
	log.Info("socket joined room")
}

func (h *Hub) unregister(c *Client) {
	log := logrus.WithFields(logrus.Fields{"room_id": c.roomID, "user_id": c.userID})

	h.mu.Lock()
	if clients, ok := h.rooms[c.roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	h.mu.Unlock()
	c.closeSend()

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	key := presencePrefix + c.roomID
	n, err := h.rdb.HIncrBy(ctx, key, c.userID, -1).Result()
	if err != nil {
		log.WithError(err).Warn("presence update failed")
		return
	}
	if n <= 0 {
		h.rdb.HDel(ctx, key, c.userID)
		h.publishPresence(ctx, domain.TypePresenceLeave, c, "")
	}
	log.Info("socket left room")
}

func (h *Hub) publishPresence(ctx context.Context, typ string, c *Client, exclude string) {
	env, _ := domain.NewEnvelope(typ, c.roomID, c.userID, map[string]string{"user_id": c.userID})
	if err := h.Publish(ctx, env, exclude); err != nil {
		logrus.WithError(err).WithField("room_id", c.roomID).Warn("presence publish failed")
	}
}

// deliver hands bm to the matching local sockets without blocking on any of
// them.
func (h *Hub) deliver(bm busMessage) {
	b, err := json.Marshal(bm.Envelope)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[bm.Envelope.RoomID] {
		if c.id == bm.Exclude {
			continue
		}
		if bm.Envelope.To != "" && c.userID != bm.Envelope.To {
			continue
		}
		if !c.enqueue(b) {
			logrus.WithFields(logrus.Fields{
				"room_id": c.roomID,
				"user_id": c.userID,
			}).Warn("client send buffer full, dropping event")
		}
	}
}

// evict sends bm's envelope to the targeted local sockets and closes them.
// They leave the room map at once so nothing else is delivered to them;
// presence is settled when their pumps exit.
func (h *Hub) evict(bm busMessage) {
	b, err := json.Marshal(bm.Envelope)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	roomID := bm.Envelope.RoomID
	clients := h.rooms[roomID]
	for c := range clients {
		if bm.Evict != evictAll && c.userID != bm.Evict {
			continue
		}
		delete(clients, c)
		c.enqueue(b)
		c.closeSend()
		c.log().Info("socket evicted from room")
	}
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// handle processes one inbound frame from c.
func (h *Hub) handle(c *Client, raw []byte) {
	var in domain.Envelope
	if err := json.Unmarshal(raw, &in); err != nil {
		c.sendError("malformed message")
		return
	}
	if !domain.ClientTypes[in.Type] {
		c.sendError("unsupported message type")
		return
	}

	out := domain.Envelope{
		Type:    in.Type,
		RoomID:  c.roomID,
		From:    c.userID,
		Payload: in.Payload,
		SentAt:  time.Now().UTC(),
	}
	exclude := c.id

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch {
	case in.Type == domain.TypeChat:
		var p struct {
			Body string `json:"body"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			c.sendError(domain.ErrInvalidMessage.Error())
			return
		}
		msg, err := h.actions.PostMessage(ctx, c.userID, c.roomID, p.Body)
		if err != nil {
			c.sendActionError("chat", err)
			return
		}
		out.Payload, _ = json.Marshal(msg)
		exclude = ""

	case in.Type == domain.TypeStroke:
		stroke, err := h.actions.AppendStroke(ctx, c.userID, c.roomID, in.Payload)
		if err != nil {
			c.sendActionError("stroke", err)
			return
		}
		out.Payload, _ = json.Marshal(stroke)

	case in.Type == domain.TypeClear:
		version, err := h.actions.ClearWhiteboard(ctx, c.userID, c.roomID)
		if err != nil {
			c.sendActionError("clear", err)
			return
		}
		out.Payload, _ = json.Marshal(map[string]int64{"version": version})

	case domain.IsSignal(in.Type):
		if in.To == "" {
			c.sendError("signal requires a recipient")
			return
		}
		out.To = in.To
	}

	if err := h.Publish(ctx, out, exclude); err != nil {
		logrus.WithError(err).WithField("room_id", c.roomID).Error("room publish failed")
		c.sendError("internal error")
	}
}

// clientMessage converts an action error into text safe for the client.
func clientMessage(err error) (string, bool) {
	for _, known := range []error{
		domain.ErrInvalidMessage,
		domain.ErrInvalidStroke,
		domain.ErrForbidden,
		domain.ErrNotMember,
		domain.ErrRoomNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error(), true
		}
	}
	return "internal error", false
}
