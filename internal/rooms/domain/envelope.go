package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Realtime message types.
const (
	TypeChat         = "chat"
	TypeStroke       = "stroke"
	TypeClear        = "clear"
	TypeSignalOffer  = "signal.offer"
	TypeSignalAnswer = "signal.answer"
	TypeSignalICE    = "signal.ice"
	TypeScreenStart  = "screen.start"
	TypeScreenStop   = "screen.stop"
	TypeMediaState   = "media.state"

	TypePresenceState = "presence.state"
	TypePresenceJoin  = "presence.join"
	TypePresenceLeave = "presence.leave"
	TypeMemberRemoved = "member.removed"
	TypeRoomClosed    = "room.closed"
	TypeError         = "error"
)

// Envelope is the frame exchanged over a room socket.
type Envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id"`
	From    string          `json:"from"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// IsSignal reports whether t is a WebRTC signaling type addressed to one peer.
func IsSignal(t string) bool {
	return strings.HasPrefix(t, "signal.")
}

// ClientTypes lists the types a client may send.
var ClientTypes = map[string]bool{
	TypeChat:         true,
	TypeStroke:       true,
	TypeClear:        true,
	TypeSignalOffer:  true,
	TypeSignalAnswer: true,
	TypeSignalICE:    true,
	TypeScreenStart:  true,
	TypeScreenStop:   true,
	TypeMediaState:   true,
}

func NewEnvelope(typ, roomID, from string, payload any) (Envelope, error) {
	env := Envelope{Type: typ, RoomID: roomID, From: from, SentAt: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return env, err
		}
		env.Payload = raw
	}
	return env, nil
}
