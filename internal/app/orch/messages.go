package orch

import (
	"encoding/json"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Frame types shared by both directions of the signaling socket.
const (
	TypeJoinRoom          = "join-room"
	TypeJoinedRoom        = "joined-room"
	TypeJoinError         = "join-error"
	TypeLeaveRoom         = "leave-room"
	TypeParticipantJoined = "participant-joined"
	TypeParticipantLeft   = "participant-left"
	TypeSignal            = "signal"
	TypeChatMessage       = "chat-message"
	TypeSyncEvent         = "sync-event"
	TypePing              = "ping"
	TypePong              = "pong"
)

// Join error codes sent alongside the human-readable message.
const (
	CodeNotAllowed    = "not-allowed"
	CodeUsernameTaken = "username-taken"
	CodeRoomFull      = "room-full"
	CodeRateLimited   = "rate-limited"
	CodeInternal      = "internal"
)

type Limits struct {
	MaxParticipants int `json:"maxParticipants"`
}

type JoinedRoom struct {
	Type         string             `json:"type"`
	SelfID       domain.ConnID      `json:"selfId"`
	Participants []domain.Member    `json:"participants"`
	Limits       Limits             `json:"limits"`
	ICEServers   []webrtc.ICEServer `json:"iceServers,omitempty"`
}

type JoinError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ParticipantEvent struct {
	Type     string        `json:"type"`
	ID       domain.ConnID `json:"id"`
	Username string        `json:"username"`
}

type SignalOut struct {
	Type string          `json:"type"`
	From domain.ConnID   `json:"from"`
	Data json.RawMessage `json:"data"`
}

type ChatOut struct {
	Type     string        `json:"type"`
	From     string        `json:"from"`
	SenderID domain.ConnID `json:"senderId"`
	Text     string        `json:"text"`
	At       int64         `json:"at"`
}
