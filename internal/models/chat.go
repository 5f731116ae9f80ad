package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat event types exchanged over the websocket.
const (
	ChatEventCreateRoom  = "create_room"
	ChatEventJoinRoom    = "join_room"
	ChatEventSendMessage = "send_message"
	ChatEventGetMessages = "get_messages"
	ChatEventError       = "error"
)

// ChatRoom is a conversation between members of one academy.
type ChatRoom struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AcademyID string             `bson:"academy_id" json:"academy_id"`
	Name      string             `bson:"name" json:"name"`
	Members   []string           `bson:"members" json:"members"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// HasMember reports whether userID belongs to the room.
func (r *ChatRoom) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ChatMessage is one message posted to a room.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID    primitive.ObjectID `bson:"room_id" json:"room_id"`
	Sender    string             `bson:"sender" json:"sender"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// CreateRoomPayload is the body of a create_room event.
type CreateRoomPayload struct {
	Name    string   `json:"name" validate:"required,max=100"`
	Members []string `json:"members" validate:"required,min=1,dive,required"`
}

// SendMessagePayload is the body of a send_message event.
type SendMessagePayload struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// MessageQuery pages backwards through a room's history.
type MessageQuery struct {
	Before *time.Time `json:"before,omitempty"`
	Limit  int        `json:"limit,omitempty"`
}
