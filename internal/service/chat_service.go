package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/repository"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/websocket"
)

type chatRepository interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoom(ctx context.Context, id primitive.ObjectID) (*models.ChatRoom, error)
	AddMember(ctx context.Context, id primitive.ObjectID, userID string) error
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	InsertMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, roomID primitive.ObjectID, query models.MessageQuery) ([]models.ChatMessage, error)
}

type chatUserRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type roomBroadcaster interface {
	Broadcast(roomID string, msg websocket.Outbound)
	JoinUsers(roomID, academyID string, userIDs []string)
}

// ChatService handles websocket chat events and the REST history endpoints.
type ChatService struct {
	chats     chatRepository
	users     chatUserRepository
	hub       roomBroadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(chats chatRepository, users chatUserRepository, hub roomBroadcaster, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ChatService{chats: chats, users: users, hub: hub, validator: validate, logger: logger}
}

// HandleEvent dispatches one websocket event. Failures are reported to the
// sending client only.
func (s *ChatService) HandleEvent(ctx context.Context, client *websocket.Client, evt websocket.Event) {
	var err error
	switch evt.Type {
	case models.ChatEventCreateRoom:
		err = s.createRoom(ctx, client, evt)
	case models.ChatEventJoinRoom:
		err = s.joinRoom(ctx, client, evt)
	case models.ChatEventSendMessage:
		err = s.sendMessage(ctx, client, evt)
	case models.ChatEventGetMessages:
		err = s.getMessages(ctx, client, evt)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "unknown event type")
	}
	if err == nil {
		return
	}

	message := "internal error"
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status < 500 {
		message = appErr.Message
	} else {
		s.logger.Error("chat event failed", zap.String("type", evt.Type), zap.String("user_id", client.UserID), zap.Error(err))
	}
	client.Send(websocket.Outbound{Type: models.ChatEventError, RoomID: evt.RoomID, Error: message})
}

func (s *ChatService) createRoom(ctx context.Context, client *websocket.Client, evt websocket.Event) error {
	var payload models.CreateRoomPayload
	if err := decodeEventData(evt, &payload); err != nil {
		return err
	}
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if client.AcademyID == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "academy access denied")
	}

	members := unique(append([]string{client.UserID}, payload.Members...))
	users, err := s.users.FindByIDs(ctx, members)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load members")
	}
	if len(users) != len(members) {
		return appErrors.Clone(appErrors.ErrNotFound, "member not found")
	}
	for i := range users {
		if !users[i].BelongsTo(client.AcademyID) {
			return appErrors.Clone(appErrors.ErrForbidden, "members must belong to the academy")
		}
	}

	room := &models.ChatRoom{AcademyID: client.AcademyID, Name: payload.Name, Members: members}
	if err := s.chats.CreateRoom(ctx, room); err != nil {
		return err
	}
	roomID := room.ID.Hex()
	// Members connected right now are subscribed with the creator; the rest
	// join the room when they next send join_room.
	s.hub.JoinUsers(roomID, client.AcademyID, members)
	s.hub.Broadcast(roomID, websocket.Outbound{Type: models.ChatEventCreateRoom, RoomID: roomID, Data: room})
	return nil
}

func (s *ChatService) joinRoom(ctx context.Context, client *websocket.Client, evt websocket.Event) error {
	room, err := s.room(ctx, evt.RoomID)
	if err != nil {
		return err
	}
	if room.AcademyID != client.AcademyID {
		return appErrors.Clone(appErrors.ErrForbidden, "academy access denied")
	}
	if !room.HasMember(client.UserID) {
		if err := s.chats.AddMember(ctx, room.ID, client.UserID); err != nil {
			if errors.Is(err, repository.ErrDocumentNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "room not found")
			}
			return err
		}
	}
	client.Join(evt.RoomID)
	s.hub.Broadcast(evt.RoomID, websocket.Outbound{
		Type:   models.ChatEventJoinRoom,
		RoomID: evt.RoomID,
		Data:   map[string]string{"user_id": client.UserID},
	})
	return nil
}

func (s *ChatService) sendMessage(ctx context.Context, client *websocket.Client, evt websocket.Event) error {
	var payload models.SendMessagePayload
	if err := decodeEventData(evt, &payload); err != nil {
		return err
	}
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message")
	}
	room, err := s.memberRoom(ctx, client.UserID, evt.RoomID)
	if err != nil {
		return err
	}
	msg := &models.ChatMessage{RoomID: room.ID, Sender: client.UserID, Text: payload.Text}
	if err := s.chats.InsertMessage(ctx, msg); err != nil {
		return err
	}
	client.Join(evt.RoomID)
	s.hub.Broadcast(evt.RoomID, websocket.Outbound{Type: models.ChatEventSendMessage, RoomID: evt.RoomID, Data: msg})
	return nil
}

func (s *ChatService) getMessages(ctx context.Context, client *websocket.Client, evt websocket.Event) error {
	var query models.MessageQuery
	if len(evt.Data) > 0 {
		if err := decodeEventData(evt, &query); err != nil {
			return err
		}
	}
	room, err := s.memberRoom(ctx, client.UserID, evt.RoomID)
	if err != nil {
		return err
	}
	messages, err := s.chats.ListMessages(ctx, room.ID, query)
	if err != nil {
		return err
	}
	client.Send(websocket.Outbound{Type: models.ChatEventGetMessages, RoomID: evt.RoomID, Data: messages})
	return nil
}

// Rooms lists the rooms the actor belongs to.
func (s *ChatService) Rooms(ctx context.Context, actor *models.JWTClaims) ([]models.ChatRoom, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rooms, err := s.chats.ListRoomsForUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// Messages pages through a room's history for one of its members.
func (s *ChatService) Messages(ctx context.Context, actor *models.JWTClaims, roomID string, query models.MessageQuery) ([]models.ChatMessage, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	room, err := s.memberRoom(ctx, actor.UserID, roomID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chats.ListMessages(ctx, room.ID, query)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

func (s *ChatService) memberRoom(ctx context.Context, userID, roomID string) (*models.ChatRoom, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a room member")
	}
	return room, nil
}

func (s *ChatService) room(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	id, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	room, err := s.chats.FindRoom(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

func decodeEventData(evt websocket.Event, dest interface{}) error {
	if err := json.Unmarshal(evt.Data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event data")
	}
	return nil
}
