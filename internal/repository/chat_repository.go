package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/academy-api/internal/models"
)

const (
	chatRoomCollection    = "chat_rooms"
	chatMessageCollection = "chat_messages"
	defaultMessagePage    = 50
	maxMessagePage        = 200
)

// ErrDocumentNotFound is returned by document store lookups that match nothing.
var ErrDocumentNotFound = errors.New("document not found")

// ChatRepository stores chat rooms and messages in MongoDB.
type ChatRepository struct {
	rooms    *mongo.Collection
	messages *mongo.Collection
}

// NewChatRepository binds the repository to db.
func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{rooms: db.Collection(chatRoomCollection), messages: db.Collection(chatMessageCollection)}
}

// EnsureIndexes creates the lookup indexes used by room and history queries.
func (r *ChatRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.rooms.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "members", Value: 1}}}); err != nil {
		return fmt.Errorf("create chat room index: %w", err)
	}
	if _, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}}}); err != nil {
		return fmt.Errorf("create chat message index: %w", err)
	}
	return nil
}

// CreateRoom inserts a room and fills its id.
func (r *ChatRepository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	room.ID = primitive.NewObjectID()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	if _, err := r.rooms.InsertOne(ctx, room); err != nil {
		return fmt.Errorf("insert chat room: %w", err)
	}
	return nil
}

// FindRoom loads a room by id.
func (r *ChatRepository) FindRoom(ctx context.Context, id primitive.ObjectID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find chat room: %w", err)
	}
	return &room, nil
}

// AddMember adds userID to the room's members when absent.
func (r *ChatRepository) AddMember(ctx context.Context, id primitive.ObjectID, userID string) error {
	result, err := r.rooms.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		return fmt.Errorf("add chat room member: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// ListRoomsForUser returns the rooms userID belongs to, newest first.
func (r *ChatRepository) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.rooms.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	rooms := []models.ChatRoom{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode chat rooms: %w", err)
	}
	return rooms, nil
}

// InsertMessage stores a message and fills its id.
func (r *ChatRepository) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListMessages returns up to query.Limit messages older than query.Before in
// chronological order.
func (r *ChatRepository) ListMessages(ctx context.Context, roomID primitive.ObjectID, query models.MessageQuery) ([]models.ChatMessage, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}
	filter := bson.M{"room_id": roomID}
	if query.Before != nil {
		filter["created_at"] = bson.M{"$lt": *query.Before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
