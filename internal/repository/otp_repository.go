package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/academy-api/internal/models"
)

const otpCollection = "otps"

// OTPRepository stores verification codes that MongoDB expires on its own.
type OTPRepository struct {
	collection *mongo.Collection
}

// NewOTPRepository binds the repository to db.
func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{collection: db.Collection(otpCollection)}
}

// EnsureIndexes creates the TTL index on expires_at and the lookup index.
func (r *OTPRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "phone_number", Value: 1}, {Key: "code", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create otp indexes: %w", err)
	}
	return nil
}

// Create stores a new code. Earlier codes for the same phone stay valid until they expire.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTP) error {
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, otp); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

// Consume atomically removes an unexpired (phone, code) record. It reports
// false when none matched. The TTL monitor runs periodically, so expiry is
// checked explicitly.
func (r *OTPRepository) Consume(ctx context.Context, phone, code string, now time.Time) (bool, error) {
	filter := bson.M{"phone_number": phone, "code": code, "expires_at": bson.M{"$gt": now}}
	var otp models.OTP
	if err := r.collection.FindOneAndDelete(ctx, filter).Decode(&otp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return true, nil
}
