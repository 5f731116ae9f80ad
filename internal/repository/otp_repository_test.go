package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/noah-isme/academy-api/internal/models"
)

func TestOTPRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		repo := NewOTPRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		otp := &models.OTP{PhoneNumber: "1234567890", Code: "000111", ExpiresAt: time.Now().Add(3 * time.Minute)}
		require.NoError(mt, repo.Create(context.Background(), otp))
		assert.False(mt, otp.CreatedAt.IsZero())
	})

	mt.Run("consume match", func(mt *mtest.T) {
		repo := NewOTPRepository(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "phone_number", Value: "1234567890"}, {Key: "code", Value: "000111"}}},
		})

		ok, err := repo.Consume(context.Background(), "1234567890", "000111", time.Now())
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("consume miss", func(mt *mtest.T) {
		repo := NewOTPRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		ok, err := repo.Consume(context.Background(), "1234567890", "999999", time.Now())
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}
