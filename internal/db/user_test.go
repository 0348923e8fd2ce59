package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoUserCollection_InsertUser(t *testing.T) {
	collection := testDatabase(t).Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	user := models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleAdmin,
	}

	err := userCollection.InsertUser(context.Background(), user)
	assert.NoError(t, err)

	// Verify user was inserted
	var foundUser models.User
	err = collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&foundUser)
	assert.NoError(t, err)
	assert.Equal(t, user.Username, foundUser.Username)
	assert.Equal(t, user.Email, foundUser.Email)
	assert.Equal(t, user.Role, foundUser.Role)
	assert.True(t, foundUser.IsActive)
	assert.NotZero(t, foundUser.CreatedAt)
	assert.NotZero(t, foundUser.UpdatedAt)
}

func TestMongoUserCollection_FindUserByUsername(t *testing.T) {
	collection := testDatabase(t).Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	err := userCollection.InsertUser(context.Background(), models.User{
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		Role:         models.RoleOperator,
	})
	require.NoError(t, err)

	found, err := userCollection.FindUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, found.Role)

	_, err = userCollection.FindUserByUsername(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMongoUserCollection_UpdateLastLogin(t *testing.T) {
	collection := testDatabase(t).Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	err := userCollection.InsertUser(context.Background(), models.User{Username: "testuser", PasswordHash: "x", Role: models.RoleViewer})
	require.NoError(t, err)
	found, err := userCollection.FindUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Nil(t, found.LastLogin)

	require.NoError(t, userCollection.UpdateLastLogin(context.Background(), found.ID.Hex()))

	found, err = userCollection.FindUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.NotNil(t, found.LastLogin)

	assert.Error(t, userCollection.UpdateLastLogin(context.Background(), "invalid-id"))
}
