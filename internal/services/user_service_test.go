package services

import (
	"context"
	"testing"

	"tenderledger/internal/amqp"
	"tenderledger/internal/auth"
	"tenderledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	repo := newTestRepo(t)
	publisher := &recordingPublisher{}
	service := NewUserService(repo, publisher, nil, bcrypt.MinCost)
	ctx := context.Background()

	user, err := service.Register(ctx, "  dana ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "dana", user.Username)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	got, err := service.Authenticate(ctx, "dana", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = service.Authenticate(ctx, "dana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Authenticate(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Register(ctx, "dana", "other")
	assert.ErrorIs(t, err, storage.ErrDuplicateUser)

	assert.Equal(t, []amqp.EventKind{amqp.EventUserRegistered}, publisher.kinds())
}

func TestUserService_RegisterValidation(t *testing.T) {
	service := NewUserService(nil, nil, nil, bcrypt.MinCost)
	ctx := context.Background()

	_, err := service.Register(ctx, "   ", "pw")
	assert.ErrorIs(t, err, ErrEmptyUsername)
	_, err = service.Register(ctx, "erin", " ")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := newTestRepo(t)
	service := NewUserService(repo, nil, nil, bcrypt.MinCost)
	ctx := context.Background()

	_, err := service.Register(ctx, "frank", "old")
	require.NoError(t, err)

	assert.ErrorIs(t, service.ChangePassword(ctx, "frank", "bad", "new"), ErrInvalidCredentials)
	assert.ErrorIs(t, service.ChangePassword(ctx, "frank", "old", ""), ErrWeakPassword)
	require.NoError(t, service.ChangePassword(ctx, "frank", "old", "new"))

	_, err = service.Authenticate(ctx, "frank", "old")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Authenticate(ctx, "frank", "new")
	assert.NoError(t, err)
}

func TestUserService_AuthenticateRehashesOnCostChange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := NewUserService(repo, nil, nil, bcrypt.MinCost).Register(ctx, "gina", "pw")
	require.NoError(t, err)

	stronger := NewUserService(repo, nil, nil, bcrypt.MinCost+1)
	user, err := stronger.Authenticate(ctx, "gina", "pw")
	require.NoError(t, err)

	stored, err := repo.GetUserByUsername(ctx, "gina")
	require.NoError(t, err)
	cost, err := auth.Cost(stored.PasswordHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	assert.Equal(t, stored.PasswordHash, user.PasswordHash)

	_, err = stronger.Authenticate(ctx, "gina", "pw")
	require.NoError(t, err)
}
