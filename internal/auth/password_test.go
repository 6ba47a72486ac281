package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "S3cret"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret"))

	cost, err := Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPasswordCostFallback(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	require.NoError(t, err)

	cost, err := Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
	assert.True(t, NeedsRehash(hash, 0), "out of range cost means the default")
	assert.False(t, NeedsRehash("not-a-hash", bcrypt.MinCost))
}
