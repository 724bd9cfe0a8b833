package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ajo/internal/auth"
)

func TestManager_RoundTrip(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)
	user := uuid.New()

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.UserID)
	assert.Equal(t, user.String(), claims.Subject)
}

func TestManager_Validate_Rejects(t *testing.T) {
	user := uuid.New()

	otherKey, err := auth.NewManager("other", time.Hour).Generate(user)
	require.NoError(t, err)

	expired, err := auth.NewManager("secret", -time.Minute).Generate(user)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{UserID: user}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	m := auth.NewManager("secret", time.Hour)

	for name, token := range map[string]string{
		"garbage":   "not-a-token",
		"other key": otherKey,
		"expired":   expired,
		"alg none":  none,
		"no user":   noUser,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestUserContext(t *testing.T) {
	_, ok := auth.UserFrom(context.Background())
	assert.False(t, ok)

	user := uuid.New()
	got, ok := auth.UserFrom(auth.WithUser(context.Background(), user))
	assert.True(t, ok)
	assert.Equal(t, user, got)
}
