package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	p := Principal{UserID: uuid.New(), Email: "user@example.com", Role: "user"}

	token, err := svc.Sign(p)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, got.UserID)
	assert.Equal(t, p.Email, got.Email)
	assert.Equal(t, p.Role, got.Role)
}

func TestTokenVerifyExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)
	token, err := svc.Sign(Principal{UserID: uuid.New(), Email: "user@example.com", Role: "user"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	signer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := signer.Sign(Principal{UserID: uuid.New(), Email: "user@example.com", Role: "user"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPrincipalCanAccess(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	user := Principal{UserID: owner, Role: "user"}
	assert.True(t, user.CanAccess(owner))
	assert.False(t, user.CanAccess(other))

	admin := Principal{UserID: uuid.New(), Role: "admin"}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CanAccess(owner))
	assert.True(t, admin.CanAccess(other))
}
