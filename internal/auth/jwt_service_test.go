package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateToken(Identity{UserID: "0190f5a2-0000-7000-8000-000000000001", Role: model.RoleAdmin})
	require.NoError(t, err)

	id, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0190f5a2-0000-7000-8000-000000000001", id.UserID)
	assert.Equal(t, model.RoleAdmin, id.Role)
}

func TestJWTService_Expiry(t *testing.T) {
	issued := time.Now()
	svc := NewJWTService("test-secret").WithClock(func() time.Time { return issued })

	token, err := svc.GenerateToken(Identity{UserID: "u1", Role: model.RoleUser})
	require.NoError(t, err)

	_, err = svc.WithClock(func() time.Time { return issued.Add(TokenExpiry - time.Minute) }).ValidateToken(token)
	assert.NoError(t, err)

	_, err = svc.WithClock(func() time.Time { return issued.Add(TokenExpiry) }).ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret")
	valid, err := svc.GenerateToken(Identity{UserID: "u1", Role: model.RoleUser})
	require.NoError(t, err)

	forged, err := NewJWTService("other-secret").GenerateToken(Identity{UserID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u1",
		Role:   "root",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u1", Role: "User"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": forged,
		"garbage":      "not-a-token",
		"tampered":     valid + "x",
		"unknown role": badRole,
		"no expiry":    noExpiry,
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}

func TestJWTService_GenerateRequiresUser(t *testing.T) {
	_, err := NewJWTService("test-secret").GenerateToken(Identity{Role: model.RoleUser})
	assert.Error(t, err)
}
