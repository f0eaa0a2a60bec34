package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
)

// TokenExpiry is the fixed validity window of an issued token.
const TokenExpiry = 5 * time.Hour

const timeValidationErrors = jwt.ValidationErrorExpired | jwt.ValidationErrorIssuedAt | jwt.ValidationErrorNotValidYet

// Identity is the caller asserted by a verified token.
type Identity struct {
	UserID string
	Role   model.Role
}

// Claims represents JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies tokens. Tokens are stateless: a token is valid
// exactly when its signature checks out and it has not expired.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads the current time from now.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	return &JWTService{secret: s.secret, now: now}
}

// GenerateToken issues a token for the given identity.
func (s *JWTService) GenerateToken(id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("empty user id")
	}
	issued := s.now()
	claims := &Claims{
		UserID: id.UserID,
		Role:   id.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies signature and expiry and returns the embedded identity.
// Every failure is reported as ErrInvalidToken.
func (s *JWTService) ValidateToken(tokenString string) (Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		// v4 checks time claims against the wall clock; those bits are ignored
		// here and expiry is checked below against s.now.
		if !errors.As(err, &verr) || verr.Errors&^timeValidationErrors != 0 {
			return Identity{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
		}
	} else if !token.Valid {
		return Identity{}, apperrors.ErrInvalidToken
	}

	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return Identity{}, fmt.Errorf("%w: token expired", apperrors.ErrInvalidToken)
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: missing user id", apperrors.ErrInvalidToken)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	return Identity{UserID: claims.UserID, Role: role}, nil
}
