package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenExpiry is the duration for which issued tokens are valid.
const TokenExpiry = 24 * time.Hour

// ErrInvalidToken is the single error returned for every verification
// failure: bad signature, malformed token, wrong algorithm, or expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents JWT claims carried by an issued token.
type Claims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies signed identity tokens. Tokens are
// stateless: nothing is persisted, verification is signature and expiry only.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// Issue produces a signed token embedding the user id, expiring 24 hours
// from issuance.
func (s *JWTService) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseClaims validates a token string and returns its claims.
func (s *JWTService) ParseClaims(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify validates a token string and returns the embedded user id.
func (s *JWTService) Verify(tokenString string) (uint, error) {
	claims, err := s.ParseClaims(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
