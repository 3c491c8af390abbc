package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quitjourney/quitjourney/config"
)

// Token kinds carried in the claims so a refresh token can never be used as an access token.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short-lived JWT for the specified user identity.
func GenerateAccessToken(userID uint, email string) (string, error) {
	cfg := config.Get()
	return signToken(userID, email, TokenKindAccess, time.Duration(cfg.AccessTokenTTLMin)*time.Minute)
}

// GenerateRefreshToken issues a long-lived JWT whose jti allows individual revocation.
func GenerateRefreshToken(userID uint, email string) (string, error) {
	cfg := config.Get()
	return signToken(userID, email, TokenKindRefresh, time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour)
}

func signToken(userID uint, email, kind string, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
