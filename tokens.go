package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken covers malformed, badly signed and expired tokens alike.
// Callers may log the underlying cause but must not expose which case it was.
var ErrInvalidToken = errors.New("invalid token")

func issueAccessToken(userID uint) (string, error) {
	return signToken(userID, accessSecret, accessTokenTTL)
}

func issueRefreshToken(userID uint) (string, error) {
	return signToken(userID, refreshSecret, refreshTokenTTL)
}

func signToken(userID uint, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// verifyToken checks signature and expiry and returns the subject user id.
func verifyToken(tokenString string, secret []byte) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, ok := claims["userId"].(float64)
	if !ok || id < 1 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
