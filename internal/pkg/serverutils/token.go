package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// BearerToken strips the "Bearer " prefix; any other header yields "".
func BearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// ParseAccountToken verifies an HS256 token and returns the account id it names.
// The id is read from the "uuid" claim, falling back to "user_id".
func ParseAccountToken(tokenStr, secret string) (uuid.UUID, error) {
	if tokenStr == "" || secret == "" {
		return uuid.Nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	raw, _ := claims["uuid"].(string)
	if raw == "" {
		raw, _ = claims["user_id"].(string)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: account claim", ErrInvalidToken)
	}
	return id, nil
}
