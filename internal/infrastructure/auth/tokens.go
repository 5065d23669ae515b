package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"haulhub/internal/domain/entity"
	"haulhub/pkg/errors"
)

// TokenManager mints and verifies the HS256 session tokens the broker and
// its clients exchange. The token only identifies the actor; authorization
// decisions stay in the handlers.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (tm *TokenManager) Mint(actor entity.Actor) (string, error) {
	if !actor.Role.Valid() {
		return "", errors.Validation("invalid actor role")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": string(actor.Role),
		"uid":  actor.ID,
		"name": actor.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(tm.ttl).Unix(),
	})
	return token.SignedString(tm.secret)
}

func (tm *TokenManager) Verify(tokenString string) (entity.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return entity.Actor{}, errors.Forbidden("invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Actor{}, errors.Forbidden("invalid token claims", nil)
	}

	role, _ := claims["role"].(string)
	uid, _ := claims["uid"].(float64)
	name, _ := claims["name"].(string)

	actor := entity.Actor{Role: entity.Role(role), ID: int64(uid), Name: name}
	if !actor.Role.Valid() || actor.ID == 0 {
		return entity.Actor{}, errors.Forbidden("invalid token claims", nil)
	}
	return actor, nil
}
