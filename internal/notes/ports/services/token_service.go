// Package services defines service interfaces for the notes service.
package services

import (
	"context"
	"errors"
	"fmt"
)

// Audience - класс получателя токена.
type Audience string

// Допустимые аудитории.
const (
	AudienceUser  Audience = "User"
	AudienceAdmin Audience = "Admin"
)

// ErrUnknownAudience возвращается для аудитории вне набора.
var ErrUnknownAudience = errors.New("unknown audience")

// Valid сообщает, входит ли аудитория в набор.
func (a Audience) Valid() bool {
	return a == AudienceUser || a == AudienceAdmin
}

// ParseAudience разбирает каноническое имя аудитории.
func ParseAudience(s string) (Audience, error) {
	a := Audience(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAudience, s)
	}
	return a, nil
}

// Principal - проверенный владелец токена.
type Principal struct {
	Subject  string
	Audience Audience
}

// TokenIssuer выпускает подписанные токены.
type TokenIssuer interface {
	Issue(ctx context.Context, subject string, audience Audience) (string, error)
}

// TokenVerifier проверяет токены.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// JWTErrors содержит ошибки, связанные с JWT токенами.
var (
	ErrInvalidJWTToken = errors.New("invalid JWT token")
	ErrExpiredJWTToken = errors.New("JWT token has expired")
)
