// Package services provides implementations of service interfaces.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/errs"
	"notekeeper/internal/notes/ports/services"
	"notekeeper/pkg/logger"
)

// Константы для работы с JWT.
const (
	methodIssue  = "ServiceJWT.Issue"
	methodVerify = "ServiceJWT.Verify"
	opNewJWT     = "services.NewJWT"

	msgIssuingToken    = "issuing token"
	msgTokenIssued     = "token issued successfully"
	msgValidatingToken = "validating token"
	msgTokenValidated  = "token validated successfully"
	msgInvalidToken    = "invalid token"
	msgTokenExpired    = "token has expired"
	//nolint:gosec
	errSigningToken = "error signing token"

	// DefaultIssuer - издатель токенов по умолчанию.
	DefaultIssuer = "system"
)

// Ошибки конфигурации.
var (
	ErrEmptySecret     = errors.New("empty signing secret")
	ErrNoMethod        = errors.New("signing method is not set")
	ErrNonPositiveTTL  = errors.New("token lifetime must be positive")
	ErrInvalidAudience = errors.New("token must carry exactly one known audience")
)

// JWTConfig задает параметры подписи.
type JWTConfig struct {
	Secret   []byte
	Method   jwt.SigningMethod
	Lifetime time.Duration
	Issuer   string
}

// ServiceJWT выпускает и проверяет токены. Не имеет изменяемого состояния.
type ServiceJWT struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

// Option настраивает ServiceJWT.
type Option func(*ServiceJWT)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *ServiceJWT) {
		s.now = now
	}
}

// NewJWT создает новый экземпляр сервиса JWT. Ошибки конфигурации обнаруживаются здесь,
// а не при выпуске токена.
func NewJWT(cfg JWTConfig, opts ...Option) (*ServiceJWT, error) {
	switch {
	case len(cfg.Secret) == 0:
		return nil, errs.E(errs.Configuration, opNewJWT, ErrEmptySecret).WithField("secret")
	case cfg.Method == nil:
		return nil, errs.E(errs.Configuration, opNewJWT, ErrNoMethod).WithField("algorithm")
	case cfg.Lifetime <= 0:
		return nil, errs.E(errs.Configuration, opNewJWT, ErrNonPositiveTTL).WithField("lifetime")
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}

	s := &ServiceJWT{
		secret:   cfg.Secret,
		method:   cfg.Method,
		lifetime: cfg.Lifetime,
		issuer:   issuer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var (
	_ services.TokenIssuer   = (*ServiceJWT)(nil)
	_ services.TokenVerifier = (*ServiceJWT)(nil)
)

// Issue выпускает токен: iat = nbf = now, exp = now + lifetime.
func (s *ServiceJWT) Issue(ctx context.Context, subject string, audience services.Audience) (string, error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodIssue),
		zap.String("subject", subject),
		zap.String("audience", string(audience)),
	)
	log.Debug(ctx, msgIssuingToken)

	if subject == "" {
		return "", errs.E(errs.InvalidArgument, methodIssue, nil).WithField("subject")
	}
	if !audience.Valid() {
		return "", errs.E(errs.InvalidArgument, methodIssue, services.ErrUnknownAudience).WithField("audience")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{string(audience)},
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		log.Error(ctx, errSigningToken, zap.Error(err))
		return "", errs.E(errs.Signing, methodIssue, err)
	}

	log.Debug(ctx, msgTokenIssued)
	return token, nil
}

// Verify проверяет подпись, срок действия, издателя и аудиторию токена.
func (s *ServiceJWT) Verify(ctx context.Context, tokenString string) (*services.Principal, error) {
	log := logger.Log(ctx).With(zap.String("method", methodVerify))
	log.Debug(ctx, msgValidatingToken)

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug(ctx, msgTokenExpired)
			return nil, fmt.Errorf("%s: %w", msgValidatingToken, services.ErrExpiredJWTToken)
		}
		log.Debug(ctx, msgInvalidToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", msgValidatingToken, services.ErrInvalidJWTToken, err)
	}

	if claims.Subject == "" || len(claims.Audience) != 1 {
		log.Debug(ctx, msgInvalidToken)
		return nil, fmt.Errorf("%s: %w: %w", msgValidatingToken, services.ErrInvalidJWTToken, ErrInvalidAudience)
	}
	audience, err := services.ParseAudience(claims.Audience[0])
	if err != nil {
		log.Debug(ctx, msgInvalidToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", msgValidatingToken, services.ErrInvalidJWTToken, err)
	}

	log.Debug(ctx, msgTokenValidated, zap.String("subject", claims.Subject))
	return &services.Principal{Subject: claims.Subject, Audience: audience}, nil
}

// ParseHMACMethod возвращает HMAC-алгоритм по имени (HS256, HS384, HS512).
func ParseHMACMethod(name string) (jwt.SigningMethod, error) {
	method, ok := jwt.GetSigningMethod(name).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", name)
	}
	return method, nil
}
