package config

import (
	"errors"
	"fmt"
	"time"
)

// JWTConfig содержит настройки выпуска и проверки токенов.
type JWTConfig struct {
	Secret        string        `yaml:"secret" env:"NOTES_JWT_SECRET" env-required:"true"`
	Algorithm     string        `yaml:"algorithm" env:"NOTES_JWT_ALGORITHM" env-default:"HS256"`
	TokenLifetime time.Duration `yaml:"token_lifetime" env:"NOTES_JWT_TOKEN_LIFETIME" env-default:"60m"`
	Issuer        string        `yaml:"issuer" env:"NOTES_JWT_ISSUER" env-default:"system"`
}

// Validate проверяет секрет, алгоритм и время жизни.
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return errors.New("jwt secret must not be empty")
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported jwt algorithm %q", c.Algorithm)
	}
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("jwt token lifetime must be positive, got %s", c.TokenLifetime)
	}
	return nil
}
