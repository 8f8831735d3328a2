package config

import (
	"time"

	"notekeeper/internal/notes/resilience"
)

// ResilienceConfig задает параметры Circuit Breaker хранилища и повторов чтения
// поверх хранилища заметок. По умолчанию повторов нет: RetryAttempts = 1.
type ResilienceConfig struct {
	ErrorThreshold   int           `yaml:"error_threshold" env:"NOTES_CB_ERROR_THRESHOLD" env-default:"5"`
	OpenTimeout      time.Duration `yaml:"open_timeout" env:"NOTES_CB_OPEN_TIMEOUT" env-default:"10s"`
	SuccessThreshold int           `yaml:"success_threshold" env:"NOTES_CB_SUCCESS_THRESHOLD" env-default:"2"`
	RetryAttempts    int           `yaml:"retry_attempts" env:"NOTES_RETRY_ATTEMPTS" env-default:"1"`
	RetryBackoff     time.Duration `yaml:"retry_backoff" env:"NOTES_RETRY_BACKOFF" env-default:"100ms"`
	RetryMaxBackoff  time.Duration `yaml:"retry_max_backoff" env:"NOTES_RETRY_MAX_BACKOFF" env-default:"1s"`
}

// Options переводит настройки в конфигурацию декораторов.
func (c *ResilienceConfig) Options() resilience.Config {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = c.RetryAttempts
	retry.InitialBackoff = c.RetryBackoff
	retry.MaxBackoff = c.RetryMaxBackoff

	return resilience.Config{
		Breaker: resilience.CircuitBreakerConfig{
			ErrorThreshold:   c.ErrorThreshold,
			Timeout:          c.OpenTimeout,
			SuccessThreshold: c.SuccessThreshold,
		},
		Retry: retry,
	}
}
