package config

import (
	"errors"
	"fmt"
	"time"
)

// Поддерживаемые хранилища.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

var (
	errUnknownDriver   = errors.New("unknown storage driver")
	errMongoDBRequired = errors.New("NOTES_MONGO_DB is required for the mongo driver")
)

// StorageConfig выбирает хранилище заметок.
type StorageConfig struct {
	Driver         string `yaml:"driver" env:"NOTES_STORAGE_DRIVER" env-default:"postgres"`
	MigrationsPath string `yaml:"migrations_path" env:"NOTES_MIGRATIONS_PATH" env-default:"migrations/notes"`
}

// Validate проверяет имя драйвера.
func (s *StorageConfig) Validate() error {
	switch s.Driver {
	case DriverPostgres, DriverMongo:
		return nil
	}
	return fmt.Errorf("%w: %q", errUnknownDriver, s.Driver)
}

// PostgresConfig содержит настройки подключения к базе данных.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"NOTES_POSTGRES_HOST" env-default:"0.0.0.0"`
	Port     int    `yaml:"port" env:"NOTES_POSTGRES_PORT" env-default:"5433"`
	User     string `yaml:"user" env:"NOTES_POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"NOTES_POSTGRES_PASSWORD" env-default:"postgres"`
	Database string `yaml:"database" env:"NOTES_POSTGRES_DB" env-default:"notes"`
	MinConn  int32  `yaml:"min_conn" env:"NOTES_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn  int32  `yaml:"max_conn" env:"NOTES_POSTGRES_MAX_CONN" env-default:"10"`
}

// GetDSN возвращает строку подключения к Postgres.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

// GetConnectionURL возвращает URL-строку подключения для миграций.
func (p *PostgresConfig) GetConnectionURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// MongoConfig содержит настройки документного хранилища.
type MongoConfig struct {
	URI            string        `yaml:"uri" env:"NOTES_MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `yaml:"database" env:"NOTES_MONGO_DB"`
	Collection     string        `yaml:"collection" env:"NOTES_MONGO_COLLECTION" env-default:"notes"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"NOTES_MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// Validate требует имя базы.
func (m *MongoConfig) Validate() error {
	if m.Database == "" {
		return errMongoDBRequired
	}
	return nil
}

// RedisConfig представляет конфигурацию кэша заметок.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"NOTES_REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"NOTES_REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"NOTES_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"NOTES_REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"NOTES_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"NOTES_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"NOTES_REDIS_TIMEOUT" env-default:"3s"`
	TTL      time.Duration `yaml:"ttl" env:"NOTES_REDIS_TTL" env-default:"5m"`
}

// GetAddress возвращает адрес Redis.
func (c *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
