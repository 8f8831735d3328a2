// Package mongo содержит подключение к MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// Сообщения логгера и ошибок.
const (
	LogConnecting = "connecting to mongodb"
	LogConnected  = "connected to mongodb"
	LogClosing    = "closing mongodb client"

	ErrConnect    = "failed to connect to mongodb"
	ErrPing       = "failed to ping mongodb"
	ErrDisconnect = "failed to disconnect from mongodb"
)

// Options задает параметры подключения.
type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Database владеет клиентом и выбранной базой.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// New подключается к MongoDB и проверяет соединение.
func New(ctx context.Context, opts Options) (*Database, error) {
	log := logger.Log(ctx).With(zap.String("database", opts.Database))
	log.Info(ctx, LogConnecting)

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		log.Error(ctx, ErrConnect, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrConnect, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		log.Error(ctx, ErrPing, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrPing, err)
	}

	log.Info(ctx, LogConnected)
	return &Database{client: client, db: client.Database(opts.Database)}, nil
}

// Collection возвращает коллекцию выбранной базы.
func (d *Database) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Close отключает клиента.
func (d *Database) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogClosing)
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrDisconnect, err)
	}
	return nil
}
