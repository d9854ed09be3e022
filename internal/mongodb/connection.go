package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultAppName        = "storefront"
	defaultMaxPool        = 50
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Config selects the deployment and database shared by the catalog and order
// repositories. Zero values fall back to the package defaults.
type Config struct {
	URI            string
	Database       string
	AppName        string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.AppName == "" {
		c.AppName = defaultAppName
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = defaultMaxPool
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
	return c
}

func (c Config) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetAppName(c.AppName).
		SetMaxPoolSize(c.MaxPoolSize).
		SetConnectTimeout(c.ConnectTimeout).
		SetServerSelectionTimeout(c.PingTimeout)
}

// Connect dials the deployment and waits for a primary before handing back
// the database. The caller disconnects through db.Client().
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongodb: uri and database are required")
	}
	cfg = cfg.withDefaults()

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping %s: %w", cfg.Database, err)
	}
	return client.Database(cfg.Database), nil
}
