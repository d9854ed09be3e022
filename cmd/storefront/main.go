package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/cartstore"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/domain"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/mongodb"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/orders"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// closers run in reverse order on shutdown.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) { *c = append(*c, fn) }

func (c closers) run(ctx context.Context) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			logging.Warn().Err(err).Msg("shutdown step failed")
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})

	ctx := context.Background()
	var cleanup closers

	if err := run(ctx, cfg, &cleanup); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		cleanup.run(shutdownCtx)
		cancel()
		logging.Fatal().Err(err).Msg("storefront failed")
	}
}

func run(ctx context.Context, cfg *config.Config, cleanup *closers) error {
	var mongoDB *mongo.Database
	if cfg.Catalog.Driver == "mongo" || cfg.Orders.Driver == "mongo" {
		db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			MaxPoolSize:    cfg.Mongo.MaxPoolSize,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return err
		}
		cleanup.add(func(ctx context.Context) error { return db.Client().Disconnect(ctx) })
		mongoDB = db
		logging.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
	}

	products, err := buildCatalog(ctx, cfg, mongoDB, cleanup)
	if err != nil {
		return err
	}
	if cfg.Catalog.SeedFile != "" {
		if err := seedProducts(ctx, products, cfg.Catalog.SeedFile); err != nil {
			return err
		}
	}

	orderRepo, err := buildOrders(ctx, cfg, mongoDB, cleanup)
	if err != nil {
		return err
	}

	carts, err := buildCartStore(ctx, cfg, cleanup)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg, cleanup)
	if err != nil {
		return err
	}

	sessions := cart.NewSessions(carts, cfg.Cart.IdleTTL, cart.WithSaveTimeout(cfg.Cart.SaveTimeout))
	svc := checkout.NewService(products, orderRepo, notifier, checkout.Config{
		ReadConcurrency:     cfg.Checkout.ReadConcurrency,
		NotifyTimeout:       cfg.Checkout.NotifyTimeout,
		CompensationTimeout: cfg.Checkout.CompensationTimeout,
	})

	timeout := cfg.Server.RequestTimeout
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout: timeout,
		AdminKey:       cfg.Admin.Key,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
	}, h.Handlers{
		Cart:          h.NewCartHandler(sessions, products, timeout),
		Products:      h.NewProductHandler(products, timeout),
		Orders:        h.NewOrdersHandler(svc, sessions, timeout),
		Admin:         h.NewAdminHandler(svc, timeout),
		AdminProducts: h.NewAdminProductHandler(products, timeout),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Int("port", cfg.Server.Port).
			Str("cart", cfg.Cart.Driver).
			Str("catalog", cfg.Catalog.Driver).
			Str("orders", cfg.Orders.Driver).
			Str("notify", cfg.Notify.Driver).
			Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server forced to shutdown")
	}
	// in-flight notifications and cart saves finish before stores close
	if err := svc.Wait(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("notifications still pending at shutdown")
	}
	if err := sessions.Close(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("cart saves still pending at shutdown")
	}
	cleanup.run(shutdownCtx)

	logging.Info().Msg("storefront stopped")
	return nil
}

func buildCatalog(ctx context.Context, cfg *config.Config, db *mongo.Database, cleanup *closers) (catalog.Catalog, error) {
	switch cfg.Catalog.Driver {
	case "mongo":
		repo := catalog.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "sqlite":
		repo, err := catalog.NewSQLiteRepository(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		cleanup.add(func(context.Context) error { return repo.Close() })
		if err := repo.RunMigrations(cfg.SQLite.MigrationsDir); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return catalog.NewMemoryStore(), nil
	}
}

func buildOrders(ctx context.Context, cfg *config.Config, db *mongo.Database, cleanup *closers) (orders.Repository, error) {
	switch cfg.Orders.Driver {
	case "mongo":
		repo := orders.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		pg := cfg.Postgres
		repo, err := orders.NewPostgresRepository(ctx, &orders.Credentials{
			Host:              pg.Host,
			Port:              pg.Port,
			User:              pg.User,
			Password:          pg.Password,
			DBName:            pg.DBName,
			SSLMode:           pg.SSLMode,
			MigrationsDirPath: pg.MigrationsDir,
		})
		if err != nil {
			return nil, err
		}
		cleanup.add(func(context.Context) error { return repo.Close() })
		if err := repo.RunMigrations(pg.MigrationsDir); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return orders.NewMemoryRepository(), nil
	}
}

func buildCartStore(ctx context.Context, cfg *config.Config, cleanup *closers) (cart.Store, error) {
	if cfg.Cart.Driver != "redis" {
		return cartstore.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cleanup.add(func(context.Context) error { return client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logging.Info().Str("addr", cfg.Redis.Addr).Msg("redis ping succeeded")
	return cartstore.NewRedisStore(client, cfg.Cart.TTL, cfg.Cart.TTLJitter), nil
}

func buildNotifier(cfg *config.Config, cleanup *closers) (checkout.Notifier, error) {
	if cfg.Notify.Driver != "kafka" {
		return notify.NewLogNotifier(cfg.Notify.AdminEmail), nil
	}
	kn, err := notify.NewKafkaNotifier(notify.KafkaConfig{
		Brokers:       cfg.Kafka.Brokers,
		CustomerTopic: cfg.Kafka.CustomerTopic,
		AdminTopic:    cfg.Kafka.AdminTopic,
		AdminEmail:    cfg.Notify.AdminEmail,
	})
	if err != nil {
		return nil, err
	}
	cleanup.add(func(context.Context) error { return kn.Close() })
	return notify.NewBreaker(kn, notify.BreakerConfig{
		Name:             "kafka-notifier",
		FailureThreshold: cfg.Notify.BreakerThreshold,
		Timeout:          cfg.Notify.BreakerTimeout,
	}), nil
}

func seedProducts(ctx context.Context, c catalog.Catalog, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	now := time.Now().UTC()
	for _, p := range products {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		if err := c.SaveProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	logging.Info().Int("products", len(products)).Str("file", path).Msg("catalog seeded")
	return nil
}
