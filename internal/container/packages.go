package container

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shorturl-api/internal/events"
	"github.com/serroba/shorturl-api/internal/handlers"
	"github.com/serroba/shorturl-api/internal/health"
	"github.com/serroba/shorturl-api/internal/messaging"
	"github.com/serroba/shorturl-api/internal/middleware"
	"github.com/serroba/shorturl-api/internal/shortener"
	"github.com/serroba/shorturl-api/internal/store"
	"go.uber.org/zap"
)

// RedisConn owns the shared redis client so the injector can close it on shutdown.
type RedisConn struct {
	Client *redis.Client
}

// Shutdown closes the redis connection pool.
func (c *RedisConn) Shutdown() error {
	return c.Client.Close()
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the redis connection.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		return &RedisConn{Client: client}, nil
	})
}

// PostgresPackage provides the postgres store with its schema in place.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), opts.storeTimeout())
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		pgStore := store.NewPostgresStore(pool, opts.storeTimeout())

		if err := pgStore.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		return pgStore, nil
	})
}

// CachePackage provides the redis read cache shared by the server and the event consumer.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.RedisCache, error) {
		opts := do.MustInvoke[*Options](i)
		conn := do.MustInvoke[*RedisConn](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return store.NewRedisCache(conn.Client, opts.cacheTTL(), logger), nil
	})
}

// RepositoryPackage provides the shortener.Repository for the configured backend.
// Postgres storage with a positive cache TTL is read through the redis cache.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.RedisCacheRepository, error) {
		opts := do.MustInvoke[*Options](i)

		backing, err := backingRepository(i, opts)
		if err != nil {
			return nil, err
		}

		return store.NewRedisCacheRepository(backing, do.MustInvoke[*store.RedisCache](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Cached() {
			cache, err := do.Invoke[*store.RedisCacheRepository](i)
			if err != nil {
				return nil, err
			}

			return cache, nil
		}

		return backingRepository(i, opts)
	})
}

func backingRepository(i *do.Injector, opts *Options) (shortener.Repository, error) {
	switch opts.Storage {
	case StorageMemory:
		return store.NewMemoryStore(), nil
	case StorageRedis:
		return store.NewRedisStore(do.MustInvoke[*RedisConn](i).Client), nil
	case StoragePostgres:
		pgStore, err := do.Invoke[*store.PostgresStore](i)
		if err != nil {
			return nil, err
		}

		return pgStore, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Storage)
	}
}

// ShortenerPackage provides the shortening service.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		generator, err := shortener.NewNanoIDGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(repo, generator), nil
	})
}

// PublisherGroupPackage provides the event publisher. With events disabled publishing is a no-op.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		conn := do.MustInvoke[*RedisConn](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     conn.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[events.LinkCreated], error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.Events {
			return messaging.NoopPublish[events.LinkCreated](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[events.LinkCreated](group.Publisher(), events.TopicLinkCreated), nil
	})
}

// HealthPackage provides the health handler with a checker per external dependency in use.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		checkers := map[string]health.Checker{}

		if opts.usesRedis() {
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisConn](i).Client)
		}

		if opts.Storage == StoragePostgres {
			pgStore, err := do.Invoke[*store.PostgresStore](i)
			if err != nil {
				return nil, err
			}

			checkers["postgres"] = pgStore
		}

		return health.NewHandler(checkers), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(
			chimiddleware.RequestID,
			chimiddleware.RealIP,
			chimiddleware.Recoverer,
			chimiddleware.StripSlashes,
			handlers.EmptyShortenBody,
			cors.Handler(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				MaxAge:         300,
			}),
		)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		service, err := do.Invoke[*shortener.Service](i)
		if err != nil {
			return nil, err
		}

		publish, err := do.Invoke[messaging.Publish[events.LinkCreated]](i)
		if err != nil {
			return nil, err
		}

		healthHandler, err := do.Invoke[*health.Handler](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, handlers.APIConfig())
		api.UseMiddleware(middleware.RequestLogger(logger))

		handlers.RegisterRoutes(api, handlers.NewURLHandler(service, publish, logger))
		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}

// ConsumerGroupPackage provides the cache-warming consumer group fed by redis streams.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		conn := do.MustInvoke[*RedisConn](i)
		logger := do.MustInvoke[*zap.Logger](i)
		cache := do.MustInvoke[*store.RedisCache](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        conn.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: cacheWarmerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			events.TopicLinkCreated,
			events.NewCacheWarmer(cache, logger),
			logger,
			messaging.WithRetry(warmerAttempts, warmerBackoff),
		))

		return group, nil
	})
}

// RegisterServer registers every package the HTTP server needs.
func RegisterServer(i *do.Injector, opts *Options) {
	do.ProvideValue(i, opts)
	LoggerPackage(i)
	RedisPackage(i)
	CachePackage(i)
	PostgresPackage(i)
	RepositoryPackage(i)
	ShortenerPackage(i)
	PublisherGroupPackage(i)
	HealthPackage(i)
	HTTPPackage(i)
}

// RegisterConsumer registers every package the event consumer needs.
// It only talks to redis; warming pays off when the server reads through the
// cache, that is postgres storage with a positive cache TTL.
func RegisterConsumer(i *do.Injector, opts *Options) {
	do.ProvideValue(i, opts)
	LoggerPackage(i)
	RedisPackage(i)
	CachePackage(i)
	ConsumerGroupPackage(i)
}
