package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	libdb "sensorhub/backend/libs/db"
	libmongo "sensorhub/backend/libs/mongo"
	libredis "sensorhub/backend/libs/redis"
	libsqlite "sensorhub/backend/libs/sqlite"
	appconfig "sensorhub/backend/services/sensor-api/internal/config"
	"sensorhub/backend/services/sensor-api/internal/http"
	"sensorhub/backend/services/sensor-api/internal/http/handlers"
	"sensorhub/backend/services/sensor-api/internal/http/middleware"
	"sensorhub/backend/services/sensor-api/internal/metrics"
	"sensorhub/backend/services/sensor-api/internal/password"
	"sensorhub/backend/services/sensor-api/internal/period"
	redisstore "sensorhub/backend/services/sensor-api/internal/redis"
	"sensorhub/backend/services/sensor-api/internal/repository"
	"sensorhub/backend/services/sensor-api/internal/service"
	"sensorhub/backend/services/sensor-api/internal/ws"
)

const (
	initTimeout        = 15 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// App wires dependencies for the sensor API.
type App struct {
	server  *httpserver.Server
	closers []func() error
	logger  *zap.Logger
}

type storage struct {
	readings service.ReadingStore
	users    service.UserRepository
	closer   func() error
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	a := &App{logger: logger}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.closer)

	if cfg.UsesDevelopmentSecret() {
		logger.Warn("SECRET_KEY is not set, tokens are signed with the development secret")
	}
	tokenSvc, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWTExpiration())
	if err != nil {
		a.Close()
		return nil, err
	}
	authSvc := service.NewAuthService(store.users, password.NewBcryptHasher(0), tokenSvc, logger)

	collector := metrics.New()
	hub := ws.NewHub(logger)
	opts := []service.Option{
		service.WithPublisher(hub),
		service.WithPublisher(collector),
		service.WithIngestRecorder(collector),
	}

	if cfg.CacheEnabled() {
		client, err := libredis.NewRedisClient(libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		opts = append(opts, service.WithAveragesCache(redisstore.NewAveragesCache(client, cfg.Redis.CacheTTL)))
		logger.Info("averages cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	sensorsSvc := service.NewSensorsService(store.readings, period.NewResolver(time.Now), logger, opts...)
	stream := ws.NewServer(hub, streamWriteTimeout, middleware.OriginAllowed(cfg.HTTP.AllowedOrigins), logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:    handlers.NewAuthHandlers(authSvc, logger),
		SensorsHandlers: handlers.NewSensorsHandlers(sensorsSvc, cfg.HTTP.MaxUploadBytes, logger),
		StreamHandler:   stream.HandleStream,
		MetricsHandler:  collector.Handler(),
		Authenticator:   authSvc,
		RequestObserver: collector,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		Logger:          logger,
	})
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return a, nil
}

func openStorage(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case appconfig.DriverPostgres:
		sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN, libdb.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := libdb.EnsureSchema(ctx, sqlDB, repository.PostgresSchema()...); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))
		return &storage{
			readings: repository.NewPostgresReadingRepository(sqlDB),
			users:    repository.NewPostgresUserRepository(sqlDB),
			closer:   sqlDB.Close,
		}, nil

	case appconfig.DriverSQLite:
		gormDB, err := libsqlite.NewSQLiteDB(cfg.SQLite.Path, repository.SQLiteModels()...)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("path", cfg.SQLite.Path))
		return &storage{
			readings: repository.NewSQLiteReadingRepository(gormDB),
			users:    repository.NewSQLiteUserRepository(gormDB),
			closer:   sqlDB.Close,
		}, nil

	case appconfig.DriverMongo:
		client, err := libmongo.NewMongoClient(cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		users := repository.NewMongoUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("database", cfg.Mongo.Database))
		return &storage{
			readings: repository.NewMongoReadingRepository(db),
			users:    users,
			closer: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return client.Disconnect(ctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
}
