package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/cache"
	"github.com/khoahotran/devconnector/adapters/event"
	githubAdapter "github.com/khoahotran/devconnector/adapters/github"
	httpAdapter "github.com/khoahotran/devconnector/adapters/http"
	"github.com/khoahotran/devconnector/adapters/lock"
	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/adapters/persistence/memory"
	mongoStore "github.com/khoahotran/devconnector/adapters/persistence/mongo"
	"github.com/khoahotran/devconnector/internal/application/service"
	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
	"github.com/khoahotran/devconnector/pkg/tracing"
)

type repositories struct {
	profiles profile.Repository
	posts    post.Repository
	users    user.Repository
	close    func()
}

func buildRepositories(cfg config.Config, log logger.Logger) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		users := memory.NewUserStore()
		return &repositories{
			profiles: memory.NewProfileStore(users),
			posts:    memory.NewPostStore(),
			users:    users,
			close:    func() {},
		}, nil

	case config.StoreDriverMongo:
		db, err := mongoStore.NewMongoDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		return &repositories{
			profiles: mongoStore.NewProfileRepo(db),
			posts:    mongoStore.NewPostRepo(db),
			users:    mongoStore.NewUserRepo(db),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = db.Client().Disconnect(ctx)
			},
		}, nil

	default:
		dbPool, err := persistence.NewPostgresPool(cfg, log)
		if err != nil {
			return nil, err
		}
		return &repositories{
			profiles: persistence.NewPostgresProfileRepo(dbPool, log),
			posts:    persistence.NewPostgresPostRepo(dbPool),
			users:    persistence.NewPostgresUserRepo(dbPool),
			close:    dbPool.Close,
		}, nil
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start DevConnector API Server...", zap.String("store", cfg.Store.Driver))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.NewTracerProvider(cfg, appLogger, "devconnector-api")
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Repositories
	repos, err := buildRepositories(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init store", err)
	}
	defer repos.close()

	// Redis backs the cross-replica owner lock and the repository cache.
	var (
		locker    service.OwnerLocker = lock.NewMemoryLocker()
		repoCache service.RepositoryCache
	)
	if cfg.Redis.Addr != "" {
		var redisClient *redis.Client
		redisClient, err = persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect Redis", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, cfg.Redis.LockTTL, appLogger)
		repoCache = cache.NewRedisRepositoryCache(redisClient)
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	githubClient := githubAdapter.NewClient(githubAdapter.Config{
		BaseURL:      cfg.GitHub.BaseURL,
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		Timeout:      cfg.GitHub.Timeout,
	}, appLogger)

	// Use Cases
	profileUseCase := profileUC.NewProfileUseCase(repos.profiles, repos.posts, repos.users, locker, publisher, appLogger)
	repositoriesUseCase := githubUC.NewRepositoriesUseCase(githubClient, repoCache, cfg.GitHub.CacheTTL, appLogger)

	// HTTP
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		ProfileHandler: httpAdapter.NewProfileHandler(profileUseCase, appLogger),
		GithubHandler:  httpAdapter.NewGithubHandler(repositoriesUseCase),
		JWTService:     jwtSvc,
		Logger:         appLogger,
		Middlewares:    []gin.HandlerFunc{otelgin.Middleware("devconnector-api"), gin.Logger()},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("cannot run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	profileUseCase.Close()
}
