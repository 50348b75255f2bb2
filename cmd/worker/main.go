package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/cache"
	"github.com/khoahotran/devconnector/adapters/event"
	githubAdapter "github.com/khoahotran/devconnector/adapters/github"
	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/internal/application/service"
	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/logger"
)

// The worker keeps the GitHub repository cache in step with profile changes.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting DevConnector Worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("worker needs KAFKA_BROKERS", nil)
	}

	// Redis
	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	defer redisClient.Close()

	githubClient := githubAdapter.NewClient(githubAdapter.Config{
		BaseURL:      cfg.GitHub.BaseURL,
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		Timeout:      cfg.GitHub.Timeout,
	}, appLogger)
	repositoriesUseCase := githubUC.NewRepositoriesUseCase(githubClient, cache.NewRedisRepositoryCache(redisClient), cfg.GitHub.CacheTTL, appLogger)

	// Kafka Consumer
	profileConsumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  "github-cache-warmer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer profileConsumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents))

	for {
		msg, err := profileConsumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		var payload service.ProfileEvent
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			appLogger.Warn("Skipping malformed event", zap.ByteString("key", msg.Key), zap.Error(err))
			commitMessage(ctx, profileConsumer, msg, appLogger)
			continue
		}

		if err := handleEvent(ctx, repositoriesUseCase, payload); err != nil {
			appLogger.Error("Failed to process event", err,
				zap.String("event_type", string(payload.EventType)),
				zap.String("owner_id", payload.OwnerID.String()))
		}
		commitMessage(ctx, profileConsumer, msg, appLogger)
	}
}

func handleEvent(ctx context.Context, uc *githubUC.RepositoriesUseCase, evt service.ProfileEvent) error {
	if evt.GithubUsername == "" {
		return nil
	}
	switch evt.EventType {
	case service.ProfileEventUpserted:
		return uc.Refresh(ctx, evt.GithubUsername)
	case service.ProfileEventDeleted:
		return uc.Evict(ctx, evt.GithubUsername)
	}
	return nil
}

func commitMessage(ctx context.Context, reader *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}
