package github

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type RepositoriesUseCase struct {
	host     service.RepositoryHost
	cache    service.RepositoryCache
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewRepositoriesUseCase wires the proxy. cache may be nil to disable caching.
func NewRepositoriesUseCase(host service.RepositoryHost, cache service.RepositoryCache, cacheTTL time.Duration, log logger.Logger) *RepositoriesUseCase {
	return &RepositoriesUseCase{host: host, cache: cache, cacheTTL: cacheTTL, logger: log}
}

type GetRepositoriesInput struct {
	Username string
}

type GetRepositoriesOutput struct {
	Repositories []json.RawMessage
}

func (uc *RepositoriesUseCase) Execute(ctx context.Context, input GetRepositoriesInput) (*GetRepositoriesOutput, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperror.NewNotFound("github profile", input.Username)
	}

	if uc.cache != nil {
		repos, ok, err := uc.cache.GetRepositories(ctx, username)
		if err != nil {
			uc.logger.Warn("Repository cache read failed", zap.String("username", username), zap.Error(err))
		} else if ok {
			return &GetRepositoriesOutput{Repositories: repos}, nil
		}
	}

	repos, err := uc.host.FetchRepositories(ctx, username)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetRepositories(ctx, username, repos, uc.cacheTTL); err != nil {
			uc.logger.Warn("Repository cache write failed", zap.String("username", username), zap.Error(err))
		}
	}
	return &GetRepositoriesOutput{Repositories: repos}, nil
}

// Refresh bypasses the cache, fetches fresh data and stores it.
func (uc *RepositoriesUseCase) Refresh(ctx context.Context, username string) error {
	repos, err := uc.host.FetchRepositories(ctx, username)
	if err != nil {
		return err
	}
	if uc.cache == nil {
		return nil
	}
	return uc.cache.SetRepositories(ctx, username, repos, uc.cacheTTL)
}

func (uc *RepositoriesUseCase) Evict(ctx context.Context, username string) error {
	if uc.cache == nil || username == "" {
		return nil
	}
	return uc.cache.DeleteRepositories(ctx, username)
}
