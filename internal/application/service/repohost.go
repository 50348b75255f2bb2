package service

import (
	"context"
	"encoding/json"
	"time"
)

// RepositoryHost fetches public repositories from a code hosting service.
// Elements are passed through exactly as the upstream returned them.
type RepositoryHost interface {
	FetchRepositories(ctx context.Context, username string) ([]json.RawMessage, error)
}

type RepositoryCache interface {
	GetRepositories(ctx context.Context, username string) ([]json.RawMessage, bool, error)
	SetRepositories(ctx context.Context, username string, repos []json.RawMessage, ttl time.Duration) error
	DeleteRepositories(ctx context.Context, username string) error
}
