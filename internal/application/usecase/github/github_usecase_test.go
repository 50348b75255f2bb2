package github

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type fakeHost struct {
	repos []json.RawMessage
	err   error
	calls int
}

func (h *fakeHost) FetchRepositories(ctx context.Context, username string) ([]json.RawMessage, error) {
	h.calls++
	return h.repos, h.err
}

type fakeCache struct {
	entries map[string][]json.RawMessage
	getErr  error
	lastTTL time.Duration
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]json.RawMessage{}}
}

func (c *fakeCache) GetRepositories(ctx context.Context, username string) ([]json.RawMessage, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	repos, ok := c.entries[username]
	return repos, ok, nil
}

func (c *fakeCache) SetRepositories(ctx context.Context, username string, repos []json.RawMessage, ttl time.Duration) error {
	c.entries[username] = repos
	c.lastTTL = ttl
	return nil
}

func (c *fakeCache) DeleteRepositories(ctx context.Context, username string) error {
	delete(c.entries, username)
	c.deleted = append(c.deleted, username)
	return nil
}

var sampleRepos = []json.RawMessage{json.RawMessage(`{"id":1,"name":"hello-world"}`)}

func TestExecute_CacheMissFetchesAndStores(t *testing.T) {
	host := &fakeHost{repos: sampleRepos}
	cache := newFakeCache()
	uc := NewRepositoriesUseCase(host, cache, time.Minute, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), GetRepositoriesInput{Username: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, sampleRepos, out.Repositories)
	assert.Equal(t, 1, host.calls)
	assert.Equal(t, sampleRepos, cache.entries["octocat"])
	assert.Equal(t, time.Minute, cache.lastTTL)

	_, err = uc.Execute(context.Background(), GetRepositoriesInput{Username: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, 1, host.calls, "second call should be served from cache")
}

func TestExecute_CacheErrorFallsThrough(t *testing.T) {
	host := &fakeHost{repos: sampleRepos}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	uc := NewRepositoriesUseCase(host, cache, time.Minute, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), GetRepositoriesInput{Username: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, sampleRepos, out.Repositories)
	assert.Equal(t, 1, host.calls)
}

func TestExecute_UpstreamNotFoundIsNotCached(t *testing.T) {
	host := &fakeHost{err: apperror.NewNotFound("github profile", "ghost")}
	cache := newFakeCache()
	uc := NewRepositoriesUseCase(host, cache, time.Minute, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), GetRepositoriesInput{Username: "ghost"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, cache.entries)
}

func TestExecute_BlankUsername(t *testing.T) {
	host := &fakeHost{repos: sampleRepos}
	uc := NewRepositoriesUseCase(host, nil, time.Minute, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), GetRepositoriesInput{Username: "  "})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, host.calls)
}

func TestExecute_WithoutCache(t *testing.T) {
	host := &fakeHost{repos: sampleRepos}
	uc := NewRepositoriesUseCase(host, nil, 0, logger.NewNopLogger())

	for i := 0; i < 2; i++ {
		out, err := uc.Execute(context.Background(), GetRepositoriesInput{Username: "octocat"})
		require.NoError(t, err)
		assert.Equal(t, sampleRepos, out.Repositories)
	}
	assert.Equal(t, 2, host.calls)
}

func TestRefreshAndEvict(t *testing.T) {
	host := &fakeHost{repos: sampleRepos}
	cache := newFakeCache()
	uc := NewRepositoriesUseCase(host, cache, time.Hour, logger.NewNopLogger())

	require.NoError(t, uc.Refresh(context.Background(), "octocat"))
	assert.Equal(t, sampleRepos, cache.entries["octocat"])

	require.NoError(t, uc.Evict(context.Background(), "octocat"))
	assert.NotContains(t, cache.entries, "octocat")
	assert.Equal(t, []string{"octocat"}, cache.deleted)

	require.NoError(t, uc.Evict(context.Background(), ""))
	assert.Len(t, cache.deleted, 1)
}
