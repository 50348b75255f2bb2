package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const (
	DefaultBaseURL  = "https://api.github.com"
	repositoryLimit = 5
	maxBodyBytes    = 4 << 20
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tracer       trace.Tracer
	logger       logger.Logger
}

func NewClient(cfg Config, log logger.Logger) service.RepositoryHost {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		tracer:       otel.Tracer("github.com/khoahotran/devconnector/adapters/github"),
		logger:       log,
	}
}

// FetchRepositories returns the five most recently created public
// repositories of username. Any non-2xx answer is reported as not found;
// the upstream body is never passed on.
func (c *Client) FetchRepositories(ctx context.Context, username string) ([]json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "github.FetchRepositories", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("github.username", username))

	query := url.Values{}
	query.Set("per_page", fmt.Sprint(repositoryLimit))
	query.Set("sort", "created")
	query.Set("direction", "desc")
	endpoint := fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(username), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.NewInternal("failed to build github request", err)
	}
	req.Header.Set("User-Agent", "devconnector")
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.clientID != "" && c.clientSecret != "" {
		req.SetBasicAuth(c.clientID, c.clientSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Error("GitHub request failed", err, zap.String("username", username))
		return nil, apperror.NewInternal("github request failed", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.logger.Warn("GitHub lookup rejected",
			zap.String("username", username), zap.Int("status", resp.StatusCode))
		err := apperror.NewNotFound("github profile", username)
		err.Message = "no github profile found"
		return nil, err
	}

	var repos []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&repos); err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to decode github response", err)
	}
	if repos == nil {
		repos = []json.RawMessage{}
	}
	return repos, nil
}
