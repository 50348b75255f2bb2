package service

import (
	"context"

	"github.com/google/uuid"
)

type ProfileEventType string

const (
	ProfileEventUpserted ProfileEventType = "profile.upserted"
	ProfileEventDeleted  ProfileEventType = "profile.deleted"
)

type ProfileEvent struct {
	EventType      ProfileEventType `json:"event_type"`
	OwnerID        uuid.UUID        `json:"owner_id"`
	ProfileID      uuid.UUID        `json:"profile_id,omitempty"`
	GithubUsername string           `json:"github_username,omitempty"`
}

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, evt ProfileEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, ProfileEvent) error { return nil }
