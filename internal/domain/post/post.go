package post

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Post is owned by the posts service. Profiles only need to remove an
// owner's posts when the account goes away.
type Post struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Post, error)
	// DeleteByOwner removes every post of ownerID. It succeeds when there is nothing to delete.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}
