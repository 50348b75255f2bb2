package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type postDoc struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

type postRepo struct {
	col *mongo.Collection
}

func NewPostRepo(db *mongo.Database) post.Repository {
	return &postRepo{col: db.Collection(postsCollection)}
}

func (r *postRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*post.Post, error) {
	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperror.NewInternal("failed to query posts by owner", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.NewInternal("failed to decode posts", err)
	}

	posts := make([]*post.Post, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			continue
		}
		posts = append(posts, &post.Post{ID: id, OwnerID: ownerID, Text: d.Text, CreatedAt: d.CreatedAt})
	}
	return posts, nil
}

func (r *postRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"owner_id": ownerID.String()}); err != nil {
		return apperror.NewInternal("failed to delete posts by owner", err)
	}
	return nil
}
