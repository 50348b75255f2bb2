package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Avatar    string    `bson:"avatar"`
	CreatedAt time.Time `bson:"created_at"`
}

type userRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) user.Repository {
	return &userRepo{col: db.Collection(usersCollection)}
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var d userDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, apperror.NewInternal("failed to query user", err)
	}
	return &user.User{ID: id, Name: d.Name, Email: d.Email, Avatar: d.Avatar, CreatedAt: d.CreatedAt}, nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return apperror.NewInternal("failed to delete user", err)
	}
	return nil
}
