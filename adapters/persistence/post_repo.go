package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type postgresPostRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPostRepo(db *pgxpool.Pool) post.Repository {
	return &postgresPostRepo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *postgresPostRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*post.Post, error) {
	sql, args, _ := psql.Select("id", "owner_id", "text", "created_at").
		From("posts").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query posts by owner", err)
	}
	defer rows.Close()

	posts := make([]*post.Post, 0)
	for rows.Next() {
		p := &post.Post{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Text, &p.CreatedAt); err != nil {
			return nil, apperror.NewInternal("failed to scan post row", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating post rows", err)
	}
	return posts, nil
}

func (r *postgresPostRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	sql, args, _ := psql.Delete("posts").Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return apperror.NewInternal("failed to delete posts by owner", err)
	}
	return nil
}
