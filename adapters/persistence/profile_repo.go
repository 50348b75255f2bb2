package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const pgForeignKeyViolation = "23503"

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

var profileColumns = []string{
	"p.id", "p.owner_id", "p.company", "p.website", "p.location", "p.bio", "p.status",
	"p.github_username", "p.skills", "p.social", "p.experience", "p.education",
	"p.version", "p.created_at", "p.updated_at",
}

func selectProfiles() sq.SelectBuilder {
	cols := append([]string{}, profileColumns...)
	cols = append(cols, "u.id IS NOT NULL", "COALESCE(u.name, '')", "COALESCE(u.avatar, '')")
	return psql.Select(cols...).
		From("profiles p").
		LeftJoin("users u ON u.id = p.owner_id")
}

type profileRow struct {
	p                                     profile.Profile
	skills, social, experience, education []byte
	hasOwner                              bool
	ownerName, ownerAvatar                string
}

func (r *profileRow) targets(withOwner bool) []any {
	t := []any{
		&r.p.ID, &r.p.OwnerID, &r.p.Company, &r.p.Website, &r.p.Location, &r.p.Bio, &r.p.Status,
		&r.p.GithubUsername, &r.skills, &r.social, &r.experience, &r.education,
		&r.p.Version, &r.p.CreatedAt, &r.p.UpdatedAt,
	}
	if withOwner {
		t = append(t, &r.hasOwner, &r.ownerName, &r.ownerAvatar)
	}
	return t
}

func (r *postgresProfileRepo) decode(row *profileRow) *profile.Profile {
	p := row.p
	if err := json.Unmarshal(row.skills, &p.Skills); err != nil {
		r.logger.Warn("Failed to unmarshal skills", zap.String("owner_id", p.OwnerID.String()), zap.Error(err))
		p.Skills = []string{}
	}
	if err := json.Unmarshal(row.social, &p.Social); err != nil || p.Social == nil {
		p.Social = profile.Social{}
	}
	if err := json.Unmarshal(row.experience, &p.Experience); err != nil || p.Experience == nil {
		p.Experience = []profile.Experience{}
	}
	if err := json.Unmarshal(row.education, &p.Education); err != nil || p.Education == nil {
		p.Education = []profile.Education{}
	}
	if row.hasOwner {
		p.Owner = &profile.OwnerSummary{ID: p.OwnerID, Name: row.ownerName, Avatar: row.ownerAvatar}
	}
	return &p
}

func (r *postgresProfileRepo) getOne(ctx context.Context, where sq.Eq) (*profile.Profile, error) {
	query, args, err := selectProfiles().Where(where).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile query", err)
	}

	var row profileRow
	if err := r.db.QueryRow(ctx, query, args...).Scan(row.targets(true)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, apperror.NewInternal("failed to query profile", err)
	}
	return r.decode(&row), nil
}

func (r *postgresProfileRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*profile.Profile, error) {
	return r.getOne(ctx, sq.Eq{"p.owner_id": ownerID})
}

func (r *postgresProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return r.getOne(ctx, sq.Eq{"p.id": id})
}

func (r *postgresProfileRepo) ListAll(ctx context.Context) ([]*profile.Profile, error) {
	query, args, err := selectProfiles().OrderBy("p.created_at ASC", "p.id ASC").ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile list query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list profiles", err)
	}
	defer rows.Close()

	profiles := make([]*profile.Profile, 0)
	for rows.Next() {
		var row profileRow
		if err := rows.Scan(row.targets(true)...); err != nil {
			return nil, apperror.NewInternal("failed to scan profile row", err)
		}
		profiles = append(profiles, r.decode(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating profile rows", err)
	}
	return profiles, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, ownerID uuid.UUID, f profile.UpsertFields) (*profile.Profile, error) {
	skills, err := json.Marshal(f.Skills)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal skills", err)
	}
	social := f.Social
	if social == nil {
		social = profile.Social{}
	}
	socialBytes, err := json.Marshal(social)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal social", err)
	}

	// NULL parameters keep the stored value on update.
	query := `
		INSERT INTO profiles AS p (id, owner_id, company, website, location, bio, status, github_username, skills, social)
		VALUES ($1, $2, COALESCE($3::text, ''), COALESCE($4::text, ''), COALESCE($5::text, ''), COALESCE($6::text, ''),
		        $7, COALESCE($8::text, ''), $9, $10)
		ON CONFLICT (owner_id) DO UPDATE SET
			company = COALESCE($3::text, p.company),
			website = COALESCE($4::text, p.website),
			location = COALESCE($5::text, p.location),
			bio = COALESCE($6::text, p.bio),
			status = EXCLUDED.status,
			github_username = COALESCE($8::text, p.github_username),
			skills = EXCLUDED.skills,
			social = EXCLUDED.social,
			version = p.version + 1,
			updated_at = NOW()
		RETURNING p.id, p.owner_id, p.company, p.website, p.location, p.bio, p.status,
			p.github_username, p.skills, p.social, p.experience, p.education,
			p.version, p.created_at, p.updated_at
	`
	var row profileRow
	err = r.db.QueryRow(ctx, query,
		uuid.New(), ownerID,
		f.Company, f.Website, f.Location, f.Bio,
		f.Status, f.GithubUsername,
		skills, socialBytes,
	).Scan(row.targets(false)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, apperror.NewNotFound("user", ownerID.String())
		}
		return nil, apperror.NewInternal("failed to upsert profile", err)
	}
	return r.decode(&row), nil
}

func (r *postgresProfileRepo) Save(ctx context.Context, p *profile.Profile) error {
	experience, err := json.Marshal(p.Experience)
	if err != nil {
		return apperror.NewInternal("failed to marshal experience", err)
	}
	education, err := json.Marshal(p.Education)
	if err != nil {
		return apperror.NewInternal("failed to marshal education", err)
	}
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return apperror.NewInternal("failed to marshal skills", err)
	}
	social, err := json.Marshal(p.Social)
	if err != nil {
		return apperror.NewInternal("failed to marshal social", err)
	}

	query, args, err := psql.Update("profiles").
		SetMap(map[string]any{
			"company":         p.Company,
			"website":         p.Website,
			"location":        p.Location,
			"bio":             p.Bio,
			"status":          p.Status,
			"github_username": p.GithubUsername,
			"skills":          skills,
			"social":          social,
			"experience":      experience,
			"education":       education,
			"version":         sq.Expr("version + 1"),
			"updated_at":      p.UpdatedAt,
		}).
		Where(sq.Eq{"owner_id": p.OwnerID, "version": p.Version}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build profile update", err)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal("failed to save profile", err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE owner_id = $1)`, p.OwnerID).Scan(&exists); err != nil {
			return apperror.NewInternal("failed to check profile existence", err)
		}
		if !exists {
			return profile.ErrProfileNotFound
		}
		return fmt.Errorf("owner %s: %w", p.OwnerID, profile.ErrVersionConflict)
	}
	p.Version++
	return nil
}

func (r *postgresProfileRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	query, args, err := psql.Delete("profiles").Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build profile delete", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}
