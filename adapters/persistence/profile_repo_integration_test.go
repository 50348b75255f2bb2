package persistence

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type ProfileRepoIntegrationTestSuite struct {
	suite.Suite
	dbPool      *pgxpool.Pool
	pgContainer *postgres.PostgresContainer
	profileRepo profile.Repository
	postRepo    post.Repository
	userRepo    user.Repository
	testOwner   user.User
}

func (s *ProfileRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		s.T().Fatalf("Failed to create migrate instance: %s", err)
	}
	if err := m.Up(); err != nil {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool

	s.profileRepo = NewPostgresProfileRepo(s.dbPool, logger.NewNopLogger())
	s.postRepo = NewPostgresPostRepo(s.dbPool)
	s.userRepo = NewPostgresUserRepo(s.dbPool)
}

func (s *ProfileRepoIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.dbPool.Exec(ctx, `TRUNCATE posts, profiles, users`)
	s.Require().NoError(err)

	s.testOwner = user.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Avatar: "//gravatar/ada"}
	_, err = s.dbPool.Exec(ctx, `INSERT INTO users (id, name, email, avatar) VALUES ($1, $2, $3, $4)`,
		s.testOwner.ID, s.testOwner.Name, s.testOwner.Email, s.testOwner.Avatar)
	s.Require().NoError(err)
}

func (s *ProfileRepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func TestProfileRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(ProfileRepoIntegrationTestSuite))
}

func strPtr(s string) *string { return &s }

func (s *ProfileRepoIntegrationTestSuite) Test_Upsert_InsertThenUpdate() {
	ctx := context.Background()

	created, err := s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{
		Company: strPtr("Acme"),
		Bio:     strPtr("hello"),
		Status:  "Developer",
		Skills:  []string{"go", "sql"},
		Social:  profile.Social{profile.SocialTwitter: "https://twitter.com/ada"},
	})
	s.Require().NoError(err)
	s.Equal(s.testOwner.ID, created.OwnerID)
	s.Equal([]string{"go", "sql"}, created.Skills)
	s.Empty(created.Experience)

	updated, err := s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{
		Website: strPtr("https://ada.dev"),
		Status:  "Lead",
		Skills:  []string{"rust"},
	})
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal("Acme", updated.Company, "absent scalar must be kept")
	s.Equal("https://ada.dev", updated.Website)
	s.Equal("Lead", updated.Status)
	s.Equal([]string{"rust"}, updated.Skills)
	s.Empty(updated.Social)
	s.Greater(updated.Version, created.Version)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Upsert_UnknownOwnerIsNotFound() {
	ctx := context.Background()

	_, err := s.profileRepo.Upsert(ctx, uuid.New(), profile.UpsertFields{
		Status: "Developer",
		Skills: []string{"go"},
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperror.ErrNotFound)
	s.Equal(http.StatusNotFound, apperror.ToHTTPStatus(err))
}

func (s *ProfileRepoIntegrationTestSuite) Test_GetByOwner_JoinsOwner() {
	ctx := context.Background()
	created, err := s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{Status: "Dev", Skills: []string{"go"}})
	s.Require().NoError(err)

	found, err := s.profileRepo.GetByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.Owner)
	s.Equal("Ada", found.Owner.Name)
	s.Equal("//gravatar/ada", found.Owner.Avatar)

	byID, err := s.profileRepo.GetByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(s.testOwner.ID, byID.OwnerID)

	_, err = s.profileRepo.GetByOwner(ctx, uuid.New())
	s.ErrorIs(err, profile.ErrProfileNotFound)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Save_RoundTripsEntries() {
	ctx := context.Background()
	_, err := s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{Status: "Dev", Skills: []string{"go"}})
	s.Require().NoError(err)

	p, err := s.profileRepo.GetByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)

	to := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	p.PrependExperience(profile.Experience{ID: uuid.New(), Title: "Engineer", Company: "Acme", From: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), To: &to})
	p.PrependEducation(profile.Education{ID: uuid.New(), School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: time.Date(2014, 9, 1, 0, 0, 0, 0, time.UTC), Current: true})
	s.Require().NoError(s.profileRepo.Save(ctx, p))

	stored, err := s.profileRepo.GetByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Experience, 1)
	s.Equal(p.Experience[0].ID, stored.Experience[0].ID)
	s.Require().NotNil(stored.Experience[0].To)
	s.True(to.Equal(*stored.Experience[0].To))
	s.Require().Len(stored.Education, 1)
	s.Nil(stored.Education[0].To)
	s.Equal(p.Version, stored.Version)
}

func (s *ProfileRepoIntegrationTestSuite) Test_Save_StaleVersionConflicts() {
	ctx := context.Background()
	_, err := s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{Status: "Dev", Skills: []string{"go"}})
	s.Require().NoError(err)

	first, err := s.profileRepo.GetByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)
	second, err := s.profileRepo.GetByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)

	first.PrependExperience(profile.Experience{ID: uuid.New(), Title: "one", From: time.Now().UTC()})
	s.Require().NoError(s.profileRepo.Save(ctx, first))

	second.PrependExperience(profile.Experience{ID: uuid.New(), Title: "two", From: time.Now().UTC()})
	s.ErrorIs(s.profileRepo.Save(ctx, second), profile.ErrVersionConflict)

	missing := profile.New(uuid.New(), profile.UpsertFields{Status: "Dev"}, time.Now())
	s.ErrorIs(s.profileRepo.Save(ctx, missing), profile.ErrProfileNotFound)
}

func (s *ProfileRepoIntegrationTestSuite) Test_ListAll_OrderedByCreation() {
	ctx := context.Background()
	other := uuid.New()
	_, err := s.dbPool.Exec(ctx, `INSERT INTO users (id, name, email) VALUES ($1, 'Bea', 'bea@example.com')`, other)
	s.Require().NoError(err)

	_, err = s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{Status: "A", Skills: []string{"go"}})
	s.Require().NoError(err)
	_, err = s.profileRepo.Upsert(ctx, other, profile.UpsertFields{Status: "B", Skills: []string{"go"}})
	s.Require().NoError(err)

	all, err := s.profileRepo.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(s.testOwner.ID, all[0].OwnerID)
	s.Equal(other, all[1].OwnerID)
	s.Equal("Bea", all[1].Owner.Name)
}

func (s *ProfileRepoIntegrationTestSuite) Test_CascadeDeletes_AreIdempotent() {
	ctx := context.Background()
	_, err := s.profileRepo.Upsert(ctx, s.testOwner.ID, profile.UpsertFields{Status: "Dev", Skills: []string{"go"}})
	s.Require().NoError(err)
	_, err = s.dbPool.Exec(ctx, `INSERT INTO posts (id, owner_id, text) VALUES ($1, $2, 'hello')`, uuid.New(), s.testOwner.ID)
	s.Require().NoError(err)

	posts, err := s.postRepo.ListByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)
	s.Len(posts, 1)

	for i := 0; i < 2; i++ {
		s.Require().NoError(s.postRepo.DeleteByOwner(ctx, s.testOwner.ID))
		s.Require().NoError(s.profileRepo.DeleteByOwner(ctx, s.testOwner.ID))
		s.Require().NoError(s.userRepo.Delete(ctx, s.testOwner.ID))
	}

	posts, err = s.postRepo.ListByOwner(ctx, s.testOwner.ID)
	s.Require().NoError(err)
	s.Empty(posts)
	_, err = s.profileRepo.GetByOwner(ctx, s.testOwner.ID)
	s.ErrorIs(err, profile.ErrProfileNotFound)
	_, err = s.userRepo.FindByID(ctx, s.testOwner.ID)
	s.ErrorIs(err, user.ErrUserNotFound)
}
