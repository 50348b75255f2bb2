package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	githubAdapter "github.com/khoahotran/devconnector/adapters/github"
	"github.com/khoahotran/devconnector/adapters/lock"
	"github.com/khoahotran/devconnector/adapters/persistence/memory"
	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type ProfileE2ETestSuite struct {
	suite.Suite
	Router   *gin.Engine
	github   *httptest.Server
	users    *memory.UserStore
	jwtSvc   *auth.JWTService
	testUser user.User
	token    string
}

func (s *ProfileE2ETestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	s.github = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/repos" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"hello-world"}]`))
	}))
}

func (s *ProfileE2ETestSuite) TearDownSuite() {
	s.github.Close()
}

func (s *ProfileE2ETestSuite) SetupTest() {
	appLogger := logger.NewNopLogger()

	s.users = memory.NewUserStore()
	s.testUser = user.User{ID: uuid.New(), Name: "Ada Lovelace", Email: "ada@example.com", Avatar: "//gravatar/ada"}
	s.users.Put(s.testUser)

	s.jwtSvc = auth.NewJWTService("e2e-secret", time.Hour)
	token, err := s.jwtSvc.GenerateToken(s.testUser.ID)
	s.Require().NoError(err)
	s.token = token

	profileUseCase := profileUC.NewProfileUseCase(
		memory.NewProfileStore(s.users), memory.NewPostStore(), s.users,
		lock.NewMemoryLocker(), nil, appLogger,
	)
	githubClient := githubAdapter.NewClient(githubAdapter.Config{BaseURL: s.github.URL, Timeout: time.Second}, appLogger)
	repositoriesUseCase := githubUC.NewRepositoriesUseCase(githubClient, nil, 0, appLogger)

	s.Router = NewRouter(RouterDeps{
		ProfileHandler: NewProfileHandler(profileUseCase, appLogger),
		GithubHandler:  NewGithubHandler(repositoriesUseCase),
		JWTService:     s.jwtSvc,
		Logger:         appLogger,
	})
}

func TestProfileE2ESuite(t *testing.T) {
	suite.Run(t, new(ProfileE2ETestSuite))
}

func (s *ProfileE2ETestSuite) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *ProfileE2ETestSuite) decode(w *httptest.ResponseRecorder, into any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), into), w.Body.String())
}

func (s *ProfileE2ETestSuite) createProfile() ProfileDTO {
	w := s.do(http.MethodPost, "/api/profile", gin.H{
		"status":         "Developer",
		"skills":         "go, postgres ,kafka",
		"githubusername": "octocat",
		"twitter":        "https://twitter.com/ada",
	}, true)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var dto ProfileDTO
	s.decode(w, &dto)
	return dto
}

func (s *ProfileE2ETestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/api/health", nil, false)
	s.Equal(http.StatusOK, w.Code)
}

func (s *ProfileE2ETestSuite) TestPrivateRoutesRequireToken() {
	w := s.do(http.MethodGet, "/api/profile/me", nil, false)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"msg":"no token, authorization denied"}`, w.Body.String())

	req, _ := http.NewRequest(http.MethodGet, "/api/profile/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *ProfileE2ETestSuite) TestUpsertValidation() {
	w := s.do(http.MethodPost, "/api/profile", gin.H{}, true)
	s.Equal(http.StatusBadRequest, w.Code)

	var body struct {
		Errors []struct {
			Field string `json:"field"`
			Msg   string `json:"msg"`
		} `json:"errors"`
	}
	s.decode(w, &body)
	s.Require().Len(body.Errors, 2)
	s.Equal("status", body.Errors[0].Field)
	s.Equal("skills", body.Errors[1].Field)
}

func (s *ProfileE2ETestSuite) TestUpsertWithoutBody() {
	req, _ := http.NewRequest(http.MethodPost, "/api/profile", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"errors"`)
}

func (s *ProfileE2ETestSuite) TestUpsertAndRead() {
	created := s.createProfile()
	s.Equal([]string{"go", "postgres", "kafka"}, created.Skills)
	s.Equal(map[string]string{"twitter": "https://twitter.com/ada"}, created.Social)

	w := s.do(http.MethodGet, "/api/profile/me", nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	var me map[string]any
	s.decode(w, &me)
	owner, ok := me["user"].(map[string]any)
	s.Require().True(ok, "owner summary expected, got %v", me["user"])
	s.Equal("Ada Lovelace", owner["name"])
	s.Equal("//gravatar/ada", owner["avatar"])

	w = s.do(http.MethodGet, "/api/profile", nil, false)
	s.Require().Equal(http.StatusOK, w.Code)
	var all []ProfileDTO
	s.decode(w, &all)
	s.Len(all, 1)

	w = s.do(http.MethodGet, "/api/profile/user/"+s.testUser.ID.String(), nil, false)
	s.Equal(http.StatusOK, w.Code)
}

func (s *ProfileE2ETestSuite) TestGetProfileByUser_NotFound() {
	for _, id := range []string{"garbage", uuid.NewString()} {
		w := s.do(http.MethodGet, "/api/profile/user/"+id, nil, false)
		s.Equal(http.StatusBadRequest, w.Code, id)
		s.Contains(w.Body.String(), "there is no profile for this user")
	}
}

func (s *ProfileE2ETestSuite) TestGetMyProfile_Missing() {
	w := s.do(http.MethodGet, "/api/profile/me", nil, true)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ProfileE2ETestSuite) TestExperienceFlow() {
	s.createProfile()

	w := s.do(http.MethodPut, "/api/profile/experience", gin.H{"title": "Engineer"}, true)
	s.Equal(http.StatusBadRequest, w.Code)

	for _, title := range []string{"E1", "E2"} {
		w = s.do(http.MethodPut, "/api/profile/experience", gin.H{
			"title": title, "company": "Acme", "from": "2019-03-01",
		}, true)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	}
	var dto ProfileDTO
	s.decode(w, &dto)
	s.Require().Len(dto.Experience, 2)
	s.Equal("E2", dto.Experience[0].Title)

	w = s.do(http.MethodDelete, "/api/profile/experience/"+uuid.NewString(), nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &dto)
	s.Len(dto.Experience, 2)

	w = s.do(http.MethodDelete, "/api/profile/experience/"+dto.Experience[1].ID, nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &dto)
	s.Require().Len(dto.Experience, 1)
	s.Equal("E2", dto.Experience[0].Title)
}

func (s *ProfileE2ETestSuite) TestEducationFlow() {
	s.createProfile()

	w := s.do(http.MethodPut, "/api/profile/education", gin.H{
		"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2010-09-01", "to": "2014-06-01",
	}, true)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var dto ProfileDTO
	s.decode(w, &dto)
	s.Require().Len(dto.Education, 1)

	w = s.do(http.MethodDelete, "/api/profile/education/"+dto.Education[0].ID, nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &dto)
	s.Empty(dto.Education)
}

func (s *ProfileE2ETestSuite) TestExperienceWithoutProfile() {
	w := s.do(http.MethodPut, "/api/profile/experience", gin.H{
		"title": "Engineer", "company": "Acme", "from": "2019-03-01",
	}, true)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ProfileE2ETestSuite) TestDeleteAccount() {
	s.createProfile()

	w := s.do(http.MethodDelete, "/api/profile", nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"msg":"user removed"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/profile", nil, false)
	s.JSONEq(`[]`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/profile", nil, true)
	s.Equal(http.StatusOK, w.Code)
}

func (s *ProfileE2ETestSuite) TestGithubRepositories() {
	w := s.do(http.MethodGet, "/api/profile/github/octocat", nil, false)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[{"id":1,"name":"hello-world"}]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/profile/github/nobody", nil, false)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "no github profile found")
}
