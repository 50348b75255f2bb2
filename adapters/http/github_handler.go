package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
)

type GithubHandler struct {
	repositoriesUseCase *githubUC.RepositoriesUseCase
}

func NewGithubHandler(uc *githubUC.RepositoriesUseCase) *GithubHandler {
	return &GithubHandler{repositoriesUseCase: uc}
}

func (h *GithubHandler) GetRepositories(c *gin.Context) {
	output, err := h.repositoriesUseCase.Execute(c.Request.Context(), githubUC.GetRepositoriesInput{
		Username: c.Param("username"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Repositories)
}
