package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) ownerID(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("ownerID not found in context", nil))
	}
	return ownerID, ok
}

func (h *ProfileHandler) respond(c *gin.Context, output *profileUC.ProfileOutput, err error) {
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	output, err := h.profileUseCase.ExecuteGetOwnProfile(c.Request.Context(), profileUC.GetProfileInput{OwnerID: ownerID})
	h.respond(c, output, err)
}

func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.NewInvalidInput("invalid JSON body for profile", err))
		return
	}

	output, err := h.profileUseCase.ExecuteUpsertProfile(c.Request.Context(), profileUC.UpsertProfileInput{
		OwnerID: ownerID,
		Raw:     req.ToRaw(),
	})
	h.respond(c, output, err)
}

func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	output, err := h.profileUseCase.ExecuteListProfiles(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTOs(output.Profiles))
}

func (h *ProfileHandler) GetProfileByUser(c *gin.Context) {
	output, err := h.profileUseCase.ExecuteGetProfileByOwner(c.Request.Context(), profileUC.GetProfileByOwnerInput{
		RawOwnerID: c.Param("user_id"),
	})
	h.respond(c, output, err)
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	if err := h.profileUseCase.ExecuteDeleteProfile(c.Request.Context(), profileUC.DeleteProfileInput{OwnerID: ownerID}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user removed"})
}

func (h *ProfileHandler) AddExperience(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req AddExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.NewInvalidInput("invalid JSON body for experience", err))
		return
	}

	output, err := h.profileUseCase.ExecuteAddExperience(c.Request.Context(), profileUC.AddExperienceInput{
		OwnerID: ownerID,
		Raw:     req.ToRaw(),
	})
	h.respond(c, output, err)
}

func (h *ProfileHandler) RemoveExperience(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	output, err := h.profileUseCase.ExecuteRemoveExperience(c.Request.Context(), profileUC.RemoveEntryInput{
		OwnerID: ownerID,
		EntryID: c.Param("exp_id"),
	})
	h.respond(c, output, err)
}

func (h *ProfileHandler) AddEducation(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req AddEducationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.NewInvalidInput("invalid JSON body for education", err))
		return
	}

	output, err := h.profileUseCase.ExecuteAddEducation(c.Request.Context(), profileUC.AddEducationInput{
		OwnerID: ownerID,
		Raw:     req.ToRaw(),
	})
	h.respond(c, output, err)
}

func (h *ProfileHandler) RemoveEducation(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	output, err := h.profileUseCase.ExecuteRemoveEducation(c.Request.Context(), profileUC.RemoveEntryInput{
		OwnerID: ownerID,
		EntryID: c.Param("edu_id"),
	})
	h.respond(c, output, err)
}
