package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/middleware"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/response"
)

type lectureService interface {
	Create(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateLectureRequest) (*models.Lecture, error)
	List(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.Lecture, bool, error)
	Get(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) (*models.Lecture, error)
	Update(ctx context.Context, actor *models.JWTClaims, academyID string, id int64, req models.UpdateLectureRequest) (*models.Lecture, error)
	Delete(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) error
	AddParticipants(ctx context.Context, actor *models.JWTClaims, academyID string, id int64, req models.ParticipantsRequest) ([]string, error)
	RemoveParticipant(ctx context.Context, actor *models.JWTClaims, academyID string, id int64, userID string) error
}

// LectureHandler exposes lecture and participant endpoints.
type LectureHandler struct {
	service lectureService
}

// NewLectureHandler creates a lecture handler.
func NewLectureHandler(svc lectureService) *LectureHandler {
	return &LectureHandler{service: svc}
}

// Create godoc
// @Summary Create lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.CreateLectureRequest true "Lecture"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id} [post]
func (h *LectureHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateLectureRequest
	if !bindJSON(c, &req, "invalid lecture payload") {
		return
	}
	lecture, err := h.service.Create(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecture)
}

// List godoc
// @Summary List lectures
// @Tags Lectures
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id} [get]
func (h *LectureHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	lectures, hit, err := h.service.List(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, lectures, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get lecture
// @Tags Lectures
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id} [get]
func (h *LectureHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	lecture, err := h.service.Get(c.Request.Context(), claims, c.Param("academy_id"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecture, nil)
}

// Update godoc
// @Summary Update lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param payload body models.UpdateLectureRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id} [patch]
func (h *LectureHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	var req models.UpdateLectureRequest
	if !bindJSON(c, &req, "invalid lecture payload") {
		return
	}
	lecture, err := h.service.Update(c.Request.Context(), claims, c.Param("academy_id"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecture, nil)
}

// Delete godoc
// @Summary Delete lecture
// @Tags Lectures
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Success 204
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id} [delete]
func (h *LectureHandler) Delete(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("academy_id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddParticipants godoc
// @Summary Enrol users in a lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param payload body models.ParticipantsRequest true "User ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/participants [post]
func (h *LectureHandler) AddParticipants(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	var req models.ParticipantsRequest
	if !bindJSON(c, &req, "invalid participants payload") {
		return
	}
	added, err := h.service.AddParticipants(c.Request.Context(), claims, c.Param("academy_id"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, added, nil)
}

// RemoveParticipant godoc
// @Summary Remove a user from a lecture
// @Tags Lectures
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param user_id path string true "User id"
// @Success 204
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/participants/{user_id} [delete]
func (h *LectureHandler) RemoveParticipant(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	if err := h.service.RemoveParticipant(c.Request.Context(), claims, c.Param("academy_id"), id, c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
