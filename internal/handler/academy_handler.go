package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/response"
)

type academyService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req models.CreateAcademyRequest) (*models.Academy, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Academy, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateAcademyRequest) (*models.Academy, error)
	SetStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateAcademyStatusRequest) (*models.Academy, error)
	RotateInviteKey(ctx context.Context, actor *models.JWTClaims, id string) (*models.Academy, error)
	Recount(ctx context.Context, actor *models.JWTClaims, id string) (*models.Academy, error)
}

// AcademyHandler exposes academy management endpoints.
type AcademyHandler struct {
	service academyService
}

// NewAcademyHandler creates an academy handler.
func NewAcademyHandler(svc academyService) *AcademyHandler {
	return &AcademyHandler{service: svc}
}

// Create godoc
// @Summary Create academy
// @Description The calling chief becomes affiliated with the new academy, which starts PENDING.
// @Tags Academies
// @Accept json
// @Produce json
// @Param payload body models.CreateAcademyRequest true "Academy"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /academy [post]
func (h *AcademyHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateAcademyRequest
	if !bindJSON(c, &req, "invalid academy payload") {
		return
	}
	academy, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, academy)
}

// Get godoc
// @Summary Get academy
// @Tags Academies
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academy/{academy_id} [get]
func (h *AcademyHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	academy, err := h.service.Get(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, academy, nil)
}

// Update godoc
// @Summary Update academy
// @Tags Academies
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.UpdateAcademyRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academy/{academy_id} [patch]
func (h *AcademyHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateAcademyRequest
	if !bindJSON(c, &req, "invalid academy payload") {
		return
	}
	academy, err := h.service.Update(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, academy, nil)
}

// SetStatus godoc
// @Summary Approve or reject an academy
// @Tags Academies
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.UpdateAcademyStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academy/{academy_id}/status [patch]
func (h *AcademyHandler) SetStatus(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateAcademyStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	academy, err := h.service.SetStatus(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, academy, nil)
}

// RotateInviteKey godoc
// @Summary Issue a new invite key
// @Tags Academies
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academy/{academy_id}/invite-key [post]
func (h *AcademyHandler) RotateInviteKey(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	academy, err := h.service.RotateInviteKey(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, academy, nil)
}

// Recount godoc
// @Summary Recompute member counts
// @Tags Academies
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academy/{academy_id}/recount [post]
func (h *AcademyHandler) Recount(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	academy, err := h.service.Recount(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, academy, nil)
}
