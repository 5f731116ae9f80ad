package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/response"
)

type registrationService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req models.CreateRegistrationRequest) (*models.Registration, error)
	List(ctx context.Context, actor *models.JWTClaims, filter models.RegistrationFilter) ([]models.Registration, error)
	Decide(ctx context.Context, actor *models.JWTClaims, id int64, req models.DecideRegistrationRequest) ([]models.Registration, error)
}

// RegistrationHandler serves join requests and their approval.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler creates a registration handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Create godoc
// @Summary Request to join an academy
// @Description Role defaults to the caller's account role. A student's parent is registered alongside.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body models.CreateRegistrationRequest true "Invite key"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /registration [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateRegistrationRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	if req.Role == "" {
		req.Role = claims.Role
	}
	reg, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// List godoc
// @Summary List join requests
// @Tags Registrations
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registration/{academy_id} [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	filter := models.RegistrationFilter{AcademyID: c.Param("academy_id")}
	if status := c.Query("status"); status != "" {
		s := models.RegistrationStatus(status)
		filter.Status = &s
	}
	regs, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// Decide godoc
// @Summary Approve or reject a join request
// @Description A linked student and parent request move together.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param registration_id path int true "Registration id"
// @Param payload body models.DecideRegistrationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /registration/{registration_id} [patch]
func (h *RegistrationHandler) Decide(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "registration_id")
	if !ok {
		return
	}
	var req models.DecideRegistrationRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	changed, err := h.service.Decide(c.Request.Context(), claims, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, changed, nil)
}
