package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

type userService interface {
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error)
	UploadImage(ctx context.Context, id string, file dto.UploadedFile) (*models.User, error)
	LinkChild(ctx context.Context, parentID string, req models.LinkChildRequest) error
	ListMembers(ctx context.Context, actor *models.JWTClaims, filter models.UserFilter) ([]models.User, *models.Pagination, error)
}

// UserHandler serves the caller's profile and academy member listings.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Me godoc
// @Summary Current user profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /user/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	user, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateMe godoc
// @Summary Update profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /user/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UploadImage godoc
// @Summary Upload profile image
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "jpeg or png image"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Security BearerAuth
// @Router /user/me/image [post]
func (h *UserHandler) UploadImage(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image is required"))
		return
	}
	user, err := h.service.UploadImage(c.Request.Context(), claims.UserID, detach(header))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// LinkChild godoc
// @Summary Link a student to the calling parent
// @Tags Users
// @Accept json
// @Param payload body models.LinkChildRequest true "Student id"
// @Success 204
// @Security BearerAuth
// @Router /user/child [post]
func (h *UserHandler) LinkChild(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.LinkChildRequest
	if !bindJSON(c, &req, "invalid link payload") {
		return
	}
	if err := h.service.LinkChild(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMembers godoc
// @Summary List academy members
// @Tags Users
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param role query string false "Role filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /user/academy/{academy_id} [get]
func (h *UserHandler) ListMembers(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	filter := models.UserFilter{AcademyID: c.Param("academy_id")}
	filter.Page, filter.PageSize = pageQuery(c)
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	users, page, err := h.service.ListMembers(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, page)
}
