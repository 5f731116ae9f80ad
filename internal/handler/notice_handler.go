package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/middleware"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

type noticeService interface {
	Create(ctx context.Context, actor *models.JWTClaims, academyID string, lectureID int64, req models.CreateNoticeRequest, files []dto.UploadedFile) (*models.Notice, error)
	List(ctx context.Context, actor *models.JWTClaims, filter models.NoticeFilter) ([]models.Notice, *models.Pagination, bool, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Notice, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateNoticeRequest, files []dto.UploadedFile) (*models.Notice, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// NoticeHandler serves notices and their attachments.
type NoticeHandler struct {
	service noticeService
}

// NewNoticeHandler creates a notice handler.
func NewNoticeHandler(svc noticeService) *NoticeHandler {
	return &NoticeHandler{service: svc}
}

// Create godoc
// @Summary Post a notice
// @Description Lecture 0 posts an academy-wide notice. Responds 502 NOTICE_FILES_PENDING when attachments could not be mirrored yet.
// @Tags Notices
// @Accept multipart/form-data
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id or 0"
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param files formData file false "Attachments"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /notice/{academy_id}/{lecture_id} [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	lectureID, err := strconv.ParseInt(c.Param("lecture_id"), 10, 64)
	if err != nil || lectureID < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid lecture_id"))
		return
	}
	var req models.CreateNoticeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}
	files, err := uploadedFiles(c, "files")
	if err != nil {
		response.Error(c, err)
		return
	}
	notice, err := h.service.Create(c.Request.Context(), claims, c.Param("academy_id"), lectureID, req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// List godoc
// @Summary List notices
// @Tags Notices
// @Produce json
// @Param academy_id query string true "Academy id"
// @Param lecture_id query int false "Lecture id, 0 for academy-wide"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notice/list [get]
func (h *NoticeHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	filter := models.NoticeFilter{AcademyID: c.Query("academy_id")}
	filter.Page, filter.PageSize = pageQuery(c)
	if raw := c.Query("lecture_id"); raw != "" {
		lectureID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || lectureID < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid lecture_id"))
			return
		}
		filter.LectureID = &lectureID
	}
	notices, page, hit, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, notices, page, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Read a notice
// @Description Counts a view and returns presigned attachment URLs.
// @Tags Notices
// @Produce json
// @Param notice_id path string true "Notice id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notice/{notice_id} [get]
func (h *NoticeHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	notice, err := h.service.Get(c.Request.Context(), claims, c.Param("notice_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Update godoc
// @Summary Edit a notice
// @Tags Notices
// @Accept multipart/form-data
// @Produce json
// @Param notice_id path string true "Notice id"
// @Param title formData string false "Title"
// @Param content formData string false "Content"
// @Param delete_files formData []string false "Attachment names to drop"
// @Param files formData file false "New attachments"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notice/{notice_id} [patch]
func (h *NoticeHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateNoticeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}
	files, err := uploadedFiles(c, "files")
	if err != nil {
		response.Error(c, err)
		return
	}
	notice, err := h.service.Update(c.Request.Context(), claims, c.Param("notice_id"), req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Delete godoc
// @Summary Delete a notice and its attachments
// @Tags Notices
// @Param notice_id path string true "Notice id"
// @Success 204
// @Security BearerAuth
// @Router /notice/{notice_id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("notice_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
