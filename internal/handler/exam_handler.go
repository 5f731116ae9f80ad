package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/response"
)

type examService interface {
	CreateType(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateExamTypeRequest) (*models.ExamType, error)
	ListTypes(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.ExamType, error)
	DeleteType(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) error
	Create(ctx context.Context, actor *models.JWTClaims, lectureID int64, req models.CreateExamRequest) (*models.Exam, error)
	List(ctx context.Context, actor *models.JWTClaims, lectureID int64) ([]models.Exam, error)
	Get(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.Exam, error)
	Delete(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) error
}

type scoreService interface {
	Upload(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, req models.UploadScoresRequest) (*models.Exam, error)
	Modify(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, userID string, req models.ModifyScoreRequest) (*models.Exam, error)
	Recalculate(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.Exam, error)
	Sheet(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.ExamScoreSheet, error)
}

type scoreExporter interface {
	ExportScores(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, format string) (*service.ExportResult, error)
}

// ExamHandler serves exam types, exams and their score sheets.
type ExamHandler struct {
	exams   examService
	scores  scoreService
	exports scoreExporter
}

// NewExamHandler creates an exam handler.
func NewExamHandler(exams examService, scores scoreService, exports scoreExporter) *ExamHandler {
	return &ExamHandler{exams: exams, scores: scores, exports: exports}
}

// CreateType godoc
// @Summary Create exam type
// @Tags Exams
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.CreateExamTypeRequest true "Exam type"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /exam-type/{academy_id} [post]
func (h *ExamHandler) CreateType(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateExamTypeRequest
	if !bindJSON(c, &req, "invalid exam type payload") {
		return
	}
	examType, err := h.exams.CreateType(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, examType)
}

// ListTypes godoc
// @Summary List exam types
// @Tags Exams
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exam-type/{academy_id} [get]
func (h *ExamHandler) ListTypes(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	types, err := h.exams.ListTypes(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// DeleteType godoc
// @Summary Delete exam type
// @Tags Exams
// @Param academy_id path string true "Academy id"
// @Param type_id path int true "Exam type id"
// @Success 204
// @Security BearerAuth
// @Router /exam-type/{academy_id}/{type_id} [delete]
func (h *ExamHandler) DeleteType(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "type_id")
	if !ok {
		return
	}
	if err := h.exams.DeleteType(c.Request.Context(), claims, c.Param("academy_id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Create godoc
// @Summary Create exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param payload body models.CreateExamRequest true "Exam"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam [post]
func (h *ExamHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	lectureID, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	var req models.CreateExamRequest
	if !bindJSON(c, &req, "invalid exam payload") {
		return
	}
	exam, err := h.exams.Create(c.Request.Context(), claims, lectureID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// List godoc
// @Summary List exams of a lecture
// @Tags Exams
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam [get]
func (h *ExamHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	lectureID, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	exams, err := h.exams.List(c.Request.Context(), claims, lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Get godoc
// @Summary Get exam with its aggregate scores
// @Tags Exams
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	exam, err := h.exams.Get(c.Request.Context(), claims, lectureID, examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Delete godoc
// @Summary Delete exam
// @Tags Exams
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Success 204
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	if err := h.exams.Delete(c.Request.Context(), claims, lectureID, examID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadScores godoc
// @Summary Upload a batch of scores
// @Description The whole batch is rejected when any score is outside 0-100. Missing scores count as 0.
// @Tags Scores
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Param payload body models.UploadScoresRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score [post]
func (h *ExamHandler) UploadScores(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	var req models.UploadScoresRequest
	if !bindJSON(c, &req, "invalid scores payload") {
		return
	}
	exam, err := h.scores.Upload(c.Request.Context(), claims, lectureID, examID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Scores godoc
// @Summary Score sheet
// @Description Students see their own score, parents their children's.
// @Tags Scores
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score [get]
func (h *ExamHandler) Scores(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	sheet, err := h.scores.Sheet(c.Request.Context(), claims, lectureID, examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// ModifyScore godoc
// @Summary Change one user's score
// @Tags Scores
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Param user_id path string true "User id"
// @Param payload body models.ModifyScoreRequest true "Score"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score/{user_id} [patch]
func (h *ExamHandler) ModifyScore(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	var req models.ModifyScoreRequest
	if !bindJSON(c, &req, "invalid score payload") {
		return
	}
	exam, err := h.scores.Modify(c.Request.Context(), claims, lectureID, examID, c.Param("user_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Recalculate godoc
// @Summary Recompute exam aggregates from stored scores
// @Tags Scores
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score/recalculate [post]
func (h *ExamHandler) Recalculate(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	exam, err := h.scores.Recalculate(c.Request.Context(), claims, lectureID, examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Export godoc
// @Summary Download the score sheet
// @Tags Scores
// @Produce octet-stream
// @Param academy_id path string true "Academy id"
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /lecture/{academy_id}/{lecture_id}/exam/{exam_id}/score/export [get]
func (h *ExamHandler) Export(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	res, err := h.exports.ExportScores(c.Request.Context(), claims, lectureID, examID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, res.ContentType, res.Content)
}

func examScope(c *gin.Context) (*models.JWTClaims, int64, int64, bool) {
	claims := mustClaims(c)
	if claims == nil {
		return nil, 0, 0, false
	}
	lectureID, ok := int64Param(c, "lecture_id")
	if !ok {
		return nil, 0, 0, false
	}
	examID, ok := int64Param(c, "exam_id")
	if !ok {
		return nil, 0, 0, false
	}
	return claims, lectureID, examID, true
}
