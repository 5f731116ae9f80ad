package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/response"
)

type quizService interface {
	Create(ctx context.Context, actor *models.JWTClaims, lectureID int64, req models.CreateQuizRequest) (*models.QuizCreationOutcome, error)
	Get(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.Quiz, error)
	Grade(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, req models.GradeQuizRequest) (*models.QuizResult, error)
	Results(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.QuizResults, error)
}

// QuizHandler serves generated quizzes.
type QuizHandler struct {
	service quizService
}

// NewQuizHandler creates a quiz handler.
func NewQuizHandler(svc quizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// Create godoc
// @Summary Generate a quiz
// @Description Creates the quiz exam, then asks the model for questions. On generation failure the exam is removed again and the outcome phase is COMPENSATED, or ORPHANED when removal failed too.
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param lecture_id path int true "Lecture id"
// @Param payload body models.CreateQuizRequest true "Quiz"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /quiz/{lecture_id} [post]
func (h *QuizHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	lectureID, ok := int64Param(c, "lecture_id")
	if !ok {
		return
	}
	var req models.CreateQuizRequest
	if !bindJSON(c, &req, "invalid quiz payload") {
		return
	}
	outcome, err := h.service.Create(c.Request.Context(), claims, lectureID, req)
	if err != nil {
		if outcome != nil {
			response.ErrorWithMeta(c, err, map[string]interface{}{"phase": outcome.Phase})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// Get godoc
// @Summary Quiz questions
// @Description Answers are only included for staff.
// @Tags Quizzes
// @Produce json
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quiz/{lecture_id}/{exam_id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	quiz, err := h.service.Get(c.Request.Context(), claims, lectureID, examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Grade godoc
// @Summary Submit answers
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Param payload body models.GradeQuizRequest true "Answers"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quiz/{lecture_id}/{exam_id}/grade [post]
func (h *QuizHandler) Grade(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	var req models.GradeQuizRequest
	if !bindJSON(c, &req, "invalid answers payload") {
		return
	}
	result, err := h.service.Grade(c.Request.Context(), claims, lectureID, examID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Results godoc
// @Summary Graded submissions
// @Tags Quizzes
// @Produce json
// @Param lecture_id path int true "Lecture id"
// @Param exam_id path int true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quiz/{lecture_id}/{exam_id}/results [get]
func (h *QuizHandler) Results(c *gin.Context) {
	claims, lectureID, examID, ok := examScope(c)
	if !ok {
		return
	}
	results, err := h.service.Results(c.Request.Context(), claims, lectureID, examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
