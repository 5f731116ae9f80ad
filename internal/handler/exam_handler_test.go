package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/service"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type scoreServiceMock struct {
	scoreService
	uploadReq    models.UploadScoresRequest
	uploadCalled bool
	uploadErr    error
	modifyUser   string
}

func (m *scoreServiceMock) Upload(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, req models.UploadScoresRequest) (*models.Exam, error) {
	m.uploadCalled = true
	m.uploadReq = req
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &models.Exam{ID: examID, LectureID: lectureID, Headcount: len(req.Scores)}, nil
}

func (m *scoreServiceMock) Modify(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, userID string, req models.ModifyScoreRequest) (*models.Exam, error) {
	m.modifyUser = userID
	return &models.Exam{ID: examID, HighScore: *req.Score}, nil
}

type exporterMock struct {
	format string
	err    error
}

func (m *exporterMock) ExportScores(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, format string) (*service.ExportResult, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportResult{Filename: "exam_7.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("user_id,score\n")}, nil
}

func examParams(lecture, exam string) []gin.Param {
	return []gin.Param{{Key: "academy_id", Value: "acad"}, {Key: "lecture_id", Value: lecture}, {Key: "exam_id", Value: exam}}
}

func TestExamHandlerUploadScores(t *testing.T) {
	scores := &scoreServiceMock{}
	h := NewExamHandler(nil, scores, nil)

	c, w := testContext(http.MethodPost, "/lecture/acad/3/exam/7/score",
		strings.NewReader(`{"scores":[{"user_id":"kid","score":90},{"user_id":"kid2"}]}`), teacherClaims, examParams("3", "7")...)
	h.UploadScores(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, scores.uploadCalled)
	require.Len(t, scores.uploadReq.Scores, 2)
	assert.Nil(t, scores.uploadReq.Scores[1].Score)
}

func TestExamHandlerRejectsBadIdentifiers(t *testing.T) {
	scores := &scoreServiceMock{}
	h := NewExamHandler(nil, scores, nil)

	for _, params := range [][]gin.Param{examParams("x", "7"), examParams("3", "0"), examParams("-1", "7")} {
		c, w := testContext(http.MethodPost, "/score", strings.NewReader(`{"scores":[]}`), teacherClaims, params...)
		h.UploadScores(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.False(t, scores.uploadCalled)
}

func TestExamHandlerRequiresClaims(t *testing.T) {
	h := NewExamHandler(nil, &scoreServiceMock{}, nil)

	c, w := testContext(http.MethodPost, "/score", strings.NewReader(`{}`), nil, examParams("3", "7")...)
	h.UploadScores(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExamHandlerPropagatesServiceError(t *testing.T) {
	h := NewExamHandler(nil, &scoreServiceMock{uploadErr: appErrors.Clone(appErrors.ErrNotFound, "unknown user kid9")}, nil)

	c, w := testContext(http.MethodPost, "/score", strings.NewReader(`{"scores":[{"user_id":"kid9"}]}`), teacherClaims, examParams("3", "7")...)
	h.UploadScores(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "unknown user kid9", env.Message)
}

func TestExamHandlerModifyScoreUsesPathUser(t *testing.T) {
	scores := &scoreServiceMock{}
	h := NewExamHandler(nil, scores, nil)

	params := append(examParams("3", "7"), gin.Param{Key: "user_id", Value: "kid"})
	c, w := testContext(http.MethodPatch, "/score/kid", strings.NewReader(`{"score":77.5}`), teacherClaims, params...)
	h.ModifyScore(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kid", scores.modifyUser)
}

func TestExamHandlerExportWritesAttachment(t *testing.T) {
	exports := &exporterMock{}
	h := NewExamHandler(nil, nil, exports)

	c, w := testContext(http.MethodGet, "/score/export", nil, chiefClaims, examParams("3", "7")...)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, `attachment; filename="exam_7.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "user_id,score\n", w.Body.String())
}

func TestExamHandlerExportPassesFormat(t *testing.T) {
	exports := &exporterMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	h := NewExamHandler(nil, nil, exports)

	c, w := testContext(http.MethodGet, "/score/export?format=docx", nil, chiefClaims, examParams("3", "7")...)
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "docx", exports.format)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
