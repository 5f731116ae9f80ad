package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/export"
)

type scoreSheetSource interface {
	Sheet(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.ExamScoreSheet, error)
}

// ExportResult is a rendered document ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders exam score sheets as csv, pdf or xlsx.
type ExportService struct {
	sheets scoreSheetSource
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(sheets scoreSheetSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{sheets: sheets, logger: logger, now: time.Now}
}

var scoreSheetHeaders = []string{"User ID", "Name", "Score"}

// ExportScores renders the score sheet of an exam in format.
func (s *ExportService) ExportScores(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, format string) (*ExportResult, error) {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return nil, err
	}
	exporter, err := export.ForFormat(strings.ToLower(format))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	sheet, err := s.sheets.Sheet(ctx, actor, lectureID, examID)
	if err != nil {
		return nil, err
	}

	payload, err := exporter.Render(scoreDataset(sheet))
	if err != nil {
		s.logger.Error("score export render failed", zap.Int64("exam_id", examID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    s.filename(sheet.Exam, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Content:     payload,
	}, nil
}

func scoreDataset(sheet *models.ExamScoreSheet) export.Dataset {
	rows := make([]map[string]string, 0, len(sheet.Scores)+1)
	for _, score := range sheet.Scores {
		rows = append(rows, map[string]string{
			"User ID": score.UserID,
			"Name":    score.UserName,
			"Score":   formatScore(score.Score),
		})
	}
	rows = append(rows, map[string]string{
		"User ID": "",
		"Name":    fmt.Sprintf("Average (n=%d, low %s, high %s)", sheet.Exam.Headcount, formatScore(sheet.Exam.LowScore), formatScore(sheet.Exam.HighScore)),
		"Score":   formatScore(sheet.Exam.AverageScore),
	})
	return export.Dataset{
		Title:   sheet.Exam.Name,
		Headers: scoreSheetHeaders,
		Rows:    rows,
	}
}

func formatScore(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func (s *ExportService) filename(exam models.Exam, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("exam_%d_%s_%s.%s", exam.ID, sanitizeFilename(exam.Name), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
