package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/repository"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/llm"
)

type quizExamRepository interface {
	EnsureType(ctx context.Context, exec sqlx.ExtContext, academyID, name string) (*models.ExamType, error)
	Create(ctx context.Context, exec sqlx.ExtContext, exam *models.Exam) error
	FindByID(ctx context.Context, id int64) (*models.Exam, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

type quizDocumentRepository interface {
	Save(ctx context.Context, quiz *models.Quiz) error
	FindByExam(ctx context.Context, examID int64) (*models.Quiz, error)
	RecordResult(ctx context.Context, examID int64, userID string, result models.QuizResult) error
	FindResults(ctx context.Context, examID int64) (*models.QuizResults, error)
}

type quizGenerator interface {
	GenerateQuiz(ctx context.Context, keyword string, count int) (*llm.Quiz, error)
}

type scoreRecorder interface {
	RecordScore(ctx context.Context, examID int64, userID string, score float64) (*models.Exam, error)
}

// QuizConfig tunes quiz generation and grading.
type QuizConfig struct {
	QuestionCount     int
	PointsPerQuestion int
	ExamTypeName      string
}

// QuizService creates generated quizzes across the relational and document
// stores and grades submissions.
type QuizService struct {
	exams     quizExamRepository
	quizzes   quizDocumentRepository
	lectures  lectureFinder
	generator quizGenerator
	scores    scoreRecorder
	metrics   *MetricsService
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cfg       QuizConfig
	now       func() time.Time
}

// NewQuizService constructs a QuizService.
func NewQuizService(exams quizExamRepository, quizzes quizDocumentRepository, lectures lectureFinder, generator quizGenerator, scores scoreRecorder, metrics *MetricsService, tx txProvider, validate *validator.Validate, logger *zap.Logger, cfg QuizConfig) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 10
	}
	if cfg.PointsPerQuestion <= 0 {
		cfg.PointsPerQuestion = 10
	}
	if cfg.ExamTypeName == "" {
		cfg.ExamTypeName = models.QuizExamTypeName
	}
	return &QuizService{
		exams:     exams,
		quizzes:   quizzes,
		lectures:  lectures,
		generator: generator,
		scores:    scores,
		metrics:   metrics,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create files a quiz exam and generates its questions. The exam row is
// committed first. When generation or the document write fails the exam is
// deleted again and the outcome reports COMPENSATED, or ORPHANED when that
// deletion fails as well. The returned outcome is non-nil whenever the
// relational phase committed.
func (s *QuizService) Create(ctx context.Context, actor *models.JWTClaims, lectureID int64, req models.CreateQuizRequest) (*models.QuizCreationOutcome, error) {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return nil, err
	}
	lecture, err := accessibleLecture(ctx, s.lectures, actor, lectureID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	examDate := s.now().UTC().Truncate(24 * time.Hour)
	if req.ExamDate != "" {
		if examDate, err = time.Parse(models.ExamDateLayout, req.ExamDate); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "exam_date must be YYYY-MM-DD")
		}
	}
	name := req.Name
	if name == "" {
		name = req.Keyword + " " + s.cfg.ExamTypeName
	}

	exam, err := s.createExam(ctx, lecture, name, examDate)
	if err != nil {
		return nil, err
	}
	outcome := &models.QuizCreationOutcome{Exam: exam}

	quiz, genErr := s.generate(ctx, exam.ID, req.Keyword)
	if genErr == nil {
		outcome.Quiz = quiz
		outcome.Phase = models.QuizCompleted
		return outcome, nil
	}

	outcome.Phase = models.QuizCompensated
	if err := s.exams.Delete(ctx, nil, exam.ID); err != nil {
		outcome.Phase = models.QuizOrphaned
		s.logger.Error("quiz exam left without questions", zap.Int64("exam_id", exam.ID), zap.Error(err))
	}
	s.logger.Warn("quiz generation failed", zap.Int64("exam_id", exam.ID), zap.String("phase", string(outcome.Phase)), zap.Error(genErr))
	if errors.Is(genErr, llm.ErrMalformedQuiz) {
		return outcome, appErrors.Wrap(genErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "quiz generator returned an unusable quiz")
	}
	return outcome, appErrors.Wrap(genErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "quiz generation failed")
}

func (s *QuizService) createExam(ctx context.Context, lecture *models.Lecture, name string, examDate time.Time) (result *models.Exam, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	examType, err := s.exams.EnsureType(ctx, tx, lecture.AcademyID, s.cfg.ExamTypeName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare quiz exam type")
	}
	exam := &models.Exam{LectureID: lecture.ID, ExamTypeID: examType.ID, Name: name, ExamDate: examDate}
	if err = s.exams.Create(ctx, tx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz exam")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit quiz exam")
	}
	return exam, nil
}

func (s *QuizService) generate(ctx context.Context, examID int64, keyword string) (*models.Quiz, error) {
	start := time.Now()
	generated, err := s.generator.GenerateQuiz(ctx, keyword, s.cfg.QuestionCount)
	s.metrics.ObserveQuizGeneration(time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	quiz := &models.Quiz{
		ExamID:    examID,
		Keyword:   keyword,
		Questions: generated.Questions,
		Answers:   generated.Answers,
		CreatedAt: s.now().UTC(),
	}
	if err := s.quizzes.Save(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Get returns the quiz of an exam. Answers are hidden from students and parents.
func (s *QuizService) Get(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.Quiz, error) {
	quiz, err := s.load(ctx, actor, lectureID, examID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent || actor.Role == models.RoleParent {
		quiz.Answers = nil
	}
	return quiz, nil
}

// Grade scores the caller's answers, stores the per-question result and
// records the score on the exam.
func (s *QuizService) Grade(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64, req models.GradeQuizRequest) (*models.QuizResult, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answers payload")
	}
	quiz, err := s.load(ctx, actor, lectureID, examID)
	if err != nil {
		return nil, err
	}
	if len(req.Answers) != len(quiz.Answers) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "answer count does not match question count")
	}

	result := models.GradeAnswers(quiz.Answers, req.Answers, s.cfg.PointsPerQuestion)
	result.GradedAt = s.now().UTC()
	if err := s.quizzes.RecordResult(ctx, examID, actor.UserID, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store quiz result")
	}
	if _, err := s.scores.RecordScore(ctx, examID, actor.UserID, result.Score); err != nil {
		s.logger.Error("quiz result stored without exam score",
			zap.Int64("exam_id", examID), zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	return &result, nil
}

// Results returns every grading of a quiz for staff.
func (s *QuizService) Results(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.QuizResults, error) {
	if err := requireRole(actor, models.RoleChief, models.RoleTeacher); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, actor, lectureID, examID); err != nil {
		return nil, err
	}
	results, err := s.quizzes.FindResults(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz results")
	}
	return results, nil
}

func (s *QuizService) load(ctx context.Context, actor *models.JWTClaims, lectureID, examID int64) (*models.Quiz, error) {
	if _, err := accessibleLecture(ctx, s.lectures, actor, lectureID); err != nil {
		return nil, err
	}
	if _, err := lectureExam(ctx, s.exams, lectureID, examID); err != nil {
		return nil, err
	}
	quiz, err := s.quizzes.FindByExam(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return quiz, nil
}
