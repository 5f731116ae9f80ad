package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/repository"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/llm"
)

type fakeQuizExams struct {
	exams     map[int64]*models.Exam
	deleteErr error
	deleted   []int64
}

func (f *fakeQuizExams) EnsureType(ctx context.Context, exec sqlx.ExtContext, academyID, name string) (*models.ExamType, error) {
	return &models.ExamType{ID: 11, AcademyID: academyID, Name: name}, nil
}

func (f *fakeQuizExams) Create(ctx context.Context, exec sqlx.ExtContext, exam *models.Exam) error {
	exam.ID = int64(len(f.exams) + 100)
	copy := *exam
	f.exams[exam.ID] = &copy
	return nil
}

func (f *fakeQuizExams) FindByID(ctx context.Context, id int64) (*models.Exam, error) {
	if e, ok := f.exams[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeQuizExams) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.exams, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeQuizDocs struct {
	quizzes map[int64]*models.Quiz
	results map[int64]map[string]models.QuizResult
	saveErr error
}

func (f *fakeQuizDocs) Save(ctx context.Context, quiz *models.Quiz) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.quizzes[quiz.ExamID] = quiz
	return nil
}

func (f *fakeQuizDocs) FindByExam(ctx context.Context, examID int64) (*models.Quiz, error) {
	q, ok := f.quizzes[examID]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	copy := *q
	copy.Answers = append([]string(nil), q.Answers...)
	return &copy, nil
}

func (f *fakeQuizDocs) RecordResult(ctx context.Context, examID int64, userID string, result models.QuizResult) error {
	if f.results[examID] == nil {
		f.results[examID] = map[string]models.QuizResult{}
	}
	f.results[examID][userID] = result
	return nil
}

func (f *fakeQuizDocs) FindResults(ctx context.Context, examID int64) (*models.QuizResults, error) {
	return &models.QuizResults{ExamID: examID, Results: f.results[examID]}, nil
}

type stubGenerator struct {
	quiz *llm.Quiz
	err  error
}

func (g stubGenerator) GenerateQuiz(ctx context.Context, keyword string, count int) (*llm.Quiz, error) {
	return g.quiz, g.err
}

type recordedScore struct {
	examID int64
	userID string
	score  float64
}

type fakeScoreRecorder struct {
	calls []recordedScore
}

func (f *fakeScoreRecorder) RecordScore(ctx context.Context, examID int64, userID string, score float64) (*models.Exam, error) {
	f.calls = append(f.calls, recordedScore{examID, userID, score})
	return &models.Exam{ID: examID}, nil
}

type quizFixture struct {
	svc    *QuizService
	exams  *fakeQuizExams
	docs   *fakeQuizDocs
	scores *fakeScoreRecorder
}

func newQuizFixture(t *testing.T, gen quizGenerator) *quizFixture {
	t.Helper()
	db, mock := newMockTx(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	exams := &fakeQuizExams{exams: map[int64]*models.Exam{}}
	docs := &fakeQuizDocs{quizzes: map[int64]*models.Quiz{}, results: map[int64]map[string]models.QuizResult{}}
	scores := &fakeScoreRecorder{}
	svc := NewQuizService(exams, docs, fakeLectures{3: {ID: 3, AcademyID: "acad"}}, gen, scores, nil, db, nil, nil, QuizConfig{QuestionCount: 3, PointsPerQuestion: 40})
	svc.now = func() time.Time { return time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC) }
	return &quizFixture{svc: svc, exams: exams, docs: docs, scores: scores}
}

var sampleQuiz = &llm.Quiz{Questions: []string{"q1", "q2", "q3"}, Answers: []string{"Seoul", "4", "blue whale"}}

func TestQuizCreateCompleted(t *testing.T) {
	f := newQuizFixture(t, stubGenerator{quiz: sampleQuiz})

	outcome, err := f.svc.Create(context.Background(), teacher(), 3, models.CreateQuizRequest{Keyword: "geography"})
	require.NoError(t, err)
	assert.Equal(t, models.QuizCompleted, outcome.Phase)
	assert.Equal(t, "geography "+models.QuizExamTypeName, outcome.Exam.Name)
	assert.Equal(t, int64(11), outcome.Exam.ExamTypeID)
	assert.Equal(t, "2026-05-02", outcome.Exam.ExamDate.Format(models.ExamDateLayout))
	require.Contains(t, f.docs.quizzes, outcome.Exam.ID)
	assert.Equal(t, sampleQuiz.Answers, f.docs.quizzes[outcome.Exam.ID].Answers)
}

func TestQuizCreateCompensatesOnGeneratorFailure(t *testing.T) {
	f := newQuizFixture(t, stubGenerator{err: llm.ErrMalformedQuiz})

	outcome, err := f.svc.Create(context.Background(), teacher(), 3, models.CreateQuizRequest{Keyword: "geography"})
	requireAppError(t, err, appErrors.ErrUpstream)
	require.NotNil(t, outcome)
	assert.Equal(t, models.QuizCompensated, outcome.Phase)
	assert.Equal(t, []int64{outcome.Exam.ID}, f.exams.deleted)
	assert.Empty(t, f.exams.exams)
}

func TestQuizCreateCompensatesOnDocumentFailure(t *testing.T) {
	f := newQuizFixture(t, stubGenerator{quiz: sampleQuiz})
	f.docs.saveErr = errors.New("mongo down")

	outcome, err := f.svc.Create(context.Background(), teacher(), 3, models.CreateQuizRequest{Keyword: "k"})
	requireAppError(t, err, appErrors.ErrUpstream)
	assert.Equal(t, models.QuizCompensated, outcome.Phase)
	assert.Empty(t, f.exams.exams)
}

func TestQuizCreateOrphanedWhenCompensationFails(t *testing.T) {
	f := newQuizFixture(t, stubGenerator{err: errors.New("timeout")})
	f.exams.deleteErr = errors.New("db gone")

	outcome, err := f.svc.Create(context.Background(), teacher(), 3, models.CreateQuizRequest{Keyword: "k"})
	requireAppError(t, err, appErrors.ErrUpstream)
	assert.Equal(t, models.QuizOrphaned, outcome.Phase)
	assert.Len(t, f.exams.exams, 1)
}

func TestQuizCreateRejectsStudent(t *testing.T) {
	f := newQuizFixture(t, stubGenerator{quiz: sampleQuiz})
	outcome, err := f.svc.Create(context.Background(), claims("kid", models.RoleStudent, "acad"), 3, models.CreateQuizRequest{Keyword: "k"})
	requireAppError(t, err, appErrors.ErrForbidden)
	assert.Nil(t, outcome)
}

func seedQuiz(f *quizFixture) int64 {
	f.exams.exams[100] = &models.Exam{ID: 100, LectureID: 3}
	f.docs.quizzes[100] = &models.Quiz{ExamID: 100, Questions: sampleQuiz.Questions, Answers: sampleQuiz.Answers}
	return 100
}

func TestQuizGradeStoresResultAndRecordsCappedScore(t *testing.T) {
	f := newQuizFixture(t, nil)
	examID := seedQuiz(f)

	result, err := f.svc.Grade(context.Background(), claims("kid", models.RoleStudent, "acad"), 3, examID, models.GradeQuizRequest{
		Answers: []string{" seoul ", "4", "Blue  Whale"},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, result.Correct)
	assert.Equal(t, models.MaxScore, result.Score)
	assert.Contains(t, f.docs.results[examID], "kid")
	assert.Equal(t, []recordedScore{{examID, "kid", 100}}, f.scores.calls)
}

func TestQuizGradeRejectsWrongAnswerCount(t *testing.T) {
	f := newQuizFixture(t, nil)
	examID := seedQuiz(f)

	_, err := f.svc.Grade(context.Background(), claims("kid", models.RoleStudent, "acad"), 3, examID, models.GradeQuizRequest{Answers: []string{"a"}})
	requireAppError(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.scores.calls)
}

func TestQuizGetHidesAnswersFromStudents(t *testing.T) {
	f := newQuizFixture(t, nil)
	examID := seedQuiz(f)

	quiz, err := f.svc.Get(context.Background(), claims("kid", models.RoleStudent, "acad"), 3, examID)
	require.NoError(t, err)
	assert.Nil(t, quiz.Answers)

	quiz, err = f.svc.Get(context.Background(), teacher(), 3, examID)
	require.NoError(t, err)
	assert.Equal(t, sampleQuiz.Answers, quiz.Answers)
}

func TestQuizGetMissingDocumentIsNotFound(t *testing.T) {
	f := newQuizFixture(t, nil)
	f.exams.exams[5] = &models.Exam{ID: 5, LectureID: 3}
	_, err := f.svc.Get(context.Background(), teacher(), 3, 5)
	requireAppError(t, err, appErrors.ErrNotFound)
}
