package models

import (
	"strings"
	"time"
)

// QuizExamTypeName is the exam type every generated quiz is filed under.
const QuizExamTypeName = "퀴즈"

// Quiz is the generated question set of an exam.
type Quiz struct {
	ExamID    int64     `bson:"exam_id" json:"exam_id"`
	Keyword   string    `bson:"keyword" json:"keyword"`
	Questions []string  `bson:"questions" json:"questions"`
	Answers   []string  `bson:"answers" json:"answers,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// QuizResult is one user's grading of a quiz.
type QuizResult struct {
	Answers  []string  `bson:"answers" json:"answers"`
	Correct  []bool    `bson:"correct" json:"correct"`
	Score    float64   `bson:"score" json:"score"`
	GradedAt time.Time `bson:"graded_at" json:"graded_at"`
}

// QuizResults holds every grading of an exam keyed by user id.
type QuizResults struct {
	ExamID  int64                 `bson:"exam_id" json:"exam_id"`
	Results map[string]QuizResult `bson:"results" json:"results"`
}

// GradeAnswers compares submitted with the key element-wise. Each match earns
// points and the total is capped at MaxScore.
func GradeAnswers(key, submitted []string, points int) QuizResult {
	result := QuizResult{Answers: submitted, Correct: make([]bool, len(key))}
	for i := range key {
		if i < len(submitted) && normalizeAnswer(submitted[i]) == normalizeAnswer(key[i]) {
			result.Correct[i] = true
			result.Score += float64(points)
		}
	}
	if result.Score > MaxScore {
		result.Score = MaxScore
	}
	return result
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// QuizPhase reports how far a quiz creation got.
type QuizPhase string

const (
	QuizCompleted   QuizPhase = "COMPLETED"
	QuizCompensated QuizPhase = "COMPENSATED"
	QuizOrphaned    QuizPhase = "ORPHANED"
)

// QuizCreationOutcome is the result of the two store quiz creation.
// COMPENSATED means the exam row was removed after the document phase failed.
// ORPHANED means that removal failed too and the exam row needs reconciliation.
type QuizCreationOutcome struct {
	Exam  *Exam     `json:"exam,omitempty"`
	Quiz  *Quiz     `json:"quiz,omitempty"`
	Phase QuizPhase `json:"phase"`
}

// CreateQuizRequest asks for a generated quiz on Keyword.
type CreateQuizRequest struct {
	Keyword  string `json:"keyword" validate:"required,max=100"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	ExamDate string `json:"exam_date"`
}

// GradeQuizRequest submits a user's answers.
type GradeQuizRequest struct {
	Answers []string `json:"answers" validate:"required,min=1"`
}
