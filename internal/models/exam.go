package models

import (
	"math"
	"time"
)

// Score bounds accepted for a single exam result.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ExamDateLayout is the calendar layout of exam dates.
const ExamDateLayout = "2006-01-02"

// ValidScore reports whether v lies within [MinScore, MaxScore].
func ValidScore(v float64) bool {
	return !math.IsNaN(v) && v >= MinScore && v <= MaxScore
}

// ExamType groups exams within an academy.
type ExamType struct {
	ID        int64  `db:"id" json:"id"`
	AcademyID string `db:"academy_id" json:"academy_id"`
	Name      string `db:"name" json:"name"`
}

// Exam is a gradable event carrying a cached projection of its scores.
type Exam struct {
	ID           int64     `db:"id" json:"id"`
	LectureID    int64     `db:"lecture_id" json:"lecture_id"`
	ExamTypeID   int64     `db:"exam_type_id" json:"exam_type_id"`
	Name         string    `db:"name" json:"name"`
	ExamDate     time.Time `db:"exam_date" json:"exam_date"`
	Headcount    int       `db:"headcount" json:"headcount"`
	LowScore     float64   `db:"low_score" json:"low_score"`
	HighScore    float64   `db:"high_score" json:"high_score"`
	AverageScore float64   `db:"average_score" json:"average_score"`
	TotalScore   float64   `db:"total_score" json:"total_score"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ExamStats is the aggregate projection stored on an exam.
type ExamStats struct {
	Headcount int
	Low       float64
	High      float64
	Total     float64
	Average   float64
}

// ComputeExamStats derives the projection from the full score set.
// It is the repair path for the cached exam fields.
func ComputeExamStats(scores []float64) ExamStats {
	if len(scores) == 0 {
		return ExamStats{}
	}
	stats := ExamStats{Headcount: len(scores), Low: scores[0], High: scores[0]}
	for _, s := range scores {
		stats.Total += s
		if s < stats.Low {
			stats.Low = s
		}
		if s > stats.High {
			stats.High = s
		}
	}
	stats.Average = Average(stats.Total, stats.Headcount)
	return stats
}

// Average divides total by count, treating an empty set as one.
func Average(total float64, count int) float64 {
	if count < 1 {
		count = 1
	}
	return total / float64(count)
}

// Stats returns the cached projection.
func (e *Exam) Stats() ExamStats {
	return ExamStats{Headcount: e.Headcount, Low: e.LowScore, High: e.HighScore, Total: e.TotalScore, Average: e.AverageScore}
}

// ApplyStats overwrites the cached projection.
func (e *Exam) ApplyStats(s ExamStats) {
	e.Headcount = s.Headcount
	e.LowScore = s.Low
	e.HighScore = s.High
	e.TotalScore = s.Total
	e.AverageScore = s.Average
}

// ExamUserScore is one user's result for an exam.
type ExamUserScore struct {
	ExamID    int64     `db:"exam_id" json:"exam_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name,omitempty"`
	Score     float64   `db:"score" json:"score"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateExamTypeRequest adds an exam type.
type CreateExamTypeRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// CreateExamRequest adds an exam to a lecture.
type CreateExamRequest struct {
	ExamTypeID int64  `json:"exam_type_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=100"`
	ExamDate   string `json:"exam_date" validate:"required"`
}

// ScoreEntry is one element of a score batch. A missing score counts as zero.
type ScoreEntry struct {
	UserID string   `json:"user_id" validate:"required"`
	Score  *float64 `json:"score"`
}

// UploadScoresRequest is a batch of results for one exam.
type UploadScoresRequest struct {
	Scores []ScoreEntry `json:"scores" validate:"required,min=1,dive"`
}

// ModifyScoreRequest changes a single user's result.
type ModifyScoreRequest struct {
	Score *float64 `json:"score" validate:"required"`
}

// ExamScoreSheet bundles an exam with its per-user results.
type ExamScoreSheet struct {
	Exam   Exam            `json:"exam"`
	Scores []ExamUserScore `json:"scores"`
}
