package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/academy-api/internal/models"
)

const (
	quizCollection       = "quizzes"
	quizResultCollection = "quiz_results"
)

// QuizRepository stores generated quizzes and their gradings in MongoDB.
type QuizRepository struct {
	quizzes *mongo.Collection
	results *mongo.Collection
}

// NewQuizRepository binds the repository to db.
func NewQuizRepository(db *mongo.Database) *QuizRepository {
	return &QuizRepository{quizzes: db.Collection(quizCollection), results: db.Collection(quizResultCollection)}
}

// EnsureIndexes makes exam_id unique in both collections.
func (r *QuizRepository) EnsureIndexes(ctx context.Context) error {
	unique := mongo.IndexModel{Keys: bson.D{{Key: "exam_id", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := r.quizzes.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("create quiz index: %w", err)
	}
	if _, err := r.results.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("create quiz result index: %w", err)
	}
	return nil
}

// Save stores the quiz of an exam, replacing any previous one.
func (r *QuizRepository) Save(ctx context.Context, quiz *models.Quiz) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.quizzes.ReplaceOne(ctx, bson.M{"exam_id": quiz.ExamID}, quiz, opts); err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// FindByExam loads the quiz of an exam.
func (r *QuizRepository) FindByExam(ctx context.Context, examID int64) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.quizzes.FindOne(ctx, bson.M{"exam_id": examID}).Decode(&quiz); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find quiz: %w", err)
	}
	return &quiz, nil
}

// DeleteByExam removes a quiz and its gradings.
func (r *QuizRepository) DeleteByExam(ctx context.Context, examID int64) error {
	if _, err := r.quizzes.DeleteOne(ctx, bson.M{"exam_id": examID}); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if _, err := r.results.DeleteOne(ctx, bson.M{"exam_id": examID}); err != nil {
		return fmt.Errorf("delete quiz results: %w", err)
	}
	return nil
}

// RecordResult stores one user's grading under results.<userID>. Repeating it
// overwrites the previous grading.
func (r *QuizRepository) RecordResult(ctx context.Context, examID int64, userID string, result models.QuizResult) error {
	update := bson.M{"$set": bson.M{"results." + userID: result}}
	opts := options.Update().SetUpsert(true)
	if _, err := r.results.UpdateOne(ctx, bson.M{"exam_id": examID}, update, opts); err != nil {
		return fmt.Errorf("record quiz result: %w", err)
	}
	return nil
}

// FindResults loads every grading of an exam. An ungraded exam yields an empty map.
func (r *QuizRepository) FindResults(ctx context.Context, examID int64) (*models.QuizResults, error) {
	results := models.QuizResults{ExamID: examID, Results: map[string]models.QuizResult{}}
	err := r.results.FindOne(ctx, bson.M{"exam_id": examID}).Decode(&results)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find quiz results: %w", err)
	}
	if results.Results == nil {
		results.Results = map[string]models.QuizResult{}
	}
	return &results, nil
}
