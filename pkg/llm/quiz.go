// Package llm generates quiz content through an OpenAI compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/pkg/config"
)

// ErrMalformedQuiz is returned when the model response cannot be used as a quiz.
var ErrMalformedQuiz = errors.New("malformed quiz payload")

const systemPrompt = `You write short-answer quizzes for academy students.
Reply with a JSON object only, shaped as {"questions": [string], "answers": [string]}.
Every question has exactly one answer at the same index. Answers are a single word or number.`

const userPromptTemplate = `Write %d quiz questions about "%s".`

// Quiz is the validated question and answer payload.
type Quiz struct {
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
}

// QuizGenerator calls the chat completion endpoint with a fixed prompt.
type QuizGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewQuizGenerator builds a generator from configuration.
func NewQuizGenerator(cfg config.LLMConfig, logger *zap.Logger) *QuizGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &QuizGenerator{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// GenerateQuiz asks the model for count questions about keyword.
func (g *QuizGenerator) GenerateQuiz(ctx context.Context, keyword string, count int) (*Quiz, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptTemplate, count, keyword)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedQuiz)
	}
	g.logger.Debug("quiz generated",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return ParseQuiz(resp.Choices[0].Message.Content)
}

// ParseQuiz decodes and validates a model response. Code fences are tolerated.
func ParseQuiz(raw string) (*Quiz, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var quiz Quiz
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuiz, err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrMalformedQuiz)
	}
	if len(quiz.Questions) != len(quiz.Answers) {
		return nil, fmt.Errorf("%w: %d questions but %d answers", ErrMalformedQuiz, len(quiz.Questions), len(quiz.Answers))
	}
	for i := range quiz.Questions {
		quiz.Questions[i] = strings.TrimSpace(quiz.Questions[i])
		quiz.Answers[i] = strings.TrimSpace(quiz.Answers[i])
		if quiz.Questions[i] == "" || quiz.Answers[i] == "" {
			return nil, fmt.Errorf("%w: blank entry at %d", ErrMalformedQuiz, i)
		}
	}
	return &quiz, nil
}
