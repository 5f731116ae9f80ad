package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuizValid(t *testing.T) {
	quiz, err := ParseQuiz("```json\n{\"questions\":[\"2+2?\",\" Capital of Korea? \"],\"answers\":[\"4\",\"Seoul\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"2+2?", "Capital of Korea?"}, quiz.Questions)
	assert.Equal(t, []string{"4", "Seoul"}, quiz.Answers)
}

func TestParseQuizRejectsMismatchedLengths(t *testing.T) {
	_, err := ParseQuiz(`{"questions":["a","b"],"answers":["1"]}`)
	require.ErrorIs(t, err, ErrMalformedQuiz)
}

func TestParseQuizRejectsGarbage(t *testing.T) {
	_, err := ParseQuiz("Sure! Here is your quiz")
	require.ErrorIs(t, err, ErrMalformedQuiz)

	_, err = ParseQuiz(`{"questions":[],"answers":[]}`)
	require.ErrorIs(t, err, ErrMalformedQuiz)

	_, err = ParseQuiz(`{"questions":["q"],"answers":["  "]}`)
	require.ErrorIs(t, err, ErrMalformedQuiz)
}
