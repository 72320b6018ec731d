package mcq

import (
	"testing"

	"github.com/atinyakov/researchhive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMCQs() []models.MCQ {
	return []models.MCQ{
		{Question: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice"}, Answer: "A", Explanation: "Paris is the capital."},
		{Question: "Second city?", Options: []string{"Paris", "Lyon", "Nice"}, Answer: "B", Explanation: "Lyon by metro area."},
	}
}

func TestLetters(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, Letters(len([]string{"Paris", "Lyon", "Nice"})))
	assert.Equal(t, "B", OptionLetter(1))
	assert.Equal(t, 1, letterIndex("B"))
	assert.Equal(t, -1, letterIndex("b"))
	assert.Equal(t, -1, letterIndex("AB"))
	assert.Empty(t, Letters(0))
}

func TestQuiz_AnswersMatchQuestions(t *testing.T) {
	q := NewQuiz(sampleMCQs())
	assert.Len(t, q.Answers(), q.Len())

	require.NoError(t, q.SelectAnswer(0, "C"))
	assert.Len(t, q.Answers(), q.Len())
	require.NoError(t, q.SelectAnswer(0, "A"))
	assert.Len(t, q.Answers(), q.Len())
	assert.Equal(t, []string{"A", ""}, q.Answers())

	assert.Error(t, q.SelectAnswer(2, "A"))
	assert.Error(t, q.SelectAnswer(-1, "A"))
	assert.Error(t, q.SelectAnswer(1, "D"), "only three options offered")
	assert.Len(t, q.Answers(), q.Len())
}

func TestQuiz_RevealRequiresAllAnswers(t *testing.T) {
	q := NewQuiz(sampleMCQs())
	assert.False(t, q.CanReveal())
	assert.ErrorIs(t, q.Reveal(), ErrIncomplete)
	assert.False(t, q.Revealed())

	require.NoError(t, q.SelectAnswer(0, "A"))
	assert.ErrorIs(t, q.Reveal(), ErrIncomplete)
	assert.Equal(t, 1, q.Unanswered())

	require.NoError(t, q.SelectAnswer(1, "C"))
	assert.True(t, q.CanReveal())
	require.NoError(t, q.Reveal())
	assert.True(t, q.Revealed())

	require.NoError(t, q.Reveal(), "reveal is idempotent")
	assert.True(t, q.Revealed())
}

func TestQuiz_AnswersLockedAfterReveal(t *testing.T) {
	q := NewQuiz(sampleMCQs())
	require.NoError(t, q.SelectAnswer(0, "A"))
	require.NoError(t, q.SelectAnswer(1, "C"))
	require.NoError(t, q.Reveal())

	assert.ErrorIs(t, q.SelectAnswer(1, "B"), ErrLocked)
	assert.Equal(t, []string{"A", "C"}, q.Answers())
}

func TestQuiz_Grade(t *testing.T) {
	q := NewQuiz(sampleMCQs())
	_, err := q.Grade(0)
	assert.ErrorIs(t, err, ErrNotRevealed)

	require.NoError(t, q.SelectAnswer(0, OptionLetter(0)))
	require.NoError(t, q.SelectAnswer(1, OptionLetter(2)))
	require.NoError(t, q.Reveal())

	g, err := q.Grade(0)
	require.NoError(t, err)
	assert.True(t, g.Correct)
	assert.Equal(t, "Correct!", g.Message)
	assert.Equal(t, "Paris is the capital.", g.Explanation)

	g, err = q.Grade(1)
	require.NoError(t, err)
	assert.False(t, g.Correct)
	assert.Equal(t, "C", g.Chosen)
	assert.Equal(t, "Incorrect. Correct Answer: B", g.Message)
	assert.Equal(t, "Lyon by metro area.", g.Explanation, "explanation shown regardless of correctness")

	correct, total, err := q.Score()
	require.NoError(t, err)
	assert.Equal(t, 1, correct)
	assert.Equal(t, 2, total)
}

func TestQuiz_SelectingIndexOneGradesAgainstB(t *testing.T) {
	q := NewQuiz([]models.MCQ{{Question: "Second city?", Options: []string{"Paris", "Lyon", "Nice"}, Answer: "B"}})
	require.NoError(t, q.SelectAnswer(0, OptionLetter(1)))
	require.NoError(t, q.Reveal())
	g, err := q.Grade(0)
	require.NoError(t, err)
	assert.True(t, g.Correct)
}

func TestQuiz_EmptyQuizRevealsImmediately(t *testing.T) {
	q := NewQuiz(nil)
	assert.True(t, q.CanReveal())
	require.NoError(t, q.Reveal())
	correct, total, err := q.Score()
	require.NoError(t, err)
	assert.Zero(t, correct)
	assert.Zero(t, total)
}
