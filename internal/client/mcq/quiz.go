package mcq

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/researchhive/internal/models"
)

var (
	// ErrLocked is returned by SelectAnswer after Reveal; the answer is unchanged.
	ErrLocked = errors.New("answers are locked after checking")
	// ErrIncomplete is returned by Reveal while a question is unanswered.
	ErrIncomplete = errors.New("answer every question before checking")
	// ErrNotRevealed is returned by Grade before Reveal.
	ErrNotRevealed = errors.New("answers have not been checked yet")
)

// OptionLetter labels the i-th option (0-based): A, B, C...
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// Letters returns the labels of n options.
func Letters(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = OptionLetter(i)
	}
	return out
}

// letterIndex is the inverse of OptionLetter, or -1.
func letterIndex(letter string) int {
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return -1
	}
	return int(letter[0] - 'A')
}

// Grade is the outcome of one question after Reveal.
type Grade struct {
	Correct       bool
	Chosen        string
	CorrectLetter string
	// Message is "Correct!" or "Incorrect. Correct Answer: X".
	Message     string
	Explanation string
}

// Quiz is one generated question set and its answering state. The answer
// slice always has one slot per question; "" means unanswered.
type Quiz struct {
	mu       sync.Mutex
	mcqs     []models.MCQ
	answers  []string
	revealed bool
}

// NewQuiz starts an unanswered, unrevealed quiz.
func NewQuiz(mcqs []models.MCQ) *Quiz {
	return &Quiz{
		mcqs:    append([]models.MCQ(nil), mcqs...),
		answers: make([]string, len(mcqs)),
	}
}

// Len is the number of questions.
func (q *Quiz) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.mcqs)
}

// Question returns question i.
func (q *Quiz) Question(i int) models.MCQ {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mcqs[i]
}

// Answers returns a copy of the chosen letters.
func (q *Quiz) Answers() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.answers...)
}

// SelectAnswer records letter as the answer to question i, replacing any
// earlier choice. After Reveal it changes nothing and returns ErrLocked.
func (q *Quiz) SelectAnswer(i int, letter string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.revealed {
		return ErrLocked
	}
	if i < 0 || i >= len(q.mcqs) {
		return fmt.Errorf("question %d out of range 1-%d", i+1, len(q.mcqs))
	}
	idx := letterIndex(letter)
	if idx < 0 || idx >= len(q.mcqs[i].Options) {
		return fmt.Errorf("option %q not offered for question %d", letter, i+1)
	}
	q.answers[i] = letter
	return nil
}

// Unanswered counts questions without an answer.
func (q *Quiz) Unanswered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unanswered()
}

func (q *Quiz) unanswered() int {
	n := 0
	for _, a := range q.answers {
		if a == "" {
			n++
		}
	}
	return n
}

// CanReveal reports whether every question is answered.
func (q *Quiz) CanReveal() bool {
	return q.Unanswered() == 0
}

// Reveal locks the answers and enables grading. It is one-way.
func (q *Quiz) Reveal() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.revealed {
		return nil
	}
	if q.unanswered() > 0 {
		return ErrIncomplete
	}
	q.revealed = true
	return nil
}

// Revealed reports whether Reveal has succeeded.
func (q *Quiz) Revealed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.revealed
}

// Grade compares the chosen letter of question i with the correct one.
func (q *Quiz) Grade(i int) (Grade, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.revealed {
		return Grade{}, ErrNotRevealed
	}
	if i < 0 || i >= len(q.mcqs) {
		return Grade{}, fmt.Errorf("question %d out of range 1-%d", i+1, len(q.mcqs))
	}
	m := q.mcqs[i]
	g := Grade{
		Chosen:        q.answers[i],
		CorrectLetter: m.Answer,
		Correct:       q.answers[i] == m.Answer,
		Explanation:   m.Explanation,
	}
	if g.Correct {
		g.Message = "Correct!"
	} else {
		g.Message = "Incorrect. Correct Answer: " + m.Answer
	}
	return g, nil
}

// Score returns correct and total counts after Reveal.
func (q *Quiz) Score() (correct, total int, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.revealed {
		return 0, 0, ErrNotRevealed
	}
	for i, m := range q.mcqs {
		if q.answers[i] == m.Answer {
			correct++
		}
	}
	return correct, len(q.mcqs), nil
}
