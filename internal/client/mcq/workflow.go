// Package mcq generates multiple-choice quizzes through the backend and
// runs the local answer/check flow over them.
package mcq

import (
	"context"
	"fmt"
	"sync"

	"github.com/atinyakov/researchhive/internal/client/upload"
	"github.com/atinyakov/researchhive/internal/client/workflow"
	"github.com/atinyakov/researchhive/internal/models"
	"go.uber.org/zap"
)

// Bounds on the requested question count. The backend decides how many
// questions actually come back.
const (
	MinQuestions     = 1
	MaxQuestions     = 10
	DefaultQuestions = 5
)

// Generator is the /generate-mcq call.
type Generator interface {
	GenerateMCQ(ctx context.Context, text string, n int) ([]models.MCQ, error)
}

// Resolver turns an Input into text, uploading PDFs.
type Resolver interface {
	Resolve(ctx context.Context, in models.Input) (string, error)
}

// Workflow owns the current quiz.
type Workflow struct {
	gen   Generator
	res   Resolver
	log   *zap.Logger
	guard workflow.Guard

	mu   sync.Mutex
	quiz *Quiz
}

// New returns a Workflow with no quiz.
func New(gen Generator, res Resolver, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{gen: gen, res: res, log: log}
}

// InProgress reports whether a generation is in flight.
func (w *Workflow) InProgress() bool { return w.guard.Busy() }

// Quiz is the current quiz, or nil.
func (w *Workflow) Quiz() *Quiz {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quiz
}

// Generate asks for count questions over the input. The previous quiz is
// dropped as soon as generation starts; on success the new quiz starts
// unanswered and unrevealed.
func (w *Workflow) Generate(ctx context.Context, in models.Input, count int) (*Quiz, error) {
	if err := upload.Validate(in); err != nil {
		return nil, err
	}
	if count < MinQuestions || count > MaxQuestions {
		return nil, &upload.ValidationError{Message: fmt.Sprintf("Number of questions must be between %d and %d", MinQuestions, MaxQuestions)}
	}
	if err := w.guard.Enter(); err != nil {
		return nil, err
	}
	defer w.guard.Leave()

	w.mu.Lock()
	w.quiz = nil
	w.mu.Unlock()

	text, err := w.res.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	mcqs, err := w.gen.GenerateMCQ(ctx, text, count)
	if err != nil {
		w.log.Warn("mcq generation failed", zap.Error(err))
		return nil, err
	}

	q := NewQuiz(mcqs)
	w.mu.Lock()
	w.quiz = q
	w.mu.Unlock()

	w.log.Info("mcqs generated", zap.Int("requested", count), zap.Int("received", len(mcqs)))
	return q, nil
}
