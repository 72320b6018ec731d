// Package qa asks questions about a document through the backend's
// retrieval endpoint.
package qa

import (
	"context"
	"strings"

	"github.com/atinyakov/researchhive/internal/client/upload"
	"github.com/atinyakov/researchhive/internal/client/workflow"
	"github.com/atinyakov/researchhive/internal/models"
	"go.uber.org/zap"
)

// Validation messages.
var (
	ErrNoDocument = &upload.ValidationError{Message: "Please provide the document text"}
	ErrNoQuery    = &upload.ValidationError{Message: "Please enter a question"}
)

// Answerer is the /rag-answer call.
type Answerer interface {
	RAGAnswer(ctx context.Context, documentText, query string) (string, error)
}

// DocumentUploader extracts text from a PDF.
type DocumentUploader interface {
	UploadDocument(ctx context.Context, doc *models.Document) (string, error)
}

// Workflow answers one question at a time.
type Workflow struct {
	ans   Answerer
	up    DocumentUploader
	log   *zap.Logger
	guard workflow.Guard
}

// New returns a Workflow. up may be nil if AskDocument is never used.
func New(ans Answerer, up DocumentUploader, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{ans: ans, up: up, log: log}
}

// InProgress reports whether a question is in flight.
func (w *Workflow) InProgress() bool { return w.guard.Busy() }

// Ask answers query against documentText.
func (w *Workflow) Ask(ctx context.Context, documentText, query string) (string, error) {
	if err := validate(documentText, query); err != nil {
		return "", err
	}
	if err := w.guard.Enter(); err != nil {
		return "", err
	}
	defer w.guard.Leave()

	return w.ask(ctx, documentText, query)
}

// AskDocument extracts the text of doc and answers query against it.
func (w *Workflow) AskDocument(ctx context.Context, doc *models.Document, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrNoQuery
	}
	if err := upload.CheckPDF(doc); err != nil {
		return "", err
	}
	if err := w.guard.Enter(); err != nil {
		return "", err
	}
	defer w.guard.Leave()

	text, err := w.up.UploadDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoDocument
	}
	return w.ask(ctx, text, query)
}

func (w *Workflow) ask(ctx context.Context, documentText, query string) (string, error) {
	answer, err := w.ans.RAGAnswer(ctx, documentText, query)
	if err != nil {
		w.log.Warn("rag answer failed", zap.Error(err))
		return "", err
	}
	w.log.Debug("rag answer", zap.Int("document_len", len(documentText)), zap.Int("answer_len", len(answer)))
	return answer, nil
}

func validate(documentText, query string) error {
	if strings.TrimSpace(documentText) == "" {
		return ErrNoDocument
	}
	if strings.TrimSpace(query) == "" {
		return ErrNoQuery
	}
	return nil
}
