// Package comic renders a comic strip from text or a PDF through the backend.
package comic

import (
	"context"
	"errors"
	"sync"

	"github.com/atinyakov/researchhive/internal/client/backend"
	"github.com/atinyakov/researchhive/internal/client/blob"
	"github.com/atinyakov/researchhive/internal/client/upload"
	"github.com/atinyakov/researchhive/internal/client/workflow"
	"github.com/atinyakov/researchhive/internal/models"
	"go.uber.org/zap"
)

// Filename is the default download name of a comic.
const Filename = "comic.png"

// ErrClosed is returned by a generation that was in flight when Close ran.
var ErrClosed = errors.New("comic discarded")

// Generator is the /generate-comic call.
type Generator interface {
	GenerateComic(ctx context.Context, content string, doc *models.Document) (backend.Payload, error)
}

// Workflow keeps the latest comic in the blob store.
type Workflow struct {
	gen   Generator
	store *blob.Store
	log   *zap.Logger
	guard workflow.Guard

	mu      sync.Mutex
	current *blob.Handle
	closes  uint64
}

func New(gen Generator, store *blob.Store, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{gen: gen, store: store, log: log}
}

// InProgress reports whether a comic is being generated.
func (w *Workflow) InProgress() bool { return w.guard.Busy() }

// Current returns the latest comic handle, or nil.
func (w *Workflow) Current() *blob.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	h := *w.current
	return &h
}

// Generate sends either the PDF or the text, never both, and replaces the
// previous comic with the returned image.
func (w *Workflow) Generate(ctx context.Context, in models.Input) (blob.Handle, error) {
	if err := upload.Validate(in); err != nil {
		return blob.Handle{}, err
	}
	if err := w.guard.Enter(); err != nil {
		return blob.Handle{}, err
	}
	defer w.guard.Leave()

	w.mu.Lock()
	closes := w.closes
	w.mu.Unlock()

	var (
		content string
		doc     *models.Document
	)
	if in.Kind == models.InputPDF {
		doc = in.PDF
	} else {
		content = in.Text
	}

	p, err := w.gen.GenerateComic(ctx, content, doc)
	if err != nil {
		w.log.Warn("comic generation failed", zap.Error(err))
		return blob.Handle{}, err
	}

	w.mu.Lock()
	if w.closes != closes {
		w.mu.Unlock()
		return blob.Handle{}, ErrClosed
	}
	h := w.store.Acquire(p.Data, p.ContentType, Filename)
	old := w.current
	w.current = &h
	w.mu.Unlock()

	if old != nil {
		w.store.Release(*old)
	}
	return h, nil
}

// Close releases the current comic. A generation in flight returns
// ErrClosed and keeps nothing.
func (w *Workflow) Close() {
	w.mu.Lock()
	old := w.current
	w.current = nil
	w.closes++
	w.mu.Unlock()
	if old != nil {
		w.store.Release(*old)
	}
}
