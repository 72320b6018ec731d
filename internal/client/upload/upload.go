// Package upload turns a user-supplied file into extracted text via the
// backend, and resolves a text-or-file Input into the text every workflow
// consumes.
package upload

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/researchhive/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// ValidationError is a client-side input problem; it never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrNoFile means a PDF input was chosen but no file was given.
	ErrNoFile = &ValidationError{Message: "Please upload a PDF file"}
	// ErrNoText means a text input was chosen but the text is blank.
	ErrNoText = &ValidationError{Message: "Please enter some text"}
	// ErrNotPDF means the file content is not a PDF.
	ErrNotPDF = &ValidationError{Message: "Invalid file type: please upload a PDF file"}
)

// Uploader is the backend call used to extract text.
type Uploader interface {
	UploadPDF(ctx context.Context, doc models.Document) (string, error)
}

// Adapter validates documents locally and uploads them.
type Adapter struct {
	up Uploader
}

// New returns an Adapter over up.
func New(up Uploader) *Adapter {
	return &Adapter{up: up}
}

// CheckPDF rejects empty and non-PDF documents by content sniffing.
func CheckPDF(doc *models.Document) error {
	if doc == nil || len(doc.Data) == 0 {
		return ErrNoFile
	}
	if !mimetype.Detect(doc.Data).Is("application/pdf") {
		return ErrNotPDF
	}
	return nil
}

// Validate checks that in carries usable input for its kind.
func Validate(in models.Input) error {
	switch in.Kind {
	case models.InputPDF:
		return CheckPDF(in.PDF)
	case models.InputText:
		if strings.TrimSpace(in.Text) == "" {
			return ErrNoText
		}
		return nil
	default:
		return &ValidationError{Message: "Unknown input type " + string(in.Kind)}
	}
}

// UploadDocument returns the backend's extracted text for doc.
func (a *Adapter) UploadDocument(ctx context.Context, doc *models.Document) (string, error) {
	if err := CheckPDF(doc); err != nil {
		return "", err
	}
	return a.up.UploadPDF(ctx, *doc)
}

// Resolve returns the text a workflow should run on. For PDF input the
// extracted text replaces whatever text was typed.
func (a *Adapter) Resolve(ctx context.Context, in models.Input) (string, error) {
	if err := Validate(in); err != nil {
		return "", err
	}
	if in.Kind == models.InputPDF {
		return a.UploadDocument(ctx, in.PDF)
	}
	return in.Text, nil
}
