package comic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/researchhive/internal/client/backend"
	"github.com/atinyakov/researchhive/internal/client/blob"
	"github.com/atinyakov/researchhive/internal/client/upload"
	"github.com/atinyakov/researchhive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeGenerator struct {
	calls   int
	content string
	doc     *models.Document
	err     error
	// ready is closed on entry; gate, when set, blocks until closed.
	ready chan struct{}
	gate  chan struct{}
}

func (f *fakeGenerator) GenerateComic(ctx context.Context, content string, doc *models.Document) (backend.Payload, error) {
	f.calls++
	f.content, f.doc = content, doc
	if f.ready != nil {
		close(f.ready)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return backend.Payload{}, f.err
	}
	return backend.Payload{Data: pngBytes, ContentType: "image/png"}, nil
}

func TestGenerate_Text(t *testing.T) {
	gen := &fakeGenerator{}
	store := blob.NewStore(nil)
	w := New(gen, store, nil)

	h, err := w.Generate(context.Background(), models.Input{Kind: models.InputText, Text: "a story", PDF: &models.Document{Data: []byte("%PDF-1.4")}})
	require.NoError(t, err)
	assert.Equal(t, "a story", gen.content)
	assert.Nil(t, gen.doc, "text input never sends the file")
	assert.Equal(t, Filename, h.Filename)
	assert.Equal(t, "image/png", h.ContentType)

	_, data, err := store.Open(h.ID)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestGenerate_PDF(t *testing.T) {
	gen := &fakeGenerator{}
	w := New(gen, blob.NewStore(nil), nil)

	doc := &models.Document{Name: "paper.pdf", Data: []byte("%PDF-1.4\n")}
	_, err := w.Generate(context.Background(), models.Input{Kind: models.InputPDF, Text: "ignored", PDF: doc})
	require.NoError(t, err)
	assert.Empty(t, gen.content)
	assert.Same(t, doc, gen.doc)
}

func TestGenerate_Validation(t *testing.T) {
	gen := &fakeGenerator{}
	w := New(gen, blob.NewStore(nil), nil)

	_, err := w.Generate(context.Background(), models.Input{Kind: models.InputText})
	assert.ErrorIs(t, err, upload.ErrNoText)
	_, err = w.Generate(context.Background(), models.Input{Kind: models.InputPDF})
	assert.ErrorIs(t, err, upload.ErrNoFile)
	_, err = w.Generate(context.Background(), models.Input{Kind: models.InputPDF, PDF: &models.Document{Data: []byte("plain words")}})
	assert.ErrorIs(t, err, upload.ErrNotPDF)
	assert.Zero(t, gen.calls)
}

func TestGenerate_ReleasesPrevious(t *testing.T) {
	store := blob.NewStore(nil)
	w := New(&fakeGenerator{}, store, nil)
	in := models.Input{Kind: models.InputText, Text: "x"}

	first, err := w.Generate(context.Background(), in)
	require.NoError(t, err)
	second, err := w.Generate(context.Background(), in)
	require.NoError(t, err)

	_, _, err = store.Open(first.ID)
	assert.ErrorIs(t, err, blob.ErrReleased)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, second.ID, w.Current().ID)

	w.Close()
	assert.Zero(t, store.Len())
	assert.Nil(t, w.Current())
}

func TestGenerate_CloseDuringGeneration(t *testing.T) {
	store := blob.NewStore(nil)
	gen := &fakeGenerator{ready: make(chan struct{}), gate: make(chan struct{})}
	w := New(gen, store, nil)

	done := make(chan error, 1)
	go func() {
		_, err := w.Generate(context.Background(), models.Input{Kind: models.InputText, Text: "x"})
		done <- err
	}()

	<-gen.ready
	w.Close()
	close(gen.gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Nil(t, w.Current())
	assert.Zero(t, store.Len())
}

func TestGenerate_FailureKeepsPrevious(t *testing.T) {
	store := blob.NewStore(nil)
	gen := &fakeGenerator{}
	w := New(gen, store, nil)
	in := models.Input{Kind: models.InputText, Text: "x"}

	first, err := w.Generate(context.Background(), in)
	require.NoError(t, err)

	gen.err = &backend.APIError{Endpoint: backend.PathGenerateComic, StatusCode: 500, Message: "Failed to generate comic"}
	_, err = w.Generate(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, first.ID, w.Current().ID)
	assert.False(t, w.InProgress())
}

func TestGenerate_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, backend.PathGenerateComic, r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "once upon a time", r.FormValue("content"))
		_, _, err := r.FormFile("pdf")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	store := blob.NewStore(nil)
	w := New(backend.New(srv.Client(), srv.URL, nil), store, nil)
	h, err := w.Generate(context.Background(), models.Input{Kind: models.InputText, Text: "once upon a time"})
	require.NoError(t, err)
	assert.Equal(t, len(pngBytes), h.Size)
}

func TestGenerate_MultipartPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("pdf")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "paper.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4\n", string(b))
		assert.Empty(t, r.FormValue("content"))
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	w := New(backend.New(srv.Client(), srv.URL, nil), blob.NewStore(nil), nil)
	_, err := w.Generate(context.Background(), models.Input{Kind: models.InputPDF, PDF: &models.Document{Name: "paper.pdf", Data: []byte("%PDF-1.4\n")}})
	require.NoError(t, err)
}
