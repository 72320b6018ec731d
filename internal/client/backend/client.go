// Package backend is the HTTP client for the ResearchHive media backend.
// Every endpoint is one method; every failure goes through
// ExtractErrorMessage so callers see a single message per error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/atinyakov/researchhive/internal/models"
	"go.uber.org/zap"
)

// Endpoint paths.
const (
	PathRegister        = "/register"
	PathLogin           = "/login"
	PathUploadPDF       = "/upload-pdf"
	PathGenerateSummary = "/generate-summary"
	PathGeneratePodcast = "/generate-podcast"
	PathGeneratePPT     = "/generate-ppt"
	PathGenerateAudio   = "/generate-audio"
	PathGenerateVideo   = "/generate-video"
	PathGenerateComic   = "/generate-comic"
	PathGenerateMCQ     = "/generate-mcq"
	PathRAGAnswer       = "/rag-answer"
)

// Payload is a binary response body.
type Payload struct {
	Data        []byte
	ContentType string
}

// SummaryResult is the response of /generate-summary.
type SummaryResult struct {
	// Sections is the ordered list of "## heading\n- bullet" sections.
	Sections []string `json:"summary"`
	// Text is the flattened summary fed to every later stage.
	Text string `json:"summary_text"`
}

// Credentials is the body of /login and /register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client talks to the backend over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	log     *zap.Logger
	token   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithBearerToken makes the client attach "Authorization: Bearer <token>"
// to generation and upload requests whenever fn returns a non-empty token.
func WithBearerToken(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// New returns a Client for baseURL. A nil httpClient means http.DefaultClient.
func New(httpClient *http.Client, baseURL string, log *zap.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, creds Credentials) error {
	_, err := c.postJSON(ctx, PathRegister, creds, "Registration failed", false)
	return err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	body, err := c.postJSON(ctx, PathLogin, creds, "Login failed", false)
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		return "", ErrNoToken
	}
	return out.Token, nil
}

// UploadPDF sends doc as multipart field "pdf" and returns the extracted text.
func (c *Client) UploadPDF(ctx context.Context, doc models.Document) (string, error) {
	const fallback = "Failed to extract text from PDF."
	body, ct, err := multipartBody(func(w *multipart.Writer) error {
		return writeFile(w, "pdf", doc)
	})
	if err != nil {
		return "", err
	}
	raw, _, err := c.send(ctx, PathUploadPDF, ct, body, "Failed to upload PDF", true)
	if err != nil {
		return "", err
	}
	var out struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Content == "" {
		return "", &APIError{Endpoint: PathUploadPDF, StatusCode: http.StatusOK, Message: ExtractErrorMessage(raw, fallback)}
	}
	return out.Content, nil
}

// GenerateSummary summarises text at the given detail level.
func (c *Client) GenerateSummary(ctx context.Context, text string, level models.SummaryLevel) (SummaryResult, error) {
	req := map[string]string{"text": text, "summary_level": level.Wire()}
	raw, err := c.postJSON(ctx, PathGenerateSummary, req, "Failed to generate summary", true)
	if err != nil {
		return SummaryResult{}, err
	}
	var out SummaryResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return SummaryResult{}, &APIError{Endpoint: PathGenerateSummary, StatusCode: http.StatusOK, Message: "Failed to generate summary"}
	}
	return out, nil
}

// GeneratePodcast writes a two-speaker script from the flattened summary.
// Tone and length are sent lowercase, exactly as selected.
func (c *Client) GeneratePodcast(ctx context.Context, summaryText string, tone models.PodcastTone, length models.PodcastLength) (string, error) {
	req := map[string]string{
		"summary_text":     summaryText,
		"creativity_level": string(tone),
		"podcast_length":   string(length),
	}
	raw, err := c.postJSON(ctx, PathGeneratePodcast, req, "Failed to generate podcast", true)
	if err != nil {
		return "", err
	}
	var out struct {
		Script string `json:"podcast_script"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Script == "" {
		return "", &APIError{Endpoint: PathGeneratePodcast, StatusCode: http.StatusOK, Message: ExtractErrorMessage(raw, "Failed to generate podcast")}
	}
	return out.Script, nil
}

// GenerateSlides builds a slide deck from the flattened summary.
func (c *Client) GenerateSlides(ctx context.Context, summaryText string, tmpl models.SlideTemplate) (Payload, error) {
	req := map[string]string{"summary_text": summaryText, "template_name": tmpl.Wire()}
	return c.postBinary(ctx, PathGeneratePPT, req, "Failed to generate PowerPoint")
}

// GenerateAudio synthesises the podcast script.
func (c *Client) GenerateAudio(ctx context.Context, script string) (Payload, error) {
	req := map[string]string{"podcast_script": script}
	return c.postBinary(ctx, PathGenerateAudio, req, "Failed to generate audio")
}

// GenerateVideo renders an explainer video from the flattened summary.
func (c *Client) GenerateVideo(ctx context.Context, summaryText string, style models.VideoStyle, res models.VideoResolution) (Payload, error) {
	req := map[string]string{
		"summary_text": summaryText,
		"video_style":  string(style),
		"resolution":   string(res),
	}
	return c.postBinary(ctx, PathGenerateVideo, req, "Failed to generate video")
}

// GenerateComic renders a comic image from either a PDF (field "pdf") or
// text (field "content"). doc takes precedence when non-nil.
func (c *Client) GenerateComic(ctx context.Context, content string, doc *models.Document) (Payload, error) {
	body, ct, err := multipartBody(func(w *multipart.Writer) error {
		if doc != nil {
			return writeFile(w, "pdf", *doc)
		}
		return w.WriteField("content", content)
	})
	if err != nil {
		return Payload{}, err
	}
	raw, respCT, err := c.send(ctx, PathGenerateComic, ct, body, "Failed to generate comic", true)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Data: raw, ContentType: respCT}, nil
}

// GenerateMCQ asks for n multiple-choice questions over text. The backend
// decides how many actually come back.
func (c *Client) GenerateMCQ(ctx context.Context, text string, n int) ([]models.MCQ, error) {
	const fallback = "Failed to generate MCQs."
	req := struct {
		Text         string `json:"text"`
		NumQuestions int    `json:"num_questions"`
	}{Text: text, NumQuestions: n}
	raw, err := c.postJSON(ctx, PathGenerateMCQ, req, fallback, true)
	if err != nil {
		return nil, err
	}
	var out struct {
		MCQs []models.MCQ `json:"mcqs"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.MCQs == nil {
		return nil, &APIError{Endpoint: PathGenerateMCQ, StatusCode: http.StatusOK, Message: ExtractErrorMessage(raw, fallback)}
	}
	return out.MCQs, nil
}

// RAGAnswer answers query against documentText.
func (c *Client) RAGAnswer(ctx context.Context, documentText, query string) (string, error) {
	const fallback = "No answer found."
	req := map[string]string{"document_text": documentText, "query": query}
	raw, err := c.postJSON(ctx, PathRAGAnswer, req, fallback, true)
	if err != nil {
		return "", err
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Answer == "" {
		return "", &APIError{Endpoint: PathRAGAnswer, StatusCode: http.StatusOK, Message: ExtractErrorMessage(raw, fallback)}
	}
	return out.Answer, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, fallback string, authed bool) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	raw, _, err := c.send(ctx, path, "application/json", bytes.NewReader(b), fallback, authed)
	return raw, err
}

func (c *Client) postBinary(ctx context.Context, path string, payload any, fallback string) (Payload, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Payload{}, fmt.Errorf("encode %s request: %w", path, err)
	}
	raw, ct, err := c.send(ctx, path, "application/json", bytes.NewReader(b), fallback, true)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Data: raw, ContentType: ct}, nil
}

// send performs one POST and returns the body of a 2xx response. Any other
// status becomes an *APIError.
func (c *Client) send(ctx context.Context, path, contentType string, body io.Reader, fallback string, authed bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, "", fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	if authed && c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    ExtractErrorMessage(raw, fallback),
		}
		c.log.Debug("backend request failed",
			zap.String("endpoint", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, "", apiErr
	}

	c.log.Debug("backend request ok",
		zap.String("endpoint", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)
	return raw, resp.Header.Get("Content-Type"), nil
}

func multipartBody(fill func(*multipart.Writer) error) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, doc models.Document) error {
	name := doc.Name
	if name == "" {
		name = "document.pdf"
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = part.Write(doc.Data)
	return err
}
