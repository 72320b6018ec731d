package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/researchhive/internal/models"
)

// prompt prints label and returns the next trimmed line. ok is false at EOF.
func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

// promptInput asks for a PDF path, falling back to typed text when the path
// is left empty.
func (s *Shell) promptInput() (models.Input, error) {
	path, ok := s.prompt("PDF file path (leave empty to type text): ")
	if !ok {
		return models.Input{}, errEOF
	}
	if path != "" {
		doc, err := readDocument(path)
		if err != nil {
			return models.Input{}, err
		}
		return models.Input{Kind: models.InputPDF, PDF: doc}, nil
	}

	text, ok := s.prompt("Enter text: ")
	if !ok {
		return models.Input{}, errEOF
	}
	return models.Input{Kind: models.InputText, Text: text}, nil
}

func readDocument(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return &models.Document{Name: filepath.Base(path), Data: data}, nil
}

// parseOptions applies key=value arguments on top of the defaults.
func parseOptions(args []string) (models.Options, error) {
	o := models.DefaultOptions()
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return o, fmt.Errorf("expected key=value, got %q", a)
		}
		v = strings.ToLower(v)
		switch k {
		case "level":
			o.SummaryLevel = models.SummaryLevel(v)
		case "tone":
			o.PodcastTone = models.PodcastTone(v)
		case "length":
			o.PodcastLength = models.PodcastLength(v)
		case "template":
			o.SlideTemplate = models.SlideTemplate(v)
		case "style":
			o.VideoStyle = models.VideoStyle(v)
		case "res", "resolution":
			o.VideoResolution = models.VideoResolution(v)
		default:
			return o, fmt.Errorf("unknown option %q", k)
		}
	}
	return o, nil
}
