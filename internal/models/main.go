// Package models defines the core data structures exchanged with the media
// backend: generation options, MCQs and the run record.
package models

import "time"

// InputKind selects which field of an Input is authoritative.
type InputKind string

const (
	// InputText means Input.Text is the source.
	InputText InputKind = "text"
	// InputPDF means Input.PDF is the source and must be uploaded first.
	InputPDF InputKind = "pdf"
)

// Document is a user-supplied file held in memory.
type Document struct {
	// Name is the file name sent in the multipart body.
	Name string
	// Data is the raw file content.
	Data []byte
}

// Input is the text-or-file source of a workflow run. Exactly one of Text or
// PDF is used, as chosen by Kind.
type Input struct {
	Kind InputKind
	Text string
	PDF  *Document
}

// SummaryLevel is the detail level of the summary.
type SummaryLevel string

const (
	SummaryBeginner SummaryLevel = "beginner"
	SummaryStudent  SummaryLevel = "student"
	SummaryExpert   SummaryLevel = "expert"
)

// PodcastTone is the podcast creativity level.
type PodcastTone string

const (
	ToneFormal   PodcastTone = "formal"
	ToneBalanced PodcastTone = "balanced"
	ToneCreative PodcastTone = "creative"
)

// PodcastLength is the podcast length.
type PodcastLength string

const (
	LengthShort  PodcastLength = "short"
	LengthMedium PodcastLength = "medium"
	LengthLong   PodcastLength = "long"
)

// SlideTemplate is the internal key of a slide deck template.
type SlideTemplate string

const (
	Template1 SlideTemplate = "template1"
	Template2 SlideTemplate = "template2"
	Template3 SlideTemplate = "template3"
)

// VideoStyle is the explainer video style.
type VideoStyle string

const (
	VideoModern   VideoStyle = "modern"
	VideoClassic  VideoStyle = "classic"
	VideoDramatic VideoStyle = "dramatic"
)

// VideoResolution is the explainer video resolution.
type VideoResolution string

const (
	Resolution480p  VideoResolution = "480p"
	Resolution720p  VideoResolution = "720p"
	Resolution1080p VideoResolution = "1080p"
)

var summaryWire = map[SummaryLevel]string{
	SummaryBeginner: "Beginner",
	SummaryStudent:  "Student",
	SummaryExpert:   "Expert",
}

var templateWire = map[SlideTemplate]string{
	Template1: "Template 1",
	Template2: "Template 2",
	Template3: "Template 3",
}

// Wire returns the capitalised value the backend expects.
func (l SummaryLevel) Wire() string { return summaryWire[l] }

// Valid reports whether l is a known level.
func (l SummaryLevel) Valid() bool { _, ok := summaryWire[l]; return ok }

// Wire returns the display name the backend expects ("Template 1" ...).
func (t SlideTemplate) Wire() string { return templateWire[t] }

// Valid reports whether t is a known template key.
func (t SlideTemplate) Valid() bool { _, ok := templateWire[t]; return ok }

// Valid reports whether t is a known tone. Tones are sent lowercase as-is.
func (t PodcastTone) Valid() bool {
	return t == ToneFormal || t == ToneBalanced || t == ToneCreative
}

// Valid reports whether l is a known length. Lengths are sent lowercase as-is.
func (l PodcastLength) Valid() bool {
	return l == LengthShort || l == LengthMedium || l == LengthLong
}

// Valid reports whether s is a known video style.
func (s VideoStyle) Valid() bool {
	return s == VideoModern || s == VideoClassic || s == VideoDramatic
}

// Valid reports whether r is a known resolution.
func (r VideoResolution) Valid() bool {
	return r == Resolution480p || r == Resolution720p || r == Resolution1080p
}

// Options holds every user-selectable generation option.
type Options struct {
	SummaryLevel    SummaryLevel
	PodcastTone     PodcastTone
	PodcastLength   PodcastLength
	SlideTemplate   SlideTemplate
	VideoStyle      VideoStyle
	VideoResolution VideoResolution
}

// DefaultOptions mirrors the preselected choices of the converter form.
func DefaultOptions() Options {
	return Options{
		SummaryLevel:    SummaryStudent,
		PodcastTone:     ToneBalanced,
		PodcastLength:   LengthMedium,
		SlideTemplate:   Template1,
		VideoStyle:      VideoModern,
		VideoResolution: Resolution720p,
	}
}

// MCQ is a single multiple-choice question. Options are labelled A, B, C...
// by position; Answer holds the correct letter.
type MCQ struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Run is one journaled pipeline run.
type Run struct {
	// ID is the unique identifier for the run.
	ID string
	// Username is the logged-in user, empty when anonymous.
	Username string
	// InputKind is "text" or "pdf".
	InputKind InputKind
	// Stage is the last stage reached ("complete" or "failed" at the end).
	Stage string
	// Error is the surfaced failure message, if any.
	Error string
	// VideoPresent is false when the best-effort video stage failed.
	VideoPresent bool
	StartedAt    time.Time
	FinishedAt   time.Time
}
