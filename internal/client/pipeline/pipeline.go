// Package pipeline turns one input document into a summary, a podcast
// script, a slide deck, podcast audio and, best-effort, an explainer video.
//
// Each stage feeds the next, so stages run strictly in sequence:
//
//	resolving_input -> summarizing -> scripting -> building_slides
//	  -> synthesizing_audio -> rendering_video -> complete
//
// A failure in any stage before rendering_video ends the run in failed
// and no later endpoint is called. A failed video leaves Result.Video nil.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/researchhive/internal/client/backend"
	"github.com/atinyakov/researchhive/internal/client/blob"
	"github.com/atinyakov/researchhive/internal/client/upload"
	"github.com/atinyakov/researchhive/internal/client/workflow"
	"github.com/atinyakov/researchhive/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Download filenames of the binary artifacts.
const (
	SlidesFilename = "presentation.pptx"
	AudioFilename  = "podcast-audio.wav"
	VideoFilename  = "summary_video.mp4"
)

// ErrDiscarded is returned by a run whose result was discarded while it was
// still in flight, as happens on logout.
var ErrDiscarded = errors.New("generation discarded")

// Backend is the set of generation endpoints the pipeline calls.
type Backend interface {
	GenerateSummary(ctx context.Context, text string, level models.SummaryLevel) (backend.SummaryResult, error)
	GeneratePodcast(ctx context.Context, summaryText string, tone models.PodcastTone, length models.PodcastLength) (string, error)
	GenerateSlides(ctx context.Context, summaryText string, tmpl models.SlideTemplate) (backend.Payload, error)
	GenerateAudio(ctx context.Context, script string) (backend.Payload, error)
	GenerateVideo(ctx context.Context, summaryText string, style models.VideoStyle, res models.VideoResolution) (backend.Payload, error)
}

// Resolver turns an Input into text, uploading PDFs.
type Resolver interface {
	Resolve(ctx context.Context, in models.Input) (string, error)
}

// Recorder journals finished runs.
type Recorder interface {
	Record(ctx context.Context, run models.Run) error
}

// Request is one pipeline submission.
type Request struct {
	Input   models.Input
	Options models.Options
}

// Result holds the artifacts of a completed run. Binary artifacts live in
// the blob store until the result is superseded or discarded.
type Result struct {
	Summary       []string
	SummaryText   string
	PodcastScript string
	Slides        blob.Handle
	Audio         blob.Handle
	// Video is nil when the best-effort video stage failed.
	Video *blob.Handle
}

// handles lists every binary artifact of r.
func (r *Result) handles() []blob.Handle {
	hs := []blob.Handle{r.Slides, r.Audio}
	if r.Video != nil {
		hs = append(hs, *r.Video)
	}
	return hs
}

// Orchestrator runs the pipeline. One Orchestrator runs one request at a
// time; it keeps the latest successful Result.
type Orchestrator struct {
	be      Backend
	res     Resolver
	store   *blob.Store
	log     *zap.Logger
	metrics *Metrics

	recorder Recorder
	user     func() string
	onStage  func(Stage)

	guard workflow.Guard

	mu     sync.Mutex
	stage  Stage
	result *Result
	// epoch counts Discard calls; a run installs its result only if the
	// epoch it started under is still current.
	epoch uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder journals every finished run through r. user supplies the
// username to record.
func WithRecorder(r Recorder, user func() string) Option {
	return func(o *Orchestrator) {
		o.recorder = r
		o.user = user
	}
}

// WithMetrics replaces the default unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// OnStage calls fn on every stage transition.
func OnStage(fn func(Stage)) Option {
	return func(o *Orchestrator) { o.onStage = fn }
}

// New returns an idle Orchestrator.
func New(be Backend, res Resolver, store *blob.Store, log *zap.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		be:      be,
		res:     res,
		store:   store,
		log:     log,
		metrics: NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InProgress reports whether a run is in flight.
func (o *Orchestrator) InProgress() bool {
	return o.guard.Busy()
}

// Stage is the current state.
func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

// Result is the latest successful result, or nil.
func (o *Orchestrator) Result() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Discard releases the current result's artifacts and forgets it. A run in
// flight at the time finishes with ErrDiscarded instead of installing its
// result.
func (o *Orchestrator) Discard() {
	o.mu.Lock()
	old := o.result
	o.result = nil
	o.epoch++
	o.mu.Unlock()
	o.release(old)
}

// runState carries values between stages.
type runState struct {
	text    string
	summary backend.SummaryResult
	script  string
	slides  backend.Payload
	audio   backend.Payload
	video   *backend.Payload
}

type step struct {
	stage Stage
	do    func(ctx context.Context, st *runState) error
}

func (o *Orchestrator) steps(req Request) []step {
	opts := req.Options
	var steps []step

	if req.Input.Kind == models.InputPDF {
		steps = append(steps, step{ResolvingInput, func(ctx context.Context, st *runState) error {
			text, err := o.res.Resolve(ctx, req.Input)
			st.text = text
			return err
		}})
	}

	return append(steps,
		step{Summarizing, func(ctx context.Context, st *runState) error {
			sum, err := o.be.GenerateSummary(ctx, st.text, opts.SummaryLevel)
			if err != nil {
				return err
			}
			if sum.Text == "" {
				sum.Text = strings.Join(sum.Sections, "\n")
			}
			st.summary = sum
			return nil
		}},
		step{Scripting, func(ctx context.Context, st *runState) error {
			script, err := o.be.GeneratePodcast(ctx, st.summary.Text, opts.PodcastTone, opts.PodcastLength)
			st.script = script
			return err
		}},
		step{BuildingSlides, func(ctx context.Context, st *runState) error {
			p, err := o.be.GenerateSlides(ctx, st.summary.Text, opts.SlideTemplate)
			st.slides = p
			return err
		}},
		step{SynthesizingAudio, func(ctx context.Context, st *runState) error {
			p, err := o.be.GenerateAudio(ctx, st.script)
			st.audio = p
			return err
		}},
		step{RenderingVideo, func(ctx context.Context, st *runState) error {
			p, err := o.be.GenerateVideo(ctx, st.summary.Text, opts.VideoStyle, opts.VideoResolution)
			if err != nil {
				return err
			}
			st.video = &p
			return nil
		}},
	)
}

// Run executes the pipeline for req. It returns workflow.ErrInProgress
// without doing anything if a run is already in flight, and a validation
// error without touching the network if req is incomplete.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := o.guard.Enter(); err != nil {
		return nil, err
	}
	defer o.guard.Leave()

	o.mu.Lock()
	epoch := o.epoch
	o.mu.Unlock()

	run := models.Run{
		ID:        uuid.NewString(),
		InputKind: req.Input.Kind,
		StartedAt: time.Now(),
	}
	if o.user != nil {
		run.Username = o.user()
	}
	log := o.log.With(zap.String("run_id", run.ID))
	log.Info("pipeline started", zap.String("input", string(req.Input.Kind)))

	st := &runState{text: req.Input.Text}
	for _, s := range o.steps(req) {
		o.transition(s.stage)
		start := time.Now()
		err := s.do(ctx, st)
		elapsed := time.Since(start).Seconds()

		if err == nil {
			o.metrics.stageDuration.WithLabelValues(s.stage.String(), "ok").Observe(elapsed)
			continue
		}

		o.metrics.stageDuration.WithLabelValues(s.stage.String(), "error").Observe(elapsed)
		if s.stage.BestEffort() && ctx.Err() == nil {
			o.metrics.stageFailures.WithLabelValues(s.stage.String(), "false").Inc()
			log.Warn("best-effort stage failed, continuing",
				zap.Stringer("stage", s.stage),
				zap.String("message", backend.Message(err)),
			)
			continue
		}

		o.metrics.stageFailures.WithLabelValues(s.stage.String(), "true").Inc()
		o.metrics.runs.WithLabelValues(Failed.String()).Inc()
		o.transition(Failed)
		log.Error("pipeline failed", zap.Stringer("stage", s.stage), zap.Error(err))

		run.Stage, run.Error = s.stage.String(), backend.Message(err)
		o.record(ctx, run)
		return nil, &StageError{Stage: s.stage, Err: err}
	}

	res := o.collect(st)

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		o.release(res)
		o.transition(Idle)
		log.Info("pipeline result discarded")
		run.Stage, run.Error = Complete.String(), ErrDiscarded.Error()
		o.record(ctx, run)
		return nil, ErrDiscarded
	}
	old := o.result
	o.result = res
	o.mu.Unlock()
	o.release(old)

	o.transition(Complete)
	o.metrics.runs.WithLabelValues(Complete.String()).Inc()
	log.Info("pipeline complete", zap.Bool("video", res.Video != nil))

	run.Stage, run.VideoPresent = Complete.String(), res.Video != nil
	o.record(ctx, run)
	return res, nil
}

// collect moves the binary payloads into the blob store.
func (o *Orchestrator) collect(st *runState) *Result {
	res := &Result{
		Summary:       st.summary.Sections,
		SummaryText:   st.summary.Text,
		PodcastScript: st.script,
		Slides:        o.store.Acquire(st.slides.Data, st.slides.ContentType, SlidesFilename),
		Audio:         o.store.Acquire(st.audio.Data, st.audio.ContentType, AudioFilename),
	}
	if st.video != nil {
		h := o.store.Acquire(st.video.Data, st.video.ContentType, VideoFilename)
		res.Video = &h
	}
	return res
}

func (o *Orchestrator) release(r *Result) {
	if r == nil {
		return
	}
	for _, h := range r.handles() {
		o.store.Release(h)
	}
}

func (o *Orchestrator) transition(s Stage) {
	o.mu.Lock()
	o.stage = s
	o.mu.Unlock()
	o.log.Debug("pipeline stage", zap.Stringer("stage", s))
	if o.onStage != nil {
		o.onStage(s)
	}
}

func (o *Orchestrator) record(ctx context.Context, run models.Run) {
	if o.recorder == nil {
		return
	}
	run.FinishedAt = time.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.recorder.Record(ctx, run); err != nil {
		o.log.Warn("cannot record pipeline run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func validate(req Request) error {
	if err := upload.Validate(req.Input); err != nil {
		return err
	}
	o := req.Options
	switch {
	case !o.SummaryLevel.Valid():
		return &upload.ValidationError{Message: "Unknown summary level " + string(o.SummaryLevel)}
	case !o.PodcastTone.Valid():
		return &upload.ValidationError{Message: "Unknown podcast tone " + string(o.PodcastTone)}
	case !o.PodcastLength.Valid():
		return &upload.ValidationError{Message: "Unknown podcast length " + string(o.PodcastLength)}
	case !o.SlideTemplate.Valid():
		return &upload.ValidationError{Message: "Unknown slide template " + string(o.SlideTemplate)}
	case !o.VideoStyle.Valid():
		return &upload.ValidationError{Message: "Unknown video style " + string(o.VideoStyle)}
	case !o.VideoResolution.Valid():
		return &upload.ValidationError{Message: "Unknown video resolution " + string(o.VideoResolution)}
	}
	return nil
}
