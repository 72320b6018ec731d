package pipeline

// Stage is a state of the generation pipeline. Runs move strictly forward
// through the active stages and end in Complete or Failed.
type Stage int

const (
	Idle Stage = iota
	ResolvingInput
	Summarizing
	Scripting
	BuildingSlides
	SynthesizingAudio
	RenderingVideo
	Complete
	Failed
)

var stageNames = [...]string{
	Idle:              "idle",
	ResolvingInput:    "resolving_input",
	Summarizing:       "summarizing",
	Scripting:         "scripting",
	BuildingSlides:    "building_slides",
	SynthesizingAudio: "synthesizing_audio",
	RenderingVideo:    "rendering_video",
	Complete:          "complete",
	Failed:            "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Active reports whether s is one of the in-flight stages.
func (s Stage) Active() bool {
	return s >= ResolvingInput && s <= RenderingVideo
}

// BestEffort reports whether a failure in s leaves the run alive.
// Only the video stage is allowed to fail.
func (s Stage) BestEffort() bool {
	return s == RenderingVideo
}

// StageError is a fatal failure, tagged with the stage it happened in.
// Its message is the underlying error's message unchanged.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }
