package domain

// JobStage is a state in the per-analysis-job state machine.
type JobStage string

const (
	StageInit             JobStage = "init"
	StageChunking         JobStage = "chunking"
	StageMapping          JobStage = "mapping"
	StageReducing         JobStage = "reducing"
	StageReducingDegraded JobStage = "reducing-degraded"
	StageIndexing         JobStage = "indexing"
	StageComplete         JobStage = "complete"
	StageResult           JobStage = "result"
	StageError            JobStage = "error"
)

// validTransitions enumerates the edges of the job state machine. Reducing
// failure moves to reducing-degraded rather than error; error is reachable
// from every non-terminal stage via a caller-initiated cancel or an
// unrecoverable failure.
var validTransitions = map[JobStage][]JobStage{
	StageInit:             {StageChunking, StageError},
	StageChunking:         {StageMapping, StageError},
	StageMapping:          {StageReducing, StageError},
	StageReducing:         {StageIndexing, StageReducingDegraded, StageError},
	StageReducingDegraded: {StageIndexing, StageComplete, StageError},
	StageIndexing:         {StageComplete, StageError},
}

// CanTransition reports whether moving from stage `from` to `to` is legal.
func CanTransition(from, to JobStage) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ProgressEvent is one SSE record emitted during a streamed analysis.
type ProgressEvent struct {
	Stage    JobStage
	Progress int
	Message  string
	Data     *Report
	Error    string
}

// stageProgress gives the canonical progress% reported when entering a stage,
// used by the orchestrator when it does not have a finer-grained fraction
// (e.g. "n of m chunks mapped") to report.
var stageProgress = map[JobStage]int{
	StageInit:             0,
	StageChunking:         5,
	StageMapping:          20,
	StageReducing:         70,
	StageReducingDegraded: 80,
	StageIndexing:         90,
	StageComplete:         100,
	StageResult:           100,
}

// NewProgressEvent builds a progress event for stage with its canonical
// percentage, unless overridden by an explicit progress >= 0.
func NewProgressEvent(stage JobStage, message string, progress int) ProgressEvent {
	if progress < 0 {
		progress = stageProgress[stage]
	}
	return ProgressEvent{Stage: stage, Progress: progress, Message: message}
}

// NewResultEvent builds the terminal {stage:"result", progress:100, data} event.
func NewResultEvent(report Report) ProgressEvent {
	r := report
	return ProgressEvent{Stage: StageResult, Progress: 100, Data: &r}
}

// NewErrorEvent builds the terminal {stage:"error", error} event.
func NewErrorEvent(err string) ProgressEvent {
	return ProgressEvent{Stage: StageError, Error: err}
}
