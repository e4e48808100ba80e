// Package history implements ExecutionStep and the append-only,
// cloneable, mergeable ExecutionHistory every CommandResult owns.
package history

import (
	"time"

	"github.com/mancerhq/mancer/core/invariant"
)

// excerptLimit bounds ExecutionStep.OutputExcerpt/ErrorExcerpt.
const excerptLimit = 2048

// defaultMaxSteps is the implementation-configurable cap on history
// length; overflow drops the oldest step and increments a counter.
const defaultMaxSteps = 1000

// ContextSnapshot is the slice of ExecutionContext captured into a step:
// just enough to explain where a step ran.
type ContextSnapshot struct {
	Cwd  string
	Mode string
	Host string
}

// StructuredSummary is the counts-only shape recorded for a step's
// structured output (never the full payload, to keep history cheap).
type StructuredSummary struct {
	DataFormat  string
	RecordCount int
}

// Step is one immutable entry in an ExecutionHistory.
type Step struct {
	StepID            int
	CommandName       string
	CommandString     string
	StartedAt         time.Time
	CompletedAt       time.Time
	ExitCode          int
	Success           bool
	OutputExcerpt     string
	ErrorExcerpt      string
	DataFormat        string
	StructuredSummary StructuredSummary
	ContextSnapshot   ContextSnapshot
	Cached            bool
	Op                string // "execute" (default) or "convert"
}

func excerpt(s string) string {
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit]
}

// NewStep builds a Step with its excerpts truncated to excerptLimit.
func NewStep(stepID int, commandName, commandString string, started, completed time.Time,
	exitCode int, success bool, stdout, stderr string, dataFormat string, recordCount int,
	ctxSnapshot ContextSnapshot) Step {
	return Step{
		StepID:            stepID,
		CommandName:       commandName,
		CommandString:     commandString,
		StartedAt:         started,
		CompletedAt:       completed,
		ExitCode:          exitCode,
		Success:           success,
		OutputExcerpt:     excerpt(stdout),
		ErrorExcerpt:      excerpt(stderr),
		DataFormat:        dataFormat,
		StructuredSummary: StructuredSummary{DataFormat: dataFormat, RecordCount: recordCount},
		ContextSnapshot:   ctxSnapshot,
		Op:                "execute",
	}
}

// History is an append-only ordered list of Step, capped at MaxSteps.
type History struct {
	steps       []Step
	nextID      int
	maxSteps    int
	droppedOld  int
}

// New returns an empty History with the default MAX_STEPS cap (1000).
func New() *History {
	return &History{maxSteps: defaultMaxSteps}
}

// NewWithCap returns an empty History with a custom step cap.
func NewWithCap(maxSteps int) *History {
	invariant.Precondition(maxSteps > 0, "maxSteps must be positive")
	return &History{maxSteps: maxSteps}
}

// NextStepID returns the id the next Append call will assign, without
// mutating the history. Used by callers that need to stamp a Step
// before appending it.
func (h *History) NextStepID() int {
	return h.nextID + 1
}

// Append adds step to the end of the history, overwriting its StepID
// with the next monotonic id. When the cap is exceeded, the oldest step
// is dropped and DroppedCount increments.
func (h *History) Append(step Step) {
	h.nextID++
	step.StepID = h.nextID
	h.steps = append(h.steps, step)

	if len(h.steps) > h.maxSteps {
		h.steps = h.steps[1:]
		h.droppedOld++
	}
}

// Steps returns the ordered steps. Callers must not mutate the slice.
func (h *History) Steps() []Step { return h.steps }

// Len returns the number of retained steps (post-eviction).
func (h *History) Len() int { return len(h.steps) }

// DroppedCount returns how many oldest steps were evicted due to the cap.
func (h *History) DroppedCount() int { return h.droppedOld }

// Clone deep-copies the history, including its step-id counter.
func (h *History) Clone() *History {
	cp := &History{
		steps:      make([]Step, len(h.steps)),
		nextID:     h.nextID,
		maxSteps:   h.maxSteps,
		droppedOld: h.droppedOld,
	}
	copy(cp.steps, h.steps)
	return cp
}

// Merge concatenates other's steps after h's, renumbering other's
// step ids to continue monotonically from h's last id. h is mutated in
// place and returned.
func (h *History) Merge(other *History) *History {
	invariant.NotNil(other, "other")
	for _, step := range other.steps {
		h.nextID++
		step.StepID = h.nextID
		h.steps = append(h.steps, step)
	}
	h.droppedOld += other.droppedOld
	if len(h.steps) > h.maxSteps {
		overflow := len(h.steps) - h.maxSteps
		h.steps = h.steps[overflow:]
		h.droppedOld += overflow
	}
	return h
}

// Clear resets the history to empty. Only safe to call during
// construction, before the history is owned by a returned CommandResult
// (spec.md §4.7).
func (h *History) Clear() {
	h.steps = nil
	h.nextID = 0
	h.droppedOld = 0
}
