package history

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleStep(name string) Step {
	now := time.Now()
	return NewStep(0, name, name+" --flag", now, now.Add(time.Millisecond), 0, true,
		"output", "", "LIST", 1, ContextSnapshot{Cwd: "/tmp", Mode: "LOCAL"})
}

func TestAppendAssignsMonotonicStepIDs(t *testing.T) {
	h := New()
	h.Append(sampleStep("echo"))
	h.Append(sampleStep("cat"))

	steps := h.Steps()
	assert.Equal(t, 1, steps[0].StepID)
	assert.Equal(t, 2, steps[1].StepID)
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	h := NewWithCap(2)
	h.Append(sampleStep("a"))
	h.Append(sampleStep("b"))
	h.Append(sampleStep("c"))

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "b", h.Steps()[0].CommandName)
	assert.Equal(t, "c", h.Steps()[1].CommandName)
	assert.Equal(t, 1, h.DroppedCount())
}

func TestExcerptTruncation(t *testing.T) {
	huge := strings.Repeat("x", excerptLimit+500)
	step := NewStep(0, "cat", "cat bigfile", time.Now(), time.Now(), 0, true, huge, "", "LIST", 1, ContextSnapshot{})
	assert.Len(t, step.OutputExcerpt, excerptLimit)
}

func TestCloneIsIndependent(t *testing.T) {
	h := New()
	h.Append(sampleStep("echo"))

	clone := h.Clone()
	clone.Append(sampleStep("cat"))

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestMergeRenumbersAndAppendsInOrder(t *testing.T) {
	a := New()
	a.Append(sampleStep("echo"))
	a.Append(sampleStep("cat"))

	b := New()
	b.Append(sampleStep("grep"))
	b.Append(sampleStep("wc"))

	a.Merge(b)

	steps := a.Steps()
	assert.Len(t, steps, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{steps[0].StepID, steps[1].StepID, steps[2].StepID, steps[3].StepID})
	assert.Equal(t, "grep", steps[2].CommandName)
	assert.Equal(t, "wc", steps[3].CommandName)
}

func TestMergeRespectsCapOnCombinedLength(t *testing.T) {
	a := NewWithCap(3)
	a.Append(sampleStep("a1"))
	a.Append(sampleStep("a2"))

	b := New()
	b.Append(sampleStep("b1"))
	b.Append(sampleStep("b2"))

	a.Merge(b)

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 1, a.DroppedCount())
	assert.Equal(t, "a2", a.Steps()[0].CommandName)
	assert.Equal(t, "b2", a.Steps()[2].CommandName)
}

func TestMergeProducesExpectedCommandNameSequence(t *testing.T) {
	a := New()
	a.Append(sampleStep("ps"))

	b := New()
	b.Append(sampleStep("grep"))
	b.Append(sampleStep("wc"))

	a.Merge(b)

	var names []string
	for _, step := range a.Steps() {
		names = append(names, step.CommandName)
	}
	want := []string{"ps", "grep", "wc"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("command name sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestNextStepIDDoesNotMutate(t *testing.T) {
	h := New()
	h.Append(sampleStep("echo"))

	next := h.NextStepID()
	assert.Equal(t, 2, next)
	assert.Equal(t, 1, h.Len())
}
