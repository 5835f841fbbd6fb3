package dialog

import (
	"context"
	"fmt"

	"voyager/models"
)

// Result is what a tool hands back after acting: the voice line for the
// platform, and the step to transition to ("" stays put). Kind tags
// non-error outcomes the platform still needs to recognize, such as a
// confirmation bounce; those mutate state, so they cannot be errors.
type Result struct {
	Response string
	Next     Step
	Kind     string
}

// ToolFunc executes one already-authorized tool against a copy of the call
// state. It may mutate the state; the caller persists only after the tool
// and its transition both succeed, so a failed invocation commits nothing.
type ToolFunc func(ctx context.Context, state *models.CallState, args map[string]string) (*Result, error)

// Authorize checks a tool against the active step's permitted set. It fails
// closed: unknown steps and unknown tools are rejected, and nothing about
// the call state is read or written here.
func Authorize(step Step, tool string) error {
	tools, ok := stepTools[step]
	if !ok {
		return NewFlowError(KindUnauthorized, fmt.Sprintf("unknown step %q", step))
	}
	for _, t := range tools {
		if t == tool {
			return nil
		}
	}
	if !KnownTool(tool) {
		return NewFlowError(KindUnauthorized,
			fmt.Sprintf("I can't do %q.", tool))
	}
	return NewFlowError(KindUnauthorized,
		fmt.Sprintf("That's not something I can do right now. We're at the %s step.", step))
}

// CanTransition reports whether to is in from's reachable set.
func CanTransition(from, to Step) bool {
	for _, n := range stepNext[from] {
		if n == to {
			return true
		}
	}
	return false
}

// Transition moves the call to the requested step. An illegal jump is a
// no-op that names the missing prerequisite.
func Transition(state *models.CallState, to Step) error {
	from, err := ParseStep(state.Step)
	if err != nil {
		return NewFlowError(KindUnauthorized, err.Error())
	}
	if !CanTransition(from, to) {
		hint := transitionHints[to]
		if hint == "" {
			hint = fmt.Sprintf("finish the %s step first", from)
		}
		return NewFlowError(KindMissingPrerequisite,
			fmt.Sprintf("We can't jump there yet; %s.", hint))
	}
	state.Step = string(to)
	return nil
}
