package interpreter

import "github.com/skiff-lang/skiff/pkg/runtime"

// completionKind classifies the result of evaluating one statement. Control
// flow is threaded through these explicit results so loop, switch and
// function boundaries can inspect the signal and decide whether to keep
// going, unwind further, or stop. Thrown values travel on the error channel
// instead (see runtime.Thrown) so a break inside a try is never confused
// with a throw.
type completionKind int

const (
	completionNormal completionKind = iota
	completionReturn
	completionBreak
	completionContinue
)

func (k completionKind) String() string {
	switch k {
	case completionNormal:
		return "normal"
	case completionReturn:
		return "return"
	case completionBreak:
		return "break"
	case completionContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// completion is a statement's outcome: normal (carrying the statement's
// value, for program results) or a return/break/continue signal. Label is
// set when the source used a labeled break or continue.
type completion struct {
	kind  completionKind
	value runtime.Value
	label string
}

func normalCompletion(v runtime.Value) completion {
	if v == nil {
		v = runtime.Undefined
	}
	return completion{kind: completionNormal, value: v}
}
