package flow

// Stage identifies one of the four fixed interception points of the token
// pipeline, in execution order.
type Stage int

const (
	StageExtract Stage = iota
	StageValidate
	StageHandle
	StageApply
)

func (s Stage) String() string {
	switch s {
	case StageExtract:
		return "extract"
	case StageValidate:
		return "validate"
	case StageHandle:
		return "handle"
	case StageApply:
		return "apply"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of running a stage's event. Continue, Skipped
// and Validated are per-stage and reset when the next stage starts; Rejected,
// HandledResponse and SkipMiddleware are terminal and short-circuit the rest
// of the pipeline.
type Outcome int

const (
	// OutcomeContinue lets the built-in logic for the stage run normally.
	OutcomeContinue Outcome = iota

	// OutcomeSkipped explicitly defers to the built-in logic. Observable
	// behavior matches OutcomeContinue; the distinction exists so Validate
	// and Handle events can decline an assertion on purpose.
	OutcomeSkipped

	// OutcomeValidated records that the event asserted authentication
	// (Validate stage) or issued a ticket (Handle stage).
	OutcomeValidated

	// OutcomeRejected terminates the request with an OAuth2 error response.
	OutcomeRejected

	// OutcomeHandledResponse means the event produced the final response
	// payload itself; remaining built-in logic and stages are skipped.
	OutcomeHandledResponse

	// OutcomeSkipMiddleware yields the request to surrounding infrastructure
	// as if this endpoint were not mounted.
	OutcomeSkipMiddleware
)

// terminal reports whether the outcome short-circuits the pipeline.
func (o Outcome) terminal() bool {
	switch o {
	case OutcomeRejected, OutcomeHandledResponse, OutcomeSkipMiddleware:
		return true
	default:
		return false
	}
}
