package agent

import "fmt"

// PlanGenerationError is a failed attempt to get a plan from the model. It is
// logged and replaced by the deterministic plan; callers of Run never see it.
type PlanGenerationError struct {
	Reason string
	Cause  error
}

func (e *PlanGenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plan generation failed: %s: %v", e.Reason, e.Cause)
	}
	return "plan generation failed: " + e.Reason
}

func (e *PlanGenerationError) Unwrap() error {
	return e.Cause
}

// StepShapeError is a planned step dropped before execution.
type StepShapeError struct {
	Index  int
	Reason string
}

func (e *StepShapeError) Error() string {
	return fmt.Sprintf("step %d dropped: %s", e.Index, e.Reason)
}
