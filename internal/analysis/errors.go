package analysis

import "fmt"

// Phases of an analysis, used in logs and errors.
const (
	PhaseSingle = "single"
	PhaseMap    = "map"
	PhaseReduce = "reduce"
)

// SynthesisError is a fatal model failure in the single-pass or reduce phase.
type SynthesisError struct {
	Phase string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Phase, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
