package common

// Outcome is the terminal result of one region run
type Outcome string

const (
	// OutcomePersisted means a new snapshot was stored and the animation rebuilt
	OutcomePersisted Outcome = "persisted"

	// OutcomeSkipped means the canvas matched the latest snapshot; nothing was written
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means the run stopped on an error
	OutcomeFailed Outcome = "failed"

	// OutcomeDisabled marks targets switched off in configuration; they never reach the pipeline
	OutcomeDisabled Outcome = "disabled"
)

// RunState represents the pipeline state a region run is in (or stopped at)
type RunState string

const (
	// StateConfiguring covers parsing the target's corner descriptors
	StateConfiguring RunState = "configuring"
	StateFetching    RunState = "fetching"
	StateCompositing RunState = "compositing"
	StateQuantizing  RunState = "quantizing"
	StateComparing   RunState = "comparing"
	StatePersisting  RunState = "persisting"
	StateAnimating   RunState = "animating"
	StateSkipped     RunState = "skipped"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// Terminal reports whether no further transition follows this state
func (s RunState) Terminal() bool {
	return s == StateSkipped || s == StateDone || s == StateFailed
}
