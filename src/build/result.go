package build

import "time"

// BuildResult captures the outcome of a full plan execution.
type BuildResult struct {
	Steps    []StepResult
	Duration time.Duration
}

// StepResult captures the outcome of a single build step.
type StepResult struct {
	Name     string
	Status   string   // "success", "failed"
	Images   []string // produced image references
	Duration time.Duration
	Error    error
}
