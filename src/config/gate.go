package config

// GateConfig defines the push-stage predicate: the push stage runs only
// when the trigger event is listed in Events AND the branch matches
// Branches. Both use OR semantics within the list; Branches uses the
// standard pattern syntax (regex, literal, or !negated).
//
// The defaults encode the classic delivery gate: push events to main.
// A pull request or a push to any other branch builds but never publishes.
type GateConfig struct {
	// Events lists trigger event names that open the gate (e.g., "push").
	Events []string `yaml:"events"`

	// Branches lists branch patterns that open the gate.
	// Empty = any branch. Examples:
	//   ["^main$"]                 — only main
	//   ["^main$", "^release/.*"]  — main or release branches
	//   ["!^wip/.*"]               — everything except wip branches
	Branches []string `yaml:"branches"`
}

// DefaultGateConfig gates pushes to push events on main.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Events:   []string{"push"},
		Branches: []string{"^main$"},
	}
}
