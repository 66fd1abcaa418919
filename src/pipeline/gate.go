package pipeline

import (
	"fmt"

	"github.com/alderglen/stevedore/src/ci"
	"github.com/alderglen/stevedore/src/config"
)

// GateResult explains a push-gate decision.
type GateResult struct {
	Open   bool
	Reason string
}

// EvalGate decides whether the push stage may run. The gate opens only
// when the trigger event is listed in the config AND the branch matches
// one of the configured patterns. Pull requests and pushes to other
// branches close the gate; the build stage is unaffected either way.
func EvalGate(gate config.GateConfig, trigger *ci.Context) GateResult {
	eventOK := len(gate.Events) == 0
	for _, e := range gate.Events {
		if e == trigger.Event {
			eventOK = true
			break
		}
	}
	if !eventOK {
		return GateResult{
			Open:   false,
			Reason: fmt.Sprintf("event %q is not a push trigger", trigger.Event),
		}
	}

	if !config.MatchPatterns(gate.Branches, trigger.Branch) {
		return GateResult{
			Open:   false,
			Reason: fmt.Sprintf("branch %q does not match the release branches", trigger.Branch),
		}
	}

	return GateResult{Open: true, Reason: fmt.Sprintf("push to %s", trigger.Branch)}
}
