package sensing

import (
	"errors"
	"fmt"
)

// ErrNoDataAvailable is the only fatal batch outcome: every configured agent
// failed (or none were configured), so no event sequence could be produced.
var ErrNoDataAvailable = errors.New("no data available: all agents failed")

// AgentFetchError scopes a transient fetch failure to one agent. The driver
// recovers it as "zero events from this agent" and records it in the run
// report.
type AgentFetchError struct {
	Agent string
	Err   error
}

func (e *AgentFetchError) Error() string {
	return fmt.Sprintf("agent %s fetch failed: %v", e.Agent, e.Err)
}

func (e *AgentFetchError) Unwrap() error {
	return e.Err
}
