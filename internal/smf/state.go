// Package smf queries the state of service instances scoped to a zone.
package smf

import (
	"fmt"
	"strings"
)

// State is the normalized state of a service instance.
type State string

const (
	StateOnline        State = "online"
	StateOffline       State = "offline"
	StateDisabled      State = "disabled"
	StateMaintenance   State = "maintenance"
	StateDegraded      State = "degraded"
	StateUninitialized State = "uninitialized"
	StateLegacyRun     State = "legacy_run"
)

// States lists the full vocabulary.
var States = []State{
	StateOnline,
	StateOffline,
	StateDisabled,
	StateMaintenance,
	StateDegraded,
	StateUninitialized,
	StateLegacyRun,
}

// ParseState maps a restarter state token onto State. A trailing '*' marks
// an instance in transition (svcs output) and is ignored.
func ParseState(token string) (State, error) {
	t := strings.TrimSuffix(strings.TrimSpace(token), "*")
	for _, s := range States {
		if string(s) == t {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown service state %q", token)
}

// IsHealthy returns true for states that need no operator attention.
func (s State) IsHealthy() bool {
	return s == StateOnline || s == StateLegacyRun || s == StateDisabled
}
